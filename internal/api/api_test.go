package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
	"inkyspace/internal/workflow"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
	Cookie string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
	data  map[string]string
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newAPI(t *testing.T) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{data: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cookie := ""
		if ck, err := r.Cookie(client.SessionCookie); err == nil {
			cookie = ck.Value
		}
		path := r.URL.Path[len("/api/v1"):]
		rec.mu.Lock()
		rec.calls = append(rec.calls, recorded{Method: r.Method, Path: path, Query: r.URL.RawQuery, Body: string(body), Cookie: cookie})
		data, ok := rec.data[r.Method+" "+path]
		rec.mu.Unlock()

		if path == "/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: client.SessionCookie, Value: "sess-1", Path: "/"})
		}
		if !ok {
			data = "null"
		}
		_, _ = w.Write([]byte(`{"success":true,"data":` + data + `}`))
	}))
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL + "/api/v1")
	require.NoError(t, err)
	return New(c), rec
}

func TestLoginKeepsSessionAndLoadsUser(t *testing.T) {
	a, rec := newAPI(t)
	rec.data["GET /auth/user"] = `{"user":{"userId":"u1","name":"Ada","role":"O","onboardComplete":false}}`

	u, err := a.Auth.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, models.RoleOwner, u.Role)
	assert.Equal(t, "sess-1", a.HTTP().Session())

	last := rec.last(t)
	assert.Equal(t, "/auth/user", last.Path)
	assert.Equal(t, "sess-1", last.Cookie)

	require.NoError(t, a.Auth.Logout(context.Background()))
	assert.Empty(t, a.HTTP().Session())
}

func TestCurrentUserWithoutUserIsUnauthorized(t *testing.T) {
	a, rec := newAPI(t)
	rec.data["GET /auth/user"] = `{}`
	_, err := a.Auth.CurrentUser(context.Background())
	apiErr, ok := client.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestPublicCallsDoNotSendSession(t *testing.T) {
	a, rec := newAPI(t)
	a.HTTP().SetSession("secret")
	rec.data["GET /space/s1"] = `{"spaceId":"s1","title":"Notes"}`

	sp, err := a.Spaces.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Notes", sp.Title)
	assert.Empty(t, rec.last(t).Cookie)

	_, err = a.Spaces.SubscriptionStatus(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "secret", rec.last(t).Cookie)
}

func TestVerifyCookieForwardsGivenSession(t *testing.T) {
	a, rec := newAPI(t)
	rec.data["GET /auth/verify"] = `{"isLoggedIn":true,"role":"E"}`

	st, err := a.Auth.VerifyCookie(context.Background(), "browser-cookie")
	require.NoError(t, err)
	assert.True(t, st.IsLoggedIn)
	assert.Equal(t, models.RoleEditor, st.Role)
	assert.Equal(t, "browser-cookie", rec.last(t).Cookie)
}

func TestPaginationQuery(t *testing.T) {
	a, rec := newAPI(t)
	rec.data["GET /space/list/threads/s1"] = `{"list":[{"threadId":"t1"}],"nextPagetoken":"n2","totalCount":7}`

	page, err := a.Spaces.Threads(context.Background(), "s1", models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "pageSize=5", rec.last(t).Query)
	next, ok := page.Next()
	require.True(t, ok)
	assert.Equal(t, "n2", next)
	assert.Equal(t, 7, page.TotalCount)

	_, err = a.Spaces.Subscribers(context.Background(), "s1", models.PageRequest{Token: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "nextPagetoken=abc&pageSize=10", rec.last(t).Query)

	_, err = a.Threads.Explore(context.Background(), "", models.PageRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, "pageSize=2", rec.last(t).Query)

	_, err = a.Comments.Replies(context.Background(), "t1", "c1", models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/thread/list/comment/replies/t1", rec.last(t).Path)
	assert.Equal(t, "pageSize=5&parentId=c1", rec.last(t).Query)
}

func TestThreadLifecycleCalls(t *testing.T) {
	a, rec := newAPI(t)
	ctx := context.Background()
	rec.data["POST /thread/create"] = `{"threadId":"t9"}`

	id, err := a.Threads.Create(ctx, models.ThreadFormData{Title: "My First Post", SpaceID: "s1", Tags: []models.Tag{{ID: "1", Name: "go"}}})
	require.NoError(t, err)
	assert.Equal(t, "t9", id)

	require.NoError(t, a.Threads.Submit(ctx, id))
	assert.Equal(t, recorded{Method: http.MethodPost, Path: "/thread/send-for-approval/t9"}, rec.last(t))

	require.NoError(t, a.Threads.RequestCorrection(ctx, id, "Needs more detail"))
	last := rec.last(t)
	assert.Equal(t, "/thread/request-correction/t9", last.Path)
	assert.JSONEq(t, `{"rejectionReason":"Needs more detail"}`, last.Body)

	before := rec.count()
	err = a.Threads.RequestCorrection(ctx, id, "  ")
	assert.ErrorIs(t, err, workflow.ErrReasonRequired)
	assert.Equal(t, before, rec.count())

	require.NoError(t, a.Threads.Publish(ctx, id))
	assert.Equal(t, "/thread/publish/t9", rec.last(t).Path)

	require.NoError(t, a.Threads.Interact(ctx, id, models.InteractionLike))
	assert.Equal(t, "interaction=like", rec.last(t).Query)
}

func TestCommentCalls(t *testing.T) {
	a, rec := newAPI(t)
	ctx := context.Background()
	rec.data["POST /thread/comment/t1"] = `{"commentId":"c1"}`
	rec.data["POST /thread/comment/reply/t1/"] = `{"replyId":"r1"}`

	cid, err := a.Comments.Create(ctx, "t1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "c1", cid)
	assert.JSONEq(t, `{"comment":"hello"}`, rec.last(t).Body)

	rid, err := a.Comments.Reply(ctx, "t1", cid, "hi back")
	require.NoError(t, err)
	assert.Equal(t, "r1", rid)
	assert.Equal(t, "parentId=c1", rec.last(t).Query)
	assert.JSONEq(t, `{"reply":"hi back"}`, rec.last(t).Body)

	require.NoError(t, a.Comments.Delete(ctx, rid))
	assert.Equal(t, recorded{Method: http.MethodDelete, Path: "/thread/comment/r1"}, rec.last(t))
}

func TestSpaceDeleteSendsBody(t *testing.T) {
	a, rec := newAPI(t)
	a.HTTP().SetSession("s")
	require.NoError(t, a.Spaces.Delete(context.Background(), "s1"))
	last := rec.last(t)
	assert.Equal(t, http.MethodDelete, last.Method)
	assert.Equal(t, "/space/delete", last.Path)
	assert.JSONEq(t, `{"spaceId":"s1"}`, last.Body)
	assert.Equal(t, "s", last.Cookie)
}

func TestOnboardingCalls(t *testing.T) {
	a, rec := newAPI(t)
	ctx := context.Background()
	rec.data["POST /invite/create"] = `{"success":true,"invited":2,"failed":0}`

	require.NoError(t, a.Onboarding.SubmitTags(ctx, []string{"1", "2"}))
	assert.JSONEq(t, `{"tags":["1","2"]}`, rec.last(t).Body)

	require.NoError(t, a.Onboarding.Subscribe(ctx, []models.SpaceSelection{{SpaceID: "s1", IsNewsletter: true}}))
	last := rec.last(t)
	assert.Equal(t, "/space/multi/subscribe", last.Path)
	var body struct {
		Spaces []models.SpaceSelection `json:"spaces"`
	}
	require.NoError(t, json.Unmarshal([]byte(last.Body), &body))
	assert.Equal(t, []models.SpaceSelection{{SpaceID: "s1", IsNewsletter: true}}, body.Spaces)

	res, err := a.Onboarding.InviteEditors(ctx, []string{"a@x.io", "b@x.io"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invited)

	require.NoError(t, a.Onboarding.Complete(ctx))
	assert.Equal(t, "/user/onboarding", rec.last(t).Path)
}

func TestDeleteAccountClearsSession(t *testing.T) {
	a, _ := newAPI(t)
	a.HTTP().SetSession("s")
	require.NoError(t, a.Users.DeleteAccount(context.Background()))
	assert.Empty(t, a.HTTP().Session())
}

func TestGenerateReturnsMarkdownBody(t *testing.T) {
	var got models.GenerateThreadData
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/v1/gemini/generate/thread-content", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("# Tides\n\nThe sea goes out."))
	}))
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL + "/api/v1")
	require.NoError(t, err)
	a := New(c)
	ctx := context.Background()

	md, err := a.Threads.Generate(ctx, "  tides  ", "")
	require.NoError(t, err)
	assert.Equal(t, "# Tides\n\nThe sea goes out.", md)
	assert.Equal(t, models.GenerateThreadData{Prompt: "tides", Tone: models.DefaultTone}, got)

	_, err = a.Threads.Generate(ctx, " \n", "formal")
	assert.ErrorIs(t, err, ErrPromptRequired)
	assert.Equal(t, 1, calls)
}
