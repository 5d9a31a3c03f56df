package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/api/v1")
	require.NoError(t, err)
	return c
}

func TestCallDecodesEnvelopeData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/space/s1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"spaceId":"s1","title":"Notes"}}`))
	})

	var out struct {
		SpaceID string `json:"spaceId"`
		Title   string `json:"title"`
	}
	require.NoError(t, c.Get(context.Background(), "/space/s1", &out))
	assert.Equal(t, "s1", out.SpaceID)
	assert.Equal(t, "Notes", out.Title)
}

func TestServerFailureReturnsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"validation failed","errors":[{"property":"title","error":"Title is required"},{"property":"spaceId","error":"Space is required"}]}`))
	})

	err := c.Post(context.Background(), "/thread/create", map[string]any{}, nil)
	require.Error(t, err)
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Errors, 2)
	assert.Equal(t, "title", apiErr.Errors[0].Property)
	assert.Contains(t, err.Error(), "Space is required")
	assert.False(t, errors.Is(err, ErrUnexpected))
}

func TestSuccessFalseWithOKStatusIsStillAFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
	})
	err := c.Get(context.Background(), "/user/me", nil)
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "nope", apiErr.Message)
}

func TestMalformedBodyIsUnexpected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})
	err := c.Get(context.Background(), "/user/me", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpected))
}

func TestNetworkFailureIsUnexpected(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	err = c.Get(context.Background(), "/user/me", nil)
	assert.True(t, errors.Is(err, ErrUnexpected))
}

func TestSessionCookieOnlySentWhenAuth(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(SessionCookie)
		if err == nil {
			seen = append(seen, ck.Value)
		} else {
			seen = append(seen, "")
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	c.SetSession("sess-123")
	assert.Equal(t, "sess-123", c.Session())

	require.NoError(t, c.Call(context.Background(), Request{Method: http.MethodGet, Path: "/user/me", Auth: true}, nil))
	require.NoError(t, c.Call(context.Background(), Request{Method: http.MethodGet, Path: "/space/explore"}, nil))
	assert.Equal(t, []string{"sess-123", ""}, seen)
}

func TestLoginCookieIsCapturedByJar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "fresh", Path: "/", HttpOnly: true})
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	require.NoError(t, c.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.c"}, nil))
	assert.Equal(t, "fresh", c.Session())

	c.SetSession("")
	assert.Empty(t, c.Session())
}

func TestExtraHeadersAreForwarded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SessionCookie+"=forwarded", r.Header.Get("Cookie"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"isLoggedIn":true,"role":"O"}}`))
	})
	var out map[string]any
	err := c.Call(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "/auth/verify",
		Headers: map[string]string{"Cookie": SessionCookie + "=forwarded"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, true, out["isLoggedIn"])
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api/v1")
	assert.Error(t, err)
}

func TestTextReturnsRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("# Title\n\nBody"))
	})

	out, err := c.Text(context.Background(), Request{Method: http.MethodPost, Path: "/gen", Body: map[string]string{"prompt": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody", out)
}

func TestTextFailureKeepsEnvelopeMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"prompt is required"}`))
	})

	_, err := c.Text(context.Background(), Request{Method: http.MethodPost, Path: "/gen"})
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "prompt is required", apiErr.Message)
}
