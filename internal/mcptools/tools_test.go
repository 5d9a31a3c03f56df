package mcptools

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"inkyspace/internal/api"
	"inkyspace/internal/auth"
	"inkyspace/internal/client"
	"inkyspace/internal/db"
	"inkyspace/internal/devapi"
	"inkyspace/internal/models"
)

const password = "correct-horse"

type testEnv struct {
	apiURL string
	outbox *devapi.Outbox
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Init(context.Background(), filepath.Join(t.TempDir(), "inky.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	outbox := &devapi.Outbox{}
	srv := httptest.NewServer(devapi.New(database, devapi.Options{
		Logger:   log,
		Mailer:   outbox,
		Sessions: auth.NewSessions("test-secret", time.Hour),
	}).Router())
	t.Cleanup(srv.Close)
	return &testEnv{apiURL: srv.URL + devapi.Prefix, outbox: outbox}
}

func (e *testEnv) sdk(t *testing.T) *api.Client {
	t.Helper()
	c, err := client.New(e.apiURL, client.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return api.New(c)
}

func (e *testEnv) owner(t *testing.T) *api.Client {
	t.Helper()
	ctx := context.Background()
	c := e.sdk(t)
	if err := c.Auth.Register(ctx, models.RegisterData{Name: "Olga", Email: "olga@example.com", Password: password, Role: models.RoleOwner}); err != nil {
		t.Fatalf("register: %v", err)
	}
	mail, ok := e.outbox.Last(devapi.MailVerify, "olga@example.com")
	if !ok {
		t.Fatalf("no verification mail")
	}
	if err := c.Auth.VerifyEmail(ctx, mail.Token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := c.Auth.Login(ctx, "olga@example.com", password); err != nil {
		t.Fatalf("login: %v", err)
	}
	return c
}

func (e *testEnv) editor(t *testing.T, owner *api.Client) *api.Client {
	t.Helper()
	ctx := context.Background()
	if _, err := owner.Invites.Create(ctx, []string{"ed@example.com"}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	mail, ok := e.outbox.Last(devapi.MailInvite, "ed@example.com")
	if !ok {
		t.Fatalf("no invite mail")
	}
	c := e.sdk(t)
	if err := c.Invites.Accept(ctx, mail.Token, models.AcceptInviteData{Name: "Ed", Password: "editor-pass"}); err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	return c
}

func connect(t *testing.T, c *api.Client) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := NewServer(c, "test").Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	cl := mcp.NewClient(&mcp.Implementation{Name: "inky-test-client", Version: "test"}, nil)
	session, err := cl.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call(t *testing.T, s *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	text := firstTextContent(t, res)
	if res.IsError {
		t.Fatalf("call %s failed: %s", name, text)
	}
	return text
}

// callFails reports whether the tool refused the call, either as a protocol
// error or as an error result.
func callFails(t *testing.T, s *mcp.ClientSession, name string, args map[string]any) bool {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	return err != nil || res.IsError
}

func firstTextContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected tool content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestListTools(t *testing.T) {
	env := setup(t)
	session := connect(t, env.sdk(t))

	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"inky_explore":           false,
		"inky_feed":              false,
		"inky_read_thread":       false,
		"inky_view_space":        false,
		"inky_subscribed_spaces": false,
		"inky_my_threads":        false,
		"inky_pending_approvals": false,
		"inky_create_thread":     false,
		"inky_thread_action":     false,
		"inky_comment":           false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, ok := range want {
		if !ok {
			t.Fatalf("missing tool %q", name)
		}
	}
}

func TestReviewFlow(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	owner := env.owner(t)
	spaceID, err := owner.Spaces.Create(ctx, models.CreateSpaceData{Title: "Field Notes", Description: "notes"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	ed := connect(t, env.editor(t, owner))
	ob := connect(t, owner)

	if !callFails(t, ed, "inky_create_thread", map[string]any{"title": "no space"}) {
		t.Fatalf("expected create without space_id to fail")
	}

	var created models.CreatedThread
	text := call(t, ed, "inky_create_thread", map[string]any{
		"space_id": spaceID,
		"title":    "Tide Tables",
		"markdown": "# Tides\n\nLow water at **noon**.",
	})
	if err := json.Unmarshal([]byte(text), &created); err != nil || created.ThreadID == "" {
		t.Fatalf("decode created thread %q: %v", text, err)
	}

	text = call(t, ed, "inky_my_threads", map[string]any{"status": "d"})
	if !strings.Contains(text, created.ThreadID) {
		t.Fatalf("draft missing from my threads: %s", text)
	}
	if !callFails(t, ed, "inky_my_threads", map[string]any{"status": "x"}) {
		t.Fatalf("expected unknown status to fail")
	}

	text = call(t, ed, "inky_thread_action", map[string]any{"thread_id": created.ThreadID, "action": "submit"})
	if !strings.Contains(text, "Awaiting Approval") {
		t.Fatalf("expected awaiting status, got %s", text)
	}

	text = call(t, ob, "inky_pending_approvals", nil)
	if !strings.Contains(text, created.ThreadID) {
		t.Fatalf("thread missing from pending approvals: %s", text)
	}

	if !callFails(t, ob, "inky_thread_action", map[string]any{"thread_id": created.ThreadID, "action": "reject"}) {
		t.Fatalf("expected reject without reason to fail")
	}
	text = call(t, ob, "inky_thread_action", map[string]any{"thread_id": created.ThreadID, "action": "reject", "reason": "Cite a source"})
	if !strings.Contains(text, "Cite a source") {
		t.Fatalf("expected rejection reason, got %s", text)
	}

	text = call(t, ed, "inky_read_thread", map[string]any{"thread_id": created.ThreadID})
	if !strings.Contains(text, "# Tide Tables") || !strings.Contains(text, "Rejection reason: Cite a source") {
		t.Fatalf("unexpected preview:\n%s", text)
	}

	call(t, ed, "inky_thread_action", map[string]any{"thread_id": created.ThreadID, "action": "submit"})
	text = call(t, ob, "inky_thread_action", map[string]any{"thread_id": created.ThreadID, "action": "approve"})
	if !strings.Contains(text, `"statusLabel": "Published"`) {
		t.Fatalf("expected published thread, got %s", text)
	}

	if !callFails(t, ob, "inky_comment", map[string]any{"thread_id": created.ThreadID, "text": "  "}) {
		t.Fatalf("expected empty comment to fail")
	}
	call(t, ob, "inky_comment", map[string]any{"thread_id": created.ThreadID, "text": "Lovely read"})

	anon := connect(t, env.sdk(t))
	text = call(t, anon, "inky_read_thread", map[string]any{"thread_id": created.ThreadID})
	for _, want := range []string{"# Tide Tables", "Status: Published", "Low water at **noon**.", "Olga: Lovely read"} {
		if !strings.Contains(text, want) {
			t.Fatalf("read thread missing %q:\n%s", want, text)
		}
	}

	text = call(t, anon, "inky_explore", map[string]any{"search": "tide"})
	var page models.Page[models.ThreadPreview]
	if err := json.Unmarshal([]byte(text), &page); err != nil {
		t.Fatalf("decode explore: %v", err)
	}
	if len(page.List) != 1 || page.List[0].ThreadID != created.ThreadID {
		t.Fatalf("unexpected explore page: %s", text)
	}

	text = call(t, ob, "inky_view_space", map[string]any{"space_id": spaceID})
	if !strings.Contains(text, "Field Notes") {
		t.Fatalf("unexpected space: %s", text)
	}
}

func TestSubscribedSpacesNeedsSession(t *testing.T) {
	env := setup(t)
	anon := connect(t, env.sdk(t))
	if !callFails(t, anon, "inky_subscribed_spaces", nil) {
		t.Fatalf("expected anonymous subscribed spaces to fail")
	}
}
