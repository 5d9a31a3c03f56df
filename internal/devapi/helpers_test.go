package devapi

import (
	"context"
	"database/sql"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/api"
	"inkyspace/internal/auth"
	"inkyspace/internal/client"
	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

type testEnv struct {
	base   string
	db     *sql.DB
	outbox *Outbox
}

func setupTestServer(t *testing.T, opts Options) *testEnv {
	t.Helper()
	database, err := db.Init(context.Background(), filepath.Join(t.TempDir(), "inky.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	outbox := &Outbox{}
	opts.Logger = log
	opts.Mailer = outbox
	if opts.Sessions == nil {
		opts.Sessions = auth.NewSessions("test-secret", time.Hour)
	}
	server := httptest.NewServer(New(database, opts).Router())
	t.Cleanup(server.Close)
	return &testEnv{base: server.URL + Prefix, db: database, outbox: outbox}
}

func (e *testEnv) client(t *testing.T) *api.Client {
	t.Helper()
	c, err := client.New(e.base, client.WithTimeout(5*time.Second))
	require.NoError(t, err)
	return api.New(c)
}

// signUp registers, verifies and logs in a new account.
func (e *testEnv) signUp(t *testing.T, name, email string, role models.Role) (*api.Client, *models.User) {
	t.Helper()
	ctx := context.Background()
	c := e.client(t)
	require.NoError(t, c.Auth.Register(ctx, models.RegisterData{Name: name, Email: email, Password: "correct-horse", Role: role}))
	mail, ok := e.outbox.Last(MailVerify, email)
	require.True(t, ok, "verification mail for %s", email)
	require.NoError(t, c.Auth.VerifyEmail(ctx, mail.Token))
	user, err := c.Auth.Login(ctx, email, "correct-horse")
	require.NoError(t, err)
	return c, user
}

// inviteEditor has owner invite email and accepts the invite on a fresh
// client.
func (e *testEnv) inviteEditor(t *testing.T, owner *api.Client, name, email string) (*api.Client, *models.User) {
	t.Helper()
	ctx := context.Background()
	res, err := owner.Invites.Create(ctx, []string{email})
	require.NoError(t, err)
	require.Equal(t, 1, res.Invited)

	mail, ok := e.outbox.Last(MailInvite, email)
	require.True(t, ok)
	editor := e.client(t)
	require.NoError(t, editor.Invites.Accept(ctx, mail.Token, models.AcceptInviteData{Name: name, Password: "editor-pass"}))
	user, err := editor.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	return editor, user
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := client.IsAPIError(err)
	require.True(t, ok, "expected api error, got %v", err)
	return apiErr.Status
}

func firstTag(t *testing.T, c *api.Client) models.Tag {
	t.Helper()
	tags, err := c.Spaces.Tags(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	return tags[0]
}
