package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/models"
)

func TestTokenHashRoundTrip(t *testing.T) {
	tok, err := GenerateToken(InviteTokenPrefix)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok, InviteTokenPrefix))
	h := HashToken(tok)
	assert.True(t, VerifyToken(tok, h))
	assert.False(t, VerifyToken(tok+"x", h))
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "correct horse"))
	assert.False(t, CheckPassword(h, "wrong horse"))
}

func TestSessionIssueAndParse(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	tok, exp, err := s.Issue("u1", models.RoleEditor, 3)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleEditor, claims.Role)
	assert.Equal(t, 3, claims.Version)

	_, err = NewSessions("other", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestExpiredSessionRejected(t *testing.T) {
	s := NewSessions("secret", time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }
	tok, _, err := s.Issue("u1", models.RoleReader, 0)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionFromCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, SessionFrom(r))
	r.AddCookie(Cookie("abc", time.Now().Add(time.Hour)))
	assert.Equal(t, "abc", SessionFrom(r))
}
