package api

import (
	"context"
	"net/http"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

type AuthService struct {
	c *client.Client
}

// Register creates an account. The server mails a verification link; no
// session is issued.
func (s *AuthService) Register(ctx context.Context, data models.RegisterData) error {
	return s.c.Call(ctx, client.Request{Method: http.MethodPost, Path: "/auth/register", Body: data}, nil)
}

// Login authenticates, keeps the issued session cookie in the jar and loads
// the session user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.c.Post(ctx, "/auth/login", models.LoginData{Email: email, Password: password}, nil); err != nil {
		return nil, err
	}
	return s.CurrentUser(ctx)
}

func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := s.c.Get(ctx, "/auth/user", &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &client.APIError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	return out.User, nil
}

func (s *AuthService) Verify(ctx context.Context) (models.SessionStatus, error) {
	var st models.SessionStatus
	err := s.c.Get(ctx, "/auth/verify", &st)
	return st, err
}

// VerifyCookie checks a session value that does not live in this client's
// jar, as the route guard does for incoming browser requests.
func (s *AuthService) VerifyCookie(ctx context.Context, session string) (models.SessionStatus, error) {
	var st models.SessionStatus
	err := s.c.Call(ctx, client.Request{
		Method:  http.MethodGet,
		Path:    "/auth/verify",
		Headers: map[string]string{"Cookie": client.SessionCookie + "=" + session},
	}, &st)
	return st, err
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: "/auth/verify-email/" + esc(token)}, nil)
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	return s.c.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/resend-verification-email",
		Body:   map[string]string{"email": email},
	}, nil)
}

// Logout ends the session. The local cookie is dropped even when the call
// fails.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.c.Post(ctx, "/auth/logout", nil, nil)
	s.c.SetSession("")
	return err
}

func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	return s.c.Put(ctx, "/auth/change-password", models.PasswordChange{CurrentPassword: current, NewPassword: next}, nil)
}
