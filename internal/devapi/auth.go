package devapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/auth"
	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

func (s *Server) authRoutes(r chi.Router) {
	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)
	r.Get("/verify", s.verifySession)
	r.Get("/verify-email/{token}", s.verifyEmail)
	r.Post("/resend-verification-email", s.resendVerification)
	r.With(requireUser).Get("/user", s.sessionUser)
	r.With(requireUser).Put("/change-password", s.changePassword)
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var errs []fieldError
	if req.Name == "" {
		errs = append(errs, fieldError{Property: "name", Error: "name is required"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, fieldError{Property: "email", Error: "a valid email is required"})
	}
	if req.Role == "" {
		req.Role = models.RoleReader
	}
	if req.Role != models.RoleReader && req.Role != models.RoleOwner {
		errs = append(errs, fieldError{Property: "role", Error: "role must be U or O"})
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		errs = append(errs, fieldError{Property: "password", Error: err.Error()})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, http.StatusBadRequest, errs...)
		return
	}

	token, err := auth.GenerateToken(auth.VerifyTokenPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	user, err := db.CreateUser(r.Context(), s.db, db.NewUser{
		Name:            req.Name,
		Email:           req.Email,
		PasswordHash:    hash,
		Role:            req.Role,
		VerifyTokenHash: auth.HashToken(token),
	})
	if errors.Is(err, db.ErrConflict) {
		writeFieldErrors(w, http.StatusConflict, fieldError{Property: "email", Error: "email is already registered"})
		return
	}
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	if err := s.mail.Send(r.Context(), Mail{Kind: MailVerify, To: user.Email, Token: token}); err != nil {
		s.log.WithError(err).Warn("verification mail failed")
	}
	writeMessage(w, http.StatusCreated, "check your inbox to verify your email")
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "email", Error: "email and password are required"})
		return
	}

	key := "login:" + email
	res := s.logins.Hit(key, s.now())
	if !res.Allowed {
		retryAfter := int(time.Until(res.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	creds, err := db.CredentialsByEmail(r.Context(), s.db, email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeStoreError(w, err, "user")
		return
	}
	if creds == nil || !auth.CheckPassword(creds.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !creds.Verified {
		writeError(w, http.StatusForbidden, "please verify your email before logging in")
		return
	}
	s.logins.Reset(key)

	token, err := s.issueSession(w, creds.UserID, creds.Role, creds.SessionVersion)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeData(w, http.StatusOK, models.LoginResult{Token: token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearCookie())
	writeMessage(w, http.StatusOK, "logged out")
}

func (s *Server) sessionUser(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{"user": currentUser(r.Context())})
}

func (s *Server) verifySession(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if user == nil {
		writeData(w, http.StatusOK, models.SessionStatus{})
		return
	}
	writeData(w, http.StatusOK, models.SessionStatus{IsLoggedIn: true, Role: user.Role})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !strings.HasPrefix(token, auth.VerifyTokenPrefix) {
		writeError(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}
	err := db.VerifyEmail(r.Context(), s.db, auth.HashToken(token))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	writeMessage(w, http.StatusOK, "email verified")
}

// resendVerification answers the same way whether or not the address is
// pending, so it cannot be used to discover accounts.
func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "email", Error: "a valid email is required"})
		return
	}
	token, err := auth.GenerateToken(auth.VerifyTokenPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resend verification")
		return
	}
	err = db.SetVerifyToken(r.Context(), s.db, email, auth.HashToken(token))
	switch {
	case err == nil:
		if err := s.mail.Send(r.Context(), Mail{Kind: MailVerify, To: email, Token: token}); err != nil {
			s.log.WithError(err).Warn("verification mail failed")
		}
	case !errors.Is(err, db.ErrNotFound):
		writeStoreError(w, err, "user")
		return
	}
	writeMessage(w, http.StatusOK, "if the address is pending verification a new link is on its way")
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordChange
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	user := currentUser(r.Context())
	creds, err := db.CredentialsByID(r.Context(), s.db, user.UserID)
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	if !auth.CheckPassword(creds.PasswordHash, req.CurrentPassword) {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "currentPassword", Error: "current password is incorrect"})
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "newPassword", Error: err.Error()})
		return
	}
	if err := db.SetPassword(r.Context(), s.db, user.UserID, hash); err != nil {
		writeStoreError(w, err, "user")
		return
	}
	// Other sessions are revoked; this one continues on the new version.
	if _, err := s.issueSession(w, user.UserID, user.Role, creds.SessionVersion+1); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to refresh session")
		return
	}
	writeMessage(w, http.StatusOK, "password changed")
}
