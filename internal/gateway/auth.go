package gateway

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/access"
	"inkyspace/internal/client"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/onboarding"
)

const (
	registeredMessage = "Registration successful! Please check your email to verify your account."
	verifiedMessage   = "Email verified successfully. You can now log in."
	resentMessage     = "If an account is waiting for verification, a new email is on its way."
	inviteUsedMessage = "This invitation has already been accepted. Please log in."
	onboardingPath    = "/onboarding"
)

type formModel struct {
	Fields []string `json:"fields"`
	Roles  []string `json:"roles,omitempty"`
}

func (s *Server) authRoutes(r chi.Router) {
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Get("/register", s.registerPage)
	r.Post("/register", s.register)
	r.Get("/verify/{token}", s.verifyEmail)
	r.Get("/team-invite/{token}", s.invitePage)
	r.Post("/team-invite/{token}", s.acceptInvite)
	r.Post("/logout", s.logout)
}

func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "landing", map[string]string{
		"login":    access.LoginPath,
		"register": "/auth/register",
		"explore":  access.ExplorePath,
	})
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", formModel{Fields: []string{"email", "password"}})
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", formModel{
		Fields: []string{"name", "email", "password", "role"},
		Roles:  []string{string(models.RoleReader), string(models.RoleOwner)},
	})
}

// login signs the visitor in and hands the API session to the browser. The
// action=resend-verification variant mails a new verification link instead.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	var form models.LoginData
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "login", err)
		return
	}
	form.Email = strings.TrimSpace(form.Email)
	if r.URL.Query().Get("action") == "resend-verification" {
		if err := v.api.Auth.ResendVerification(r.Context(), form.Email); err != nil {
			s.fail(w, r, "login", err)
			return
		}
		v.notes.Push(notify.Info, resentMessage)
		s.render(w, r, http.StatusOK, "login", formModel{Fields: []string{"email", "password"}})
		return
	}
	u, err := v.api.Auth.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}
	s.setSessionCookie(w, v.api.HTTP().Session())
	s.log.WithField("user_id", u.UserID).Info("user logged in")
	s.redirect(w, r, landingFor(u))
}

// landingFor is where a freshly signed-in user goes.
func landingFor(u *models.User) string {
	if !u.OnboardComplete && len(onboarding.StepsFor(u.Role)) > 0 {
		return onboardingPath
	}
	return access.ExplorePath
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	var form models.RegisterData
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "register", err)
		return
	}
	if form.Role == models.RoleAnonymous {
		form.Role = models.RoleReader
	}
	if err := v.api.Auth.Register(r.Context(), form); err != nil {
		s.fail(w, r, "register", err)
		return
	}
	v.notes.Push(notify.Success, registeredMessage)
	s.render(w, r, http.StatusCreated, "register", nil)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	if err := v.api.Auth.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		s.fail(w, r, "verify-email", err)
		return
	}
	v.notes.Push(notify.Success, verifiedMessage)
	writePage(w, http.StatusOK, page{Name: "verify-email", Location: access.LoginPath, Messages: v.notes.Active()})
}

func (s *Server) invitePage(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	st, err := v.api.Invites.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.fail(w, r, "team-invite", err)
		return
	}
	if st.IsAccepted {
		v.notes.Push(notify.Info, inviteUsedMessage)
		writePage(w, http.StatusOK, page{Name: "team-invite", Location: access.LoginPath, Messages: v.notes.Active()})
		return
	}
	s.render(w, r, http.StatusOK, "team-invite", formModel{Fields: []string{"name", "password"}})
}

// acceptInvite creates the Editor account and signs it in.
func (s *Server) acceptInvite(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	var form models.AcceptInviteData
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "team-invite", err)
		return
	}
	if err := v.api.Invites.Accept(r.Context(), chi.URLParam(r, "token"), form); err != nil {
		s.fail(w, r, "team-invite", err)
		return
	}
	s.setSessionCookie(w, v.api.HTTP().Session())
	s.redirect(w, r, access.ExplorePath)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	if err := v.api.Auth.Logout(r.Context()); err != nil {
		s.log.WithError(err).Warn("api logout failed")
	}
	if v.session.Cookie != "" {
		s.workspaces.drop(v.session.Cookie)
	}
	s.setSessionCookie(w, "")
	s.redirect(w, r, access.LoginPath)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string) {
	ck := &http.Cookie{
		Name:     client.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		ck.MaxAge = -1
	}
	http.SetCookie(w, ck)
}
