package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

// Session is what the guard knows about the visitor for one request.
type Session struct {
	Cookie   string
	LoggedIn bool
	Role     models.Role
}

type Result struct {
	Pass     bool
	Location string
}

func pass() Result { return Result{Pass: true} }

func redirect(to string) Result { return Result{Location: to} }

// Decide is the request-time branching of the guard. It performs no I/O.
func Decide(t RouteTable, path string, s Session) Result {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if t.exempt(path) {
		return pass()
	}
	if to, ok := t.Aliases[path]; ok {
		return redirect(to)
	}
	if s.LoggedIn {
		if t.publicOnly(path) {
			return redirect(t.Feed)
		}
		if sub, ok := t.settingsPage(path); ok {
			if sub == "" || !t.Capabilities(s.Role).AllowsSettings(sub) {
				return redirect(t.SettingsHome)
			}
		}
		return pass()
	}
	if t.publicOnly(path) {
		return pass()
	}
	return redirect(t.Login)
}

type Verifier interface {
	VerifyCookie(ctx context.Context, session string) (models.SessionStatus, error)
}

type sessionKey struct{}

// SessionFrom returns the session the middleware resolved for the request.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// Middleware verifies the connect.sid cookie on every request, never caching
// the answer, and applies Decide. A failed verification counts as logged out.
func Middleware(v Verifier, t RouteTable, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s Session
			if ck, err := r.Cookie(client.SessionCookie); err == nil && ck.Value != "" {
				s.Cookie = ck.Value
				st, err := v.VerifyCookie(r.Context(), ck.Value)
				if err != nil {
					log.WithFields(logrus.Fields{"path": r.URL.Path, "error": err}).Warn("session verification failed")
				} else {
					s.LoggedIn = st.IsLoggedIn
					s.Role = st.Role
				}
			}
			res := Decide(t, r.URL.Path, s)
			if !res.Pass {
				log.WithFields(logrus.Fields{"path": r.URL.Path, "to": res.Location, "logged_in": s.LoggedIn}).Debug("guard redirect")
				http.Redirect(w, r, res.Location, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
