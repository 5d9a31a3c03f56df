package devapi

import (
	"context"
	"net/http"

	"inkyspace/internal/auth"
	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// loadSession resolves the session cookie to its user. A missing, expired or
// revoked session leaves the request anonymous; routes that need a user say
// so with requireUser.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.SessionFrom(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.sessions.Parse(token)
		if err != nil {
			s.log.WithError(err).Debug("ignoring session cookie")
			next.ServeHTTP(w, r)
			return
		}
		creds, err := db.CredentialsByID(r.Context(), s.db, claims.UserID)
		if err != nil || creds.SessionVersion != claims.Version {
			next.ServeHTTP(w, r)
			return
		}
		user, err := db.GetUser(r.Context(), s.db, claims.UserID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func currentViewer(ctx context.Context) models.Viewer {
	return models.ViewerOf(currentUser(ctx))
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "please log in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole admits logged-in users holding one of roles.
func requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return requireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := currentUser(r.Context()).Role
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "your role cannot do this")
		}))
	}
}

// issueSession sets a fresh session cookie for the user.
func (s *Server) issueSession(w http.ResponseWriter, userID string, role models.Role, version int) (string, error) {
	token, exp, err := s.sessions.Issue(userID, role, version)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, auth.Cookie(token, exp))
	return token, nil
}
