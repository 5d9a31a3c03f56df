// Package devapi is a local stand-in for the InkySpace REST API. It serves
// the same envelope and routes the client consumes, backed by SQLite.
package devapi

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"inkyspace/internal/auth"
	"inkyspace/internal/logutils"
	"inkyspace/internal/ratelimit"
)

// Prefix is where the API is mounted.
const Prefix = "/api/v1"

const (
	defaultLoginLimit  = 10
	defaultLoginWindow = 15 * time.Minute
	suggestedLimit     = 12
)

type Options struct {
	Version     string
	Sessions    *auth.Sessions
	Mailer      Mailer
	Generator   Generator
	Logger      *logrus.Logger
	CORSOrigins []string
	// LoginLimit caps failed logins per email within LoginWindow. Zero picks
	// the default; a negative value disables the limit.
	LoginLimit  int
	LoginWindow time.Duration
}

type Server struct {
	db        *sql.DB
	sessions  *auth.Sessions
	logins    *ratelimit.Attempts
	mail      Mailer
	generator Generator
	log       *logrus.Logger
	version   string
	origins   []string
	now       func() time.Time
}

func New(database *sql.DB, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logutils.Log
	}
	if opts.Mailer == nil {
		opts.Mailer = LogMailer{Log: opts.Logger}
	}
	if opts.Generator == nil {
		opts.Generator = OutlineGenerator{}
	}
	if opts.Sessions == nil {
		opts.Sessions = auth.NewSessions("inky-dev-secret", 0)
	}
	if opts.LoginLimit == 0 {
		opts.LoginLimit = defaultLoginLimit
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = defaultLoginWindow
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		db:        database,
		sessions:  opts.Sessions,
		logins:    ratelimit.NewAttempts(opts.LoginLimit, opts.LoginWindow),
		mail:      opts.Mailer,
		generator: opts.Generator,
		log:       opts.Logger,
		version:   opts.Version,
		origins:   opts.CORSOrigins,
		now:       time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logutils.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route(Prefix, func(r chi.Router) {
		r.Use(s.loadSession)
		r.Get("/status", s.status)
		r.Route("/auth", s.authRoutes)
		r.Route("/user", s.userRoutes)
		r.Route("/space", s.spaceRoutes)
		r.Get("/tags/list", s.listTags)
		r.Route("/thread", func(r chi.Router) {
			s.threadRoutes(r)
			s.commentRoutes(r)
		})
		r.Route("/invite", s.inviteRoutes)
		r.Post("/gemini/generate/thread-content", s.generateThreadContent)
	})
	return r
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeData(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   s.version,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}
