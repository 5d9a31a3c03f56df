// Package gateway serves InkySpace pages as JSON page models. The route
// guard runs in front of every page; handlers call the REST API with the
// visitor's own session cookie and compose the results with the access,
// workflow, editor and onboarding packages.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"inkyspace/internal/api"
	"inkyspace/internal/client"
	"inkyspace/internal/guard"
	"inkyspace/internal/logutils"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/state"
)

// maxPages caps how many list pages one page view accumulates.
const maxPages = 5

type Options struct {
	APIURL      string
	APITimeout  time.Duration
	Transport   http.RoundTripper
	CORSOrigins []string
	Logger      *logrus.Logger
	// WorkspaceTTL is how long wizard state of an idle session is kept.
	WorkspaceTTL time.Duration
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// Uploader receives cover and avatar files; nil refuses them.
	Uploader *client.Uploader
}

type Server struct {
	opts       Options
	verifier   *api.Client
	table      guard.RouteTable
	workspaces *workspaces
	log        *logrus.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logutils.Log
	}
	if opts.APITimeout <= 0 {
		opts.APITimeout = 15 * time.Second
	}
	if opts.WorkspaceTTL <= 0 {
		opts.WorkspaceTTL = time.Hour
	}
	c, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:       opts,
		verifier:   api.New(c),
		table:      guard.DefaultTable(),
		workspaces: newWorkspaces(opts.WorkspaceTTL),
		log:        opts.Logger,
	}, nil
}

func newHTTPClient(opts Options) (*client.Client, error) {
	copts := []client.Option{client.WithTimeout(opts.APITimeout)}
	if opts.Transport != nil {
		copts = append(copts, client.WithTransport(opts.Transport))
	}
	c, err := client.New(opts.APIURL, copts...)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	return c, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logutils.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writePage(w, http.StatusNotFound, page{Name: "not-found"})
	})
	r.Use(guard.Middleware(s.verifier.Auth, s.table, s.log))
	r.Use(s.loadVisit)

	r.Get("/", s.landing)
	r.Route("/auth", s.authRoutes)
	r.Get("/explore", s.explore)
	r.Route("/space", s.spaceRoutes)
	r.Route("/thread", s.threadRoutes)
	r.Get("/profile/{userID}", s.profile)
	r.Route("/settings", s.settingsRoutes)
	r.Route("/onboarding", s.onboardingRoutes)
	return r
}

// visit is what one page request works with.
type visit struct {
	api     *api.Client
	session guard.Session
	store   *state.Store
	notes   *notify.Queue
}

func (v *visit) user() *models.User { return v.store.User() }

func (v *visit) viewer() models.Viewer { return v.store.Viewer() }

type visitKey struct{}

func visitFrom(ctx context.Context) *visit {
	v, _ := ctx.Value(visitKey{}).(*visit)
	return v
}

// loadVisit builds an API client carrying the visitor's cookie and loads the
// session user. A user that cannot be loaded is treated as anonymous.
func (s *Server) loadVisit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := newHTTPClient(s.opts)
		if err != nil {
			s.log.WithError(err).Error("build api client")
			writePage(w, http.StatusInternalServerError, page{Name: "error", Messages: unexpected()})
			return
		}
		sess, _ := guard.SessionFrom(r.Context())
		v := &visit{api: api.New(c), session: sess, notes: notify.NewQueue()}
		if sess.LoggedIn && sess.Cookie != "" {
			c.SetSession(sess.Cookie)
			u, err := v.api.Auth.CurrentUser(r.Context())
			if err != nil {
				s.log.WithFields(logrus.Fields{"path": r.URL.Path, "error": err}).Warn("load session user")
			} else {
				v.store = s.workspaces.get(sess.Cookie)
				v.store.Dispatch(state.SetUser(u))
			}
		}
		if v.store == nil {
			v.store = state.NewStore(state.AppState{})
		}
		ctx := state.WithStore(context.WithValue(r.Context(), visitKey{}, v), v.store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type page struct {
	Name     string           `json:"page"`
	Viewer   *models.User     `json:"viewer,omitempty"`
	Data     any              `json:"data,omitempty"`
	Location string           `json:"location,omitempty"`
	Messages []notify.Message `json:"messages,omitempty"`
}

func writePage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

func unexpected() []notify.Message {
	return []notify.Message{{Kind: notify.Error, Text: client.UnexpectedMessage}}
}

// render writes a page for the current visit with its queued messages.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	v := visitFrom(r.Context())
	writePage(w, status, page{Name: name, Viewer: v.user(), Data: data, Messages: v.notes.Active()})
}

// fail reports err on the page. Server-reported errors keep their status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	v := visitFrom(r.Context())
	status := http.StatusBadGateway
	apiErr, isAPI := client.IsAPIError(err)
	switch {
	case isAPI:
		v.notes.FromError(err)
		if apiErr.Status >= 400 {
			status = apiErr.Status
		}
	case errors.Is(err, client.ErrUnexpected):
		v.notes.FromError(err)
	default:
		v.notes.Push(notify.Error, err.Error())
		status = http.StatusBadRequest
	}
	if status >= 500 {
		s.log.WithFields(logrus.Fields{"path": r.URL.Path, "error": err}).Error("page failed")
	}
	s.render(w, r, status, name, nil)
}

// redirect answers form posts with 303 so the browser follows with a GET.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to string) {
	status := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, to, status)
}

func decodeForm(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid form payload: %w", err)
	}
	return nil
}

// pageCount reads ?pages=n, the number of list pages to accumulate.
func pageCount(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("pages"))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxPages)
}

type listModel[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"hasMore"`
	Total   int  `json:"total,omitempty"`
}

// loadList runs a pager for n pages and returns what it accumulated.
func loadList[T any](ctx context.Context, fetch state.FetchFunc[T], size, n int) (listModel[T], error) {
	p := state.NewPager(fetch, size)
	for i := 0; i < n && p.HasMore(); i++ {
		if _, err := p.LoadMore(ctx); err != nil {
			return listModel[T]{}, err
		}
	}
	items := p.Items()
	if items == nil {
		items = []T{}
	}
	return listModel[T]{Items: items, HasMore: p.HasMore(), Total: p.Total()}, nil
}
