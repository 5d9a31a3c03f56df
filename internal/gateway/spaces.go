package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"inkyspace/internal/access"
	"inkyspace/internal/api"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/state"
)

type spaceModel struct {
	Space     *models.Space                    `json:"space"`
	Outcome   string                           `json:"outcome"`
	Message   string                           `json:"message,omitempty"`
	Threads   *listModel[models.ThreadPreview] `json:"threads,omitempty"`
	CanManage bool                             `json:"canManage"`
}

func (s *Server) spaceRoutes(r chi.Router) {
	r.Get("/new", s.newSpacePage)
	r.Post("/new", s.createSpace)
	r.Get("/view/{spaceID}", s.viewSpace)
	r.Post("/view/{spaceID}/subscribe", s.subscribeSpace)
	r.Post("/view/{spaceID}/unsubscribe", s.unsubscribeSpace)
	r.Post("/view/{spaceID}/newsletter", s.toggleNewsletter)
}

func (s *Server) explore(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	feed, err := loadList(r.Context(), func(ctx context.Context, p models.PageRequest) (models.Page[models.ThreadPreview], error) {
		return v.api.Threads.Explore(ctx, search, p)
	}, api.ThreadPageSize, pageCount(r))
	if err != nil {
		s.fail(w, r, "explore", err)
		return
	}
	s.render(w, r, http.StatusOK, "explore", map[string]any{"search": search, "threads": feed})
}

// viewSpace gates the Space for the visitor. Redirect outcomes answer with
// 302; a denied private Space renders its message with subscribe controls.
func (s *Server) viewSpace(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	spaceID := chi.URLParam(r, "spaceID")
	ev, err := access.NewGate(v.api.Spaces).Evaluate(r.Context(), v.viewer(), spaceID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"space_id": spaceID, "error": err}).Warn("space gating failed")
	}
	s.renderSpace(w, r, ev)
}

func (s *Server) renderSpace(w http.ResponseWriter, r *http.Request, ev access.Evaluation) {
	v := visitFrom(r.Context())
	switch ev.Outcome {
	case access.RedirectExplore, access.RedirectLogin:
		s.redirect(w, r, ev.Location)
		return
	}
	m := spaceModel{Space: ev.Space, Outcome: ev.Outcome.String(), Message: ev.Message}
	if viewer := v.viewer(); viewer.Role == models.RoleAdmin || (viewer.Role == models.RoleOwner && viewer.UserID == ev.Space.OwnerID) {
		m.CanManage = true
	}
	if ev.Outcome == access.Allow {
		spaceID := ev.Space.SpaceID
		threads, err := loadList(r.Context(), func(ctx context.Context, p models.PageRequest) (models.Page[models.ThreadPreview], error) {
			return v.api.Spaces.Threads(ctx, spaceID, p)
		}, api.ThreadPageSize, pageCount(r))
		if err != nil {
			s.fail(w, r, "space", err)
			return
		}
		m.Threads = &threads
	}
	s.render(w, r, http.StatusOK, "space", m)
}

func (s *Server) subscribeSpace(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	ev, err := access.NewGate(v.api.Spaces).Subscribe(r.Context(), v.viewer(), chi.URLParam(r, "spaceID"))
	if err != nil {
		s.fail(w, r, "space", err)
		return
	}
	if ev.Outcome == access.Allow || ev.Outcome == access.Deny {
		v.notes.Push(notify.Success, "Subscribed to "+ev.Space.Title)
	}
	s.renderSpace(w, r, ev)
}

// loadSpace fetches a Space with the visitor's subscription flags.
func (s *Server) loadSpace(ctx context.Context, v *visit, spaceID string) (models.Space, error) {
	sp, err := v.api.Spaces.Get(ctx, spaceID)
	if err != nil {
		return models.Space{}, err
	}
	st, err := v.api.Spaces.SubscriptionStatus(ctx, spaceID)
	if err != nil {
		return models.Space{}, err
	}
	sp.IsSubscribed, sp.IsNewsletter = st.IsSubscribed, st.IsNewsletter
	return *sp, nil
}

func (s *Server) unsubscribeSpace(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	sp, err := s.loadSpace(r.Context(), v, chi.URLParam(r, "spaceID"))
	if err != nil {
		s.fail(w, r, "space", err)
		return
	}
	sp, err = state.SetSubscription(r.Context(), v.api.Spaces, sp, false)
	if err != nil {
		s.fail(w, r, "space", err)
		return
	}
	v.notes.Push(notify.Success, "Unsubscribed from "+sp.Title)
	s.render(w, r, http.StatusOK, "space", spaceModel{Space: &sp, Outcome: access.Allow.String()})
}

func (s *Server) toggleNewsletter(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	sp, err := s.loadSpace(r.Context(), v, chi.URLParam(r, "spaceID"))
	if err != nil {
		s.fail(w, r, "space", err)
		return
	}
	sp, err = state.SwitchNewsletter(r.Context(), v.api.Spaces, sp)
	if err != nil {
		s.fail(w, r, "space", err)
		return
	}
	if sp.IsNewsletter {
		v.notes.Push(notify.Success, "Newsletter enabled for "+sp.Title)
	} else {
		v.notes.Push(notify.Success, "Newsletter disabled for "+sp.Title)
	}
	s.render(w, r, http.StatusOK, "space", spaceModel{Space: &sp, Outcome: access.Allow.String()})
}

func (s *Server) canCreateSpace(w http.ResponseWriter, r *http.Request) bool {
	v := visitFrom(r.Context())
	if !access.For(v.viewer().Role).Can(access.CreateSpace) {
		v.notes.Push(notify.Error, "Your role cannot create spaces.")
		s.render(w, r, http.StatusForbidden, "space-new", nil)
		return false
	}
	return true
}

func (s *Server) newSpacePage(w http.ResponseWriter, r *http.Request) {
	if !s.canCreateSpace(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "space-new", formModel{Fields: []string{"title", "description", "coverImage", "isPrivate"}})
}

func (s *Server) createSpace(w http.ResponseWriter, r *http.Request) {
	if !s.canCreateSpace(w, r) {
		return
	}
	v := visitFrom(r.Context())
	var form models.CreateSpaceData
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "space-new", err)
		return
	}
	id, err := v.api.Spaces.Create(r.Context(), form)
	if err != nil {
		s.fail(w, r, "space-new", err)
		return
	}
	s.redirect(w, r, "/space/view/"+id)
}
