package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

func (s *Server) spaceRoutes(r chi.Router) {
	r.Get("/list/owned-with-subscribers/{ownerID}", s.ownedSpaces)
	r.Get("/list/owned-names/{ownerID}", s.ownedSpaceNames)
	r.Get("/list/threads/{spaceID}", s.spaceThreads)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.With(requireRole(models.RoleOwner, models.RoleAdmin)).Post("/create", s.createSpace)
		r.Put("/update/{spaceID}", s.updateSpace)
		r.Delete("/delete", s.deleteSpace)
		r.Get("/subscription/status/{spaceID}", s.subscriptionStatus)
		r.Get("/stats/subscribers/{spaceID}", s.spaceSubscribers)
		r.Post("/subscribe/{spaceID}", s.subscribe)
		r.Post("/unsubscribe", s.unsubscribe)
		r.Post("/newsletter/{spaceID}", s.toggleNewsletter)
		r.Get("/list/subscribed", s.subscribedSpaces)
		r.Post("/list/suggested", s.suggestedSpaces)
		r.Post("/multi/subscribe", s.multiSubscribe)
	})

	r.Get("/{spaceID}", s.getSpace)
}

type spaceIDRequest struct {
	SpaceID string `json:"spaceId"`
}

// managedSpace loads a space the viewer may change. It writes the error
// response itself and returns nil on failure.
func (s *Server) managedSpace(w http.ResponseWriter, r *http.Request, id string) *models.Space {
	sp, err := db.GetSpace(r.Context(), s.db, strings.TrimSpace(id))
	if err != nil {
		writeStoreError(w, err, "space")
		return nil
	}
	v := currentViewer(r.Context())
	if sp.OwnerID != v.UserID && v.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "only the owner can manage this space")
		return nil
	}
	return sp
}

func (s *Server) createSpace(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSpaceData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "title", Error: "title is required"})
		return
	}
	id, err := db.CreateSpace(r.Context(), s.db, currentUser(r.Context()).UserID, req)
	if err != nil {
		writeStoreError(w, err, "space")
		return
	}
	writeData(w, http.StatusCreated, models.CreatedSpace{SpaceID: id})
}

func (s *Server) updateSpace(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSpaceData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	sp := s.managedSpace(w, r, chi.URLParam(r, "spaceID"))
	if sp == nil {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "title", Error: "title is required"})
		return
	}
	req.SpaceID = sp.SpaceID
	updated, err := db.UpdateSpace(r.Context(), s.db, req)
	if err != nil {
		writeStoreError(w, err, "space")
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *Server) deleteSpace(w http.ResponseWriter, r *http.Request) {
	var req spaceIDRequest
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	sp := s.managedSpace(w, r, req.SpaceID)
	if sp == nil {
		return
	}
	if err := db.DeleteSpace(r.Context(), s.db, sp.SpaceID); err != nil {
		writeStoreError(w, err, "space")
		return
	}
	writeMessage(w, http.StatusOK, "space deleted")
}

func (s *Server) getSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := db.GetSpace(r.Context(), s.db, chi.URLParam(r, "spaceID"))
	if err != nil {
		writeStoreError(w, err, "space")
		return
	}
	writeData(w, http.StatusOK, sp)
}

func (s *Server) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := db.GetSubscription(r.Context(), s.db, chi.URLParam(r, "spaceID"), currentUser(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "subscription")
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) ownedSpaces(w http.ResponseWriter, r *http.Request) {
	list, err := db.ListOwnedSpaces(r.Context(), s.db, chi.URLParam(r, "ownerID"))
	if err != nil {
		writeStoreError(w, err, "spaces")
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) ownedSpaceNames(w http.ResponseWriter, r *http.Request) {
	list, err := db.ListOwnedSpaceNames(r.Context(), s.db, chi.URLParam(r, "ownerID"))
	if err != nil {
		writeStoreError(w, err, "spaces")
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) spaceThreads(w http.ResponseWriter, r *http.Request) {
	page, err := db.ListSpaceThreads(r.Context(), s.db, chi.URLParam(r, "spaceID"), pageParams(r))
	if err != nil {
		writeStoreError(w, err, "threads")
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) spaceSubscribers(w http.ResponseWriter, r *http.Request) {
	sp := s.managedSpace(w, r, chi.URLParam(r, "spaceID"))
	if sp == nil {
		return
	}
	page, err := db.ListSubscribers(r.Context(), s.db, sp.SpaceID, pageParams(r))
	if err != nil {
		writeStoreError(w, err, "subscribers")
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	sp, err := db.GetSpace(r.Context(), s.db, chi.URLParam(r, "spaceID"))
	if err != nil {
		writeStoreError(w, err, "space")
		return
	}
	user := currentUser(r.Context())
	if sp.OwnerID == user.UserID {
		writeError(w, http.StatusBadRequest, "you cannot subscribe to your own space")
		return
	}
	if err := db.Subscribe(r.Context(), s.db, sp.SpaceID, user.UserID, false); err != nil {
		writeStoreError(w, err, "subscription")
		return
	}
	writeData(w, http.StatusOK, models.SubscriptionStatus{IsSubscribed: true})
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req spaceIDRequest
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	err := db.Unsubscribe(r.Context(), s.db, strings.TrimSpace(req.SpaceID), currentUser(r.Context()).UserID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "you are not subscribed to this space")
		return
	}
	if err != nil {
		writeStoreError(w, err, "subscription")
		return
	}
	writeData(w, http.StatusOK, models.SubscriptionStatus{})
}

func (s *Server) toggleNewsletter(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	on, err := db.ToggleNewsletter(r.Context(), s.db, spaceID, currentUser(r.Context()).UserID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscribe to the space before changing newsletters")
		return
	}
	if err != nil {
		writeStoreError(w, err, "subscription")
		return
	}
	writeData(w, http.StatusOK, models.SubscriptionStatus{IsSubscribed: true, IsNewsletter: on})
}

func (s *Server) subscribedSpaces(w http.ResponseWriter, r *http.Request) {
	list, err := db.ListSubscribedSpaces(r.Context(), s.db, currentUser(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "spaces")
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) suggestedSpaces(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	list, err := db.SuggestSpaces(r.Context(), s.db, currentUser(r.Context()).UserID, req.Tags, suggestedLimit)
	if err != nil {
		writeStoreError(w, err, "spaces")
		return
	}
	writeData(w, http.StatusOK, list)
}

// multiSubscribe follows every listed space that exists and is not the
// caller's own; the rest are skipped.
func (s *Server) multiSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Spaces []models.SpaceSelection `json:"spaces"`
	}
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	user := currentUser(r.Context())
	subscribed := 0
	for _, sel := range req.Spaces {
		sp, err := db.GetSpace(r.Context(), s.db, strings.TrimSpace(sel.SpaceID))
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			writeStoreError(w, err, "space")
			return
		}
		if sp.OwnerID == user.UserID {
			continue
		}
		if err := db.Subscribe(r.Context(), s.db, sp.SpaceID, user.UserID, sel.IsNewsletter); err != nil {
			writeStoreError(w, err, "subscription")
			return
		}
		subscribed++
	}
	writeData(w, http.StatusOK, map[string]int{"subscribed": subscribed})
}
