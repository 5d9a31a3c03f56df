package devapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/auth"
	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

func (s *Server) userRoutes(r chi.Router) {
	r.Get("/public-profile/{id}", s.publicProfile)
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/me", s.me)
		r.Post("/update", s.updateProfile)
		r.Delete("/delete", s.deleteAccount)
		r.Post("/selected/tags", s.selectTags)
		r.Post("/onboarding", s.completeOnboarding)
		r.With(requireRole(models.RoleEditor)).Get("/editor/owner-info", s.ownerInfo)
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, err := db.GetProfile(r.Context(), s.db, currentUser(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Bio = strings.TrimSpace(req.Bio)
	req.Avatar = strings.TrimSpace(req.Avatar)
	p, err := db.UpdateProfile(r.Context(), s.db, currentUser(r.Context()).UserID, req)
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteUser(r.Context(), s.db, currentUser(r.Context()).UserID); err != nil {
		writeStoreError(w, err, "user")
		return
	}
	http.SetCookie(w, auth.ClearCookie())
	writeMessage(w, http.StatusOK, "account deleted")
}

func (s *Server) publicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := db.GetPublicProfile(r.Context(), s.db, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "user")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) ownerInfo(w http.ResponseWriter, r *http.Request) {
	o, err := db.GetOwnerDetails(r.Context(), s.db, currentUser(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "owner")
		return
	}
	writeData(w, http.StatusOK, o)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) selectTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	if len(req.Tags) == 0 {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "tags", Error: "select at least one tag"})
		return
	}
	if err := db.SetUserTags(r.Context(), s.db, currentUser(r.Context()).UserID, req.Tags); err != nil {
		writeStoreError(w, err, "tags")
		return
	}
	writeMessage(w, http.StatusOK, "tags saved")
}

func (s *Server) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := db.CompleteOnboarding(r.Context(), s.db, currentUser(r.Context()).UserID); err != nil {
		writeStoreError(w, err, "user")
		return
	}
	writeMessage(w, http.StatusOK, "onboarding complete")
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := db.ListTags(r.Context(), s.db)
	if err != nil {
		writeStoreError(w, err, "tags")
		return
	}
	writeData(w, http.StatusOK, tags)
}
