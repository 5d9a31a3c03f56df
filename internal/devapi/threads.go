package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/db"
	"inkyspace/internal/models"
	"inkyspace/internal/workflow"
)

func (s *Server) threadRoutes(r chi.Router) {
	r.Get("/details/{threadID}", s.threadDetails)
	r.Get("/list/owner/{ownerID}", s.ownerThreads)
	r.Get("/list/explore", s.exploreThreads)
	r.Get("/list/tags", s.listTags)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.With(requireRole(models.RoleEditor)).Post("/create", s.createThread)
		r.Put("/update/{threadID}", s.updateThread)
		r.Delete("/delete/{threadID}", s.deleteThread)
		r.Post("/send-for-approval/{threadID}", s.transitionHandler(workflow.ActionSubmit))
		r.Post("/request-correction/{threadID}", s.transitionHandler(workflow.ActionReject))
		r.Post("/publish/{threadID}", s.transitionHandler(workflow.ActionApprove))
		r.Get("/details/edit/{threadID}", s.threadForEdit)
		r.Get("/details/preview/{threadID}", s.threadPreview)
		r.Get("/list/my-threads", s.myThreads)
		r.Get("/list/pending-approval", s.pendingThreads)
		r.Post("/interact/{threadID}", s.interact)
		r.Get("/stats/interactions/{threadID}", s.threadInteractions)
	})
}

func validateThreadForm(form *models.ThreadFormData) []fieldError {
	form.Title = strings.TrimSpace(form.Title)
	form.SpaceID = strings.TrimSpace(form.SpaceID)
	var errs []fieldError
	if form.Title == "" {
		errs = append(errs, fieldError{Property: "title", Error: "title is required"})
	}
	if form.SpaceID == "" {
		errs = append(errs, fieldError{Property: "spaceId", Error: "select a space"})
	}
	return errs
}

// writableSpace checks that an Editor may write into spaceID, which must
// belong to the Owner that invited them.
func (s *Server) writableSpace(w http.ResponseWriter, r *http.Request, spaceID string) *models.Space {
	sp, err := db.GetSpace(r.Context(), s.db, spaceID)
	if errors.Is(err, db.ErrNotFound) {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "spaceId", Error: "space not found"})
		return nil
	}
	if err != nil {
		writeStoreError(w, err, "space")
		return nil
	}
	if sp.OwnerID != currentUser(r.Context()).ParentOwnerID {
		writeError(w, http.StatusForbidden, "you can only write in your owner's spaces")
		return nil
	}
	return sp
}

// loadThread fetches a thread and checks that the viewer may perform action
// on it.
func (s *Server) loadThread(w http.ResponseWriter, r *http.Request, action workflow.Action) *models.Thread {
	t, err := db.GetThread(r.Context(), s.db, chi.URLParam(r, "threadID"))
	if err != nil {
		writeStoreError(w, err, "thread")
		return nil
	}
	if !workflow.Allowed(*t, currentViewer(r.Context()), action) {
		writeError(w, http.StatusForbidden, "you cannot "+string(action)+" this thread")
		return nil
	}
	return t
}

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	var form models.ThreadFormData
	if err := decodeBody(r, &form); err != nil {
		invalidPayload(w)
		return
	}
	if errs := validateThreadForm(&form); len(errs) > 0 {
		writeFieldErrors(w, http.StatusBadRequest, errs...)
		return
	}
	sp := s.writableSpace(w, r, form.SpaceID)
	if sp == nil {
		return
	}
	id, err := db.CreateThread(r.Context(), s.db, currentUser(r.Context()).UserID, sp.OwnerID, form)
	if err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	writeData(w, http.StatusCreated, models.CreatedThread{ThreadID: id})
}

// updateThread replaces the thread's content. Status only moves through the
// lifecycle endpoints, so a status in the payload is ignored.
func (s *Server) updateThread(w http.ResponseWriter, r *http.Request) {
	var req models.ThreadUpdateData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	t := s.loadThread(w, r, workflow.ActionEdit)
	if t == nil {
		return
	}
	form := req.ThreadFormData
	if strings.TrimSpace(form.SpaceID) == "" {
		form.SpaceID = t.SpaceID
	}
	if errs := validateThreadForm(&form); len(errs) > 0 {
		writeFieldErrors(w, http.StatusBadRequest, errs...)
		return
	}
	ownerID := t.OwnerID
	if form.SpaceID != t.SpaceID {
		sp := s.writableSpace(w, r, form.SpaceID)
		if sp == nil {
			return
		}
		ownerID = sp.OwnerID
	}
	if err := db.UpdateThread(r.Context(), s.db, t.ThreadID, form, ownerID); err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	updated, err := db.GetThread(r.Context(), s.db, t.ThreadID)
	if err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *Server) deleteThread(w http.ResponseWriter, r *http.Request) {
	t := s.loadThread(w, r, workflow.ActionDelete)
	if t == nil {
		return
	}
	if err := db.DeleteThread(r.Context(), s.db, t.ThreadID); err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	writeMessage(w, http.StatusOK, "thread deleted")
}

// transitionHandler moves a thread through the approval lifecycle.
func (s *Server) transitionHandler(action workflow.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RejectionReason string `json:"rejectionReason"`
		}
		if err := decodeBody(r, &req); err != nil {
			invalidPayload(w)
			return
		}
		t := s.loadThread(w, r, action)
		if t == nil {
			return
		}
		next, err := workflow.Apply(*t, action, req.RejectionReason, s.now())
		switch {
		case errors.Is(err, workflow.ErrReasonRequired):
			writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "rejectionReason", Error: err.Error()})
			return
		case errors.Is(err, workflow.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "cannot "+string(action)+" a thread that is "+strings.ToLower(t.Status.Label()))
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "failed to update thread")
			return
		}
		if err := db.SaveThreadState(r.Context(), s.db, next); err != nil {
			writeStoreError(w, err, "thread")
			return
		}
		s.log.WithField("thread", t.ThreadID).WithField("action", action).
			WithField("status", next.Status).Debug("thread transition")
		writeData(w, http.StatusOK, next)
	}
}

// canView reports whether the viewer may read an unpublished thread: its
// Editor, the Owner of its space or an Admin.
func canView(t *models.Thread, v models.Viewer) bool {
	if t.Status == models.StatusPublished {
		return true
	}
	if v.Anonymous() {
		return false
	}
	return v.UserID == t.EditorID || v.UserID == t.OwnerID || v.Role == models.RoleAdmin
}

func (s *Server) threadDetails(w http.ResponseWriter, r *http.Request) {
	t, err := db.GetThread(r.Context(), s.db, chi.URLParam(r, "threadID"))
	if err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	if t.Status != models.StatusPublished {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	writeData(w, http.StatusOK, t)
}

func (s *Server) threadForEdit(w http.ResponseWriter, r *http.Request) {
	t := s.loadThread(w, r, workflow.ActionEdit)
	if t == nil {
		return
	}
	writeData(w, http.StatusOK, t)
}

func (s *Server) threadPreview(w http.ResponseWriter, r *http.Request) {
	t, err := db.GetThread(r.Context(), s.db, chi.URLParam(r, "threadID"))
	if err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	if !canView(t, currentViewer(r.Context())) {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	writeData(w, http.StatusOK, t)
}

// myThreads lists the Editor's own threads, optionally narrowed by ?status=.
func (s *Server) myThreads(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if user.Role != models.RoleEditor {
		writeData(w, http.StatusOK, []models.Thread{})
		return
	}
	list, err := db.ListEditorThreads(r.Context(), s.db, user.UserID)
	if err != nil {
		writeStoreError(w, err, "threads")
		return
	}
	status := models.ThreadStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status.Valid() {
		filtered := make([]models.Thread, 0, len(list))
		for _, t := range list {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) pendingThreads(w http.ResponseWriter, r *http.Request) {
	list, err := db.ListPendingThreads(r.Context(), s.db, currentViewer(r.Context()))
	if err != nil {
		writeStoreError(w, err, "threads")
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) ownerThreads(w http.ResponseWriter, r *http.Request) {
	page, err := db.ListOwnerThreads(r.Context(), s.db, chi.URLParam(r, "ownerID"), pageParams(r))
	if err != nil {
		writeStoreError(w, err, "threads")
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) exploreThreads(w http.ResponseWriter, r *http.Request) {
	page, err := db.ExploreThreads(r.Context(), s.db, strings.TrimSpace(r.URL.Query().Get("search")), pageParams(r))
	if err != nil {
		writeStoreError(w, err, "threads")
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) interact(w http.ResponseWriter, r *http.Request) {
	kind := models.Interaction(r.URL.Query().Get("interaction"))
	if kind != models.InteractionLike && kind != models.InteractionUnlike {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "interaction", Error: "interaction must be like or unlike"})
		return
	}
	t, err := db.GetThread(r.Context(), s.db, chi.URLParam(r, "threadID"))
	if err != nil {
		writeStoreError(w, err, "thread")
		return
	}
	if t.Status != models.StatusPublished {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	if err := db.Interact(r.Context(), s.db, t.ThreadID, currentUser(r.Context()).UserID, kind); err != nil {
		writeStoreError(w, err, "interaction")
		return
	}
	writeMessage(w, http.StatusOK, "interaction saved")
}

func (s *Server) threadInteractions(w http.ResponseWriter, r *http.Request) {
	page, err := db.ListInteractions(r.Context(), s.db, chi.URLParam(r, "threadID"))
	if err != nil {
		writeStoreError(w, err, "interactions")
		return
	}
	writeData(w, http.StatusOK, page)
}
