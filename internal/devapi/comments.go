package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

func (s *Server) commentRoutes(r chi.Router) {
	r.Get("/list/comments/{threadID}", s.listComments)
	r.Get("/list/comment/replies/{threadID}", s.listReplies)
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		// One pattern serves both: a thread id on POST, a comment id on DELETE.
		r.Post("/comment/{id}", s.createComment)
		r.Delete("/comment/{id}", s.deleteComment)
		r.Post("/comment/reply/{threadID}", s.createReply)
	})
}

// publishedThread loads a thread that accepts comments.
func (s *Server) publishedThread(w http.ResponseWriter, r *http.Request, id string) *models.Thread {
	t, err := db.GetThread(r.Context(), s.db, id)
	if err != nil {
		writeStoreError(w, err, "thread")
		return nil
	}
	if t.Status != models.StatusPublished {
		writeError(w, http.StatusNotFound, "thread not found")
		return nil
	}
	return t
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	page, err := db.ListComments(r.Context(), s.db, chi.URLParam(r, "threadID"), pageParams(r))
	if err != nil {
		writeStoreError(w, err, "comments")
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) listReplies(w http.ResponseWriter, r *http.Request) {
	parentID := strings.TrimSpace(r.URL.Query().Get("parentId"))
	if parentID == "" {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "parentId", Error: "parentId is required"})
		return
	}
	page, err := db.ListReplies(r.Context(), s.db, chi.URLParam(r, "threadID"), parentID, pageParams(r))
	if err != nil {
		writeStoreError(w, err, "replies")
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	t := s.publishedThread(w, r, chi.URLParam(r, "id"))
	if t == nil {
		return
	}
	id, err := db.CreateComment(r.Context(), s.db, t.ThreadID, currentUser(r.Context()).UserID, req.Comment)
	if errors.Is(err, db.ErrEmptyComment) {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "comment", Error: err.Error()})
		return
	}
	if err != nil {
		writeStoreError(w, err, "comment")
		return
	}
	writeData(w, http.StatusCreated, models.CreatedComment{CommentID: id})
}

func (s *Server) createReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reply string `json:"reply"`
	}
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	parentID := strings.TrimSpace(r.URL.Query().Get("parentId"))
	if parentID == "" {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "parentId", Error: "parentId is required"})
		return
	}
	t := s.publishedThread(w, r, chi.URLParam(r, "threadID"))
	if t == nil {
		return
	}
	id, err := db.CreateReply(r.Context(), s.db, t.ThreadID, parentID, currentUser(r.Context()).UserID, req.Reply)
	if errors.Is(err, db.ErrEmptyComment) {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "reply", Error: "reply is required"})
		return
	}
	if err != nil {
		writeStoreError(w, err, "comment")
		return
	}
	writeData(w, http.StatusCreated, models.CreatedReply{ReplyID: id})
}

// deleteComment lets the author, the Owner of the thread or an Admin remove
// a comment or reply.
func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	ref, err := db.GetCommentRef(r.Context(), s.db, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "comment")
		return
	}
	v := currentViewer(r.Context())
	if v.UserID != ref.UserID && v.UserID != ref.ThreadOwnerID && v.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "you cannot delete this comment")
		return
	}
	if err := db.DeleteComment(r.Context(), s.db, ref.CommentID); err != nil {
		writeStoreError(w, err, "comment")
		return
	}
	writeMessage(w, http.StatusOK, "comment deleted")
}
