package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/auth"
	"inkyspace/internal/db"
	"inkyspace/internal/models"
)

func (s *Server) inviteRoutes(r chi.Router) {
	r.Get("/verify/{token}", s.verifyInvite)
	r.Post("/accept/{token}", s.acceptInvite)
	r.Group(func(r chi.Router) {
		r.Use(requireRole(models.RoleOwner))
		r.Post("/create", s.createInvites)
		r.Get("/list/pending", s.pendingInvites)
		r.Get("/list/invited-editors", s.invitedEditors)
		r.Post("/resend/{inviteID}", s.resendInvite)
		r.Delete("/delete/{inviteID}", s.deleteInvite)
		r.Delete("/delete/editor/{inviteID}", s.removeEditor)
	})
}

// normalizeEmails trims, lowercases and dedupes, dropping blanks.
func normalizeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// createInvites invites each address separately; addresses that are invalid,
// already invited or already registered count as failed.
func (s *Server) createInvites(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []string `json:"emails"`
	}
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	emails := normalizeEmails(req.Emails)
	if len(emails) == 0 {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "emails", Error: "add at least one email to invite editors"})
		return
	}

	owner := currentUser(r.Context())
	var result models.InviteResult
	for _, email := range emails {
		if !validEmail(email) {
			result.Failed++
			continue
		}
		token, err := auth.GenerateToken(auth.InviteTokenPrefix)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create invite")
			return
		}
		_, err = db.CreateInvite(r.Context(), s.db, owner.UserID, email, auth.HashToken(token))
		if errors.Is(err, db.ErrConflict) {
			result.Failed++
			continue
		}
		if err != nil {
			writeStoreError(w, err, "invite")
			return
		}
		if err := s.mail.Send(r.Context(), Mail{Kind: MailInvite, To: email, Token: token, From: owner.Name}); err != nil {
			s.log.WithError(err).Warn("invite mail failed")
		}
		result.Invited++
	}
	result.Success = result.Invited > 0
	writeData(w, http.StatusOK, result)
}

func (s *Server) pendingInvites(w http.ResponseWriter, r *http.Request) {
	list, err := db.ListPendingInvites(r.Context(), s.db, currentUser(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "invites")
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) invitedEditors(w http.ResponseWriter, r *http.Request) {
	list, err := db.ListEditors(r.Context(), s.db, currentUser(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, err, "editors")
		return
	}
	writeData(w, http.StatusOK, list)
}

// ownInvite loads an invite sent by the current Owner.
func (s *Server) ownInvite(w http.ResponseWriter, r *http.Request) *db.InviteRef {
	ref, err := db.GetInvite(r.Context(), s.db, chi.URLParam(r, "inviteID"))
	if err != nil {
		writeStoreError(w, err, "invite")
		return nil
	}
	if ref.OwnerID != currentUser(r.Context()).UserID {
		writeError(w, http.StatusNotFound, "invite not found")
		return nil
	}
	return ref
}

func (s *Server) resendInvite(w http.ResponseWriter, r *http.Request) {
	ref := s.ownInvite(w, r)
	if ref == nil {
		return
	}
	if ref.IsAccepted {
		writeError(w, http.StatusConflict, db.ErrInviteAccepted.Error())
		return
	}
	token, err := auth.GenerateToken(auth.InviteTokenPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resend invite")
		return
	}
	if err := db.RefreshInviteToken(r.Context(), s.db, ref.InviteID, auth.HashToken(token)); err != nil {
		writeStoreError(w, err, "invite")
		return
	}
	owner := currentUser(r.Context())
	if err := s.mail.Send(r.Context(), Mail{Kind: MailInvite, To: ref.Email, Token: token, From: owner.Name}); err != nil {
		s.log.WithError(err).Warn("invite mail failed")
	}
	writeMessage(w, http.StatusOK, "invite sent again")
}

func (s *Server) deleteInvite(w http.ResponseWriter, r *http.Request) {
	ref := s.ownInvite(w, r)
	if ref == nil {
		return
	}
	if ref.IsAccepted {
		writeError(w, http.StatusConflict, "the invite was accepted; remove the editor instead")
		return
	}
	if err := db.DeleteInvite(r.Context(), s.db, ref.InviteID); err != nil {
		writeStoreError(w, err, "invite")
		return
	}
	writeMessage(w, http.StatusOK, "invite deleted")
}

func (s *Server) removeEditor(w http.ResponseWriter, r *http.Request) {
	ref := s.ownInvite(w, r)
	if ref == nil {
		return
	}
	if err := db.RemoveEditor(r.Context(), s.db, ref.InviteID); err != nil {
		writeStoreError(w, err, "editor")
		return
	}
	writeMessage(w, http.StatusOK, "editor removed")
}

func (s *Server) verifyInvite(w http.ResponseWriter, r *http.Request) {
	ref, err := db.GetInviteByToken(r.Context(), s.db, auth.HashToken(chi.URLParam(r, "token")))
	if err != nil {
		writeStoreError(w, err, "invite")
		return
	}
	writeData(w, http.StatusOK, models.InviteStatus{IsAccepted: ref.IsAccepted})
}

// acceptInvite registers the invited Editor and logs them in.
func (s *Server) acceptInvite(w http.ResponseWriter, r *http.Request) {
	var req models.AcceptInviteData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	var errs []fieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, fieldError{Property: "name", Error: "name is required"})
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		errs = append(errs, fieldError{Property: "password", Error: err.Error()})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, http.StatusBadRequest, errs...)
		return
	}

	user, err := db.AcceptInvite(r.Context(), s.db, auth.HashToken(chi.URLParam(r, "token")), req.Name, hash)
	switch {
	case errors.Is(err, db.ErrInviteAccepted):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeStoreError(w, err, "invite")
		return
	}
	if _, err := s.issueSession(w, user.UserID, user.Role, 0); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"user": user})
}
