package gateway

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/access"
	"inkyspace/internal/api"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/workflow"
)

type settingsModel struct {
	Panel  string   `json:"panel"`
	Panels []string `json:"panels"`
	Data   any      `json:"data,omitempty"`
}

type pendingThread struct {
	models.Thread
	Actions []workflow.Action `json:"actions"`
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	userID := chi.URLParam(r, "userID")
	p, err := v.api.Users.PublicProfile(r.Context(), userID)
	if err != nil {
		s.fail(w, r, "profile", err)
		return
	}
	spaces, err := v.api.Spaces.OwnedNames(r.Context(), userID)
	if err != nil {
		s.fail(w, r, "profile", err)
		return
	}
	threads, err := loadList(r.Context(), func(ctx context.Context, pr models.PageRequest) (models.Page[models.ThreadPreview], error) {
		return v.api.Threads.ByOwner(ctx, userID, pr)
	}, api.ThreadPageSize, pageCount(r))
	if err != nil {
		s.fail(w, r, "profile", err)
		return
	}
	s.render(w, r, http.StatusOK, "profile", map[string]any{"profile": p, "spaces": spaces, "threads": threads})
}

// settings renders one panel. The guard has already checked the panel
// against the role's allow-list.
func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	s.renderPanel(w, r, visitFrom(r.Context()), chi.URLParam(r, "panel"))
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, panel string, data any) {
	v := visitFrom(r.Context())
	s.render(w, r, status, "settings", settingsModel{
		Panel:  panel,
		Panels: access.For(v.viewer().Role).Settings,
		Data:   data,
	})
}

func (s *Server) panelData(r *http.Request, v *visit, panel string) (any, error) {
	ctx := r.Context()
	switch panel {
	case access.SettingsProfile:
		return v.api.Users.Me(ctx)
	case access.SettingsSecurity:
		return formModel{Fields: []string{"currentPassword", "newPassword"}}, nil
	case access.SettingsSubscribedSpaces:
		return v.api.Spaces.Subscribed(ctx)
	case access.SettingsEditorManagement:
		pending, err := v.api.Invites.Pending(ctx)
		if err != nil {
			return nil, err
		}
		editors, err := v.api.Invites.Editors(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"pending": pending, "editors": editors}, nil
	case access.SettingsSpaceManagement:
		return v.api.Spaces.OwnedWithSubscribers(ctx, v.viewer().UserID)
	case access.SettingsThreadApprovals:
		list, err := v.api.Threads.Pending(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]pendingThread, 0, len(list))
		for _, t := range list {
			out = append(out, pendingThread{Thread: t, Actions: workflow.Actions(t, v.viewer())})
		}
		return out, nil
	case access.SettingsOwnerInfo:
		return v.api.Users.OwnerInfo(ctx)
	case access.SettingsThreads:
		list, err := v.api.Threads.Mine(ctx)
		if err != nil {
			return nil, err
		}
		status := models.ThreadStatus(r.URL.Query().Get("status"))
		if status.Valid() {
			list = slices.DeleteFunc(list, func(t models.Thread) bool { return t.Status != status })
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unknown settings panel %q", panel)
	}
}

func (s *Server) settingsRoutes(r chi.Router) {
	r.Get("/{panel}", s.settings)
	r.Post("/profile", s.updateProfile)
	r.Post("/profile/delete", s.deleteAccount)
	r.Post("/space-management/{spaceID}", s.updateSpace)
	r.Post("/security", s.changePassword)
	r.Post("/editor-management", s.inviteEditors)
	r.Post("/editor-management/{action}/{inviteID}", s.manageInvite)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	form, err := s.readProfileUpdate(r)
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	p, err := v.api.Users.UpdateProfile(r.Context(), form)
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	v.notes.Push(notify.Success, "Profile updated.")
	s.renderSettings(w, r, http.StatusOK, access.SettingsProfile, p)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	if err := v.api.Users.DeleteAccount(r.Context()); err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	s.workspaces.drop(v.session.Cookie)
	s.setSessionCookie(w, "")
	s.redirect(w, r, "/")
}

// changePassword hands the reissued session to the browser; every other
// session of the account stops verifying.
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	var form models.PasswordChange
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	if err := v.api.Auth.ChangePassword(r.Context(), form.CurrentPassword, form.NewPassword); err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	if next := v.api.HTTP().Session(); next != "" && next != v.session.Cookie {
		s.workspaces.drop(v.session.Cookie)
		s.setSessionCookie(w, next)
	}
	v.notes.Push(notify.Success, "Password changed.")
	s.renderSettings(w, r, http.StatusOK, access.SettingsSecurity, formModel{Fields: []string{"currentPassword", "newPassword"}})
}

func (s *Server) inviteEditors(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	var form struct {
		Emails []string `json:"emails"`
	}
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	res, err := v.api.Invites.Create(r.Context(), form.Emails)
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	if res.Invited > 0 {
		v.notes.Push(notify.Success, fmt.Sprintf("Invited %d editor(s).", res.Invited))
	}
	if res.Failed > 0 {
		v.notes.Push(notify.Error, fmt.Sprintf("Could not invite %d address(es).", res.Failed))
	}
	s.renderPanel(w, r, v, access.SettingsEditorManagement)
}

func (s *Server) manageInvite(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	id := chi.URLParam(r, "inviteID")
	var err error
	switch action := strings.ToLower(chi.URLParam(r, "action")); action {
	case "resend":
		if err = v.api.Invites.Resend(r.Context(), id); err == nil {
			v.notes.Push(notify.Success, "Invitation sent again.")
		}
	case "delete":
		if err = v.api.Invites.Delete(r.Context(), id); err == nil {
			v.notes.Push(notify.Success, "Invitation deleted.")
		}
	case "remove":
		if err = v.api.Invites.RemoveEditor(r.Context(), id); err == nil {
			v.notes.Push(notify.Success, "Editor removed.")
		}
	default:
		err = fmt.Errorf("unknown invite action %q", action)
	}
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	s.renderPanel(w, r, v, access.SettingsEditorManagement)
}

func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, v *visit, panel string) {
	data, err := s.panelData(r, v, panel)
	if err != nil {
		s.fail(w, r, "settings", err)
		return
	}
	s.renderSettings(w, r, http.StatusOK, panel, data)
}
