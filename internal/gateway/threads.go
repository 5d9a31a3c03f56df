package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/access"
	"inkyspace/internal/api"
	"inkyspace/internal/client"
	"inkyspace/internal/editor"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/workflow"
)

type threadModel struct {
	Thread     *models.Thread             `json:"thread"`
	Body       string                     `json:"body"`
	StatusText string                     `json:"statusLabel"`
	Actions    []workflow.Action          `json:"actions"`
	CanComment bool                       `json:"canComment"`
	Comments   *listModel[models.Comment] `json:"comments,omitempty"`
}

type threadForm struct {
	Title      string   `json:"title"`
	Markdown   string   `json:"markdown"`
	CoverImage string   `json:"coverImage,omitempty"`
	TagIDs     []string `json:"tags"`
	SpaceID    string   `json:"spaceId"`
}

type threadAction struct {
	Reason string `json:"rejectionReason"`
}

type commentForm struct {
	Comment  string `json:"comment"`
	ParentID string `json:"parentId,omitempty"`
}

func (s *Server) threadRoutes(r chi.Router) {
	r.Get("/new", s.newThreadPage)
	r.Post("/new", s.createThread)
	r.Get("/view/{threadID}", s.viewThread)
	r.Post("/view/{threadID}/{action}", s.threadAction)
}

// loadThread prefers the published view and falls back to the preview a
// signed-in author or approver may see.
func loadThread(ctx context.Context, v *visit, threadID string) (*models.Thread, error) {
	t, err := v.api.Threads.Get(ctx, threadID)
	if err == nil || v.viewer().Anonymous() {
		return t, err
	}
	if apiErr, ok := client.IsAPIError(err); !ok || apiErr.Status != http.StatusNotFound {
		return nil, err
	}
	return v.api.Threads.Preview(ctx, threadID)
}

func (s *Server) viewThread(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	t, err := loadThread(r.Context(), v, chi.URLParam(r, "threadID"))
	if err != nil {
		s.fail(w, r, "thread", err)
		return
	}
	s.renderThread(w, r, t)
}

func (s *Server) renderThread(w http.ResponseWriter, r *http.Request, t *models.Thread) {
	v := visitFrom(r.Context())
	m := threadModel{
		Thread:     t,
		StatusText: t.Status.Label(),
		Actions:    workflow.Actions(*t, v.viewer()),
	}
	if doc, err := editor.Decode(t.Content); err != nil {
		s.log.WithField("thread_id", t.ThreadID).WithError(err).Warn("thread content is not a block document")
		m.Body = t.Content
	} else {
		m.Body = editor.Markdown(doc)
	}
	if m.Actions == nil {
		m.Actions = []workflow.Action{}
	}
	if t.Status == models.StatusPublished {
		m.CanComment = access.For(v.viewer().Role).Can(access.Comment)
		threadID := t.ThreadID
		comments, err := loadList(r.Context(), func(ctx context.Context, p models.PageRequest) (models.Page[models.Comment], error) {
			return v.api.Comments.List(ctx, threadID, p)
		}, api.CommentPageSize, pageCount(r))
		if err != nil {
			s.fail(w, r, "thread", err)
			return
		}
		m.Comments = &comments
	}
	s.render(w, r, http.StatusOK, "thread", m)
}

// threadAction runs one of the lifecycle actions, a comment or an
// interaction against the thread.
func (s *Server) threadAction(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	ctx := r.Context()
	threadID := chi.URLParam(r, "threadID")
	action := chi.URLParam(r, "action")

	switch action {
	case "comment":
		var form commentForm
		if err := decodeForm(r, &form); err != nil {
			s.fail(w, r, "thread", err)
			return
		}
		if err := s.comment(ctx, v, threadID, form); err != nil {
			s.fail(w, r, "thread", err)
			return
		}
		v.notes.Push(notify.Success, "Comment posted.")
	case string(models.InteractionLike), string(models.InteractionUnlike):
		if err := v.api.Threads.Interact(ctx, threadID, models.Interaction(action)); err != nil {
			s.fail(w, r, "thread", err)
			return
		}
	default:
		if !s.lifecycle(w, r, v, threadID, workflow.Action(action)) {
			return
		}
	}
	t, err := loadThread(ctx, v, threadID)
	if err != nil {
		s.fail(w, r, "thread", err)
		return
	}
	s.renderThread(w, r, t)
}

func (s *Server) comment(ctx context.Context, v *visit, threadID string, form commentForm) error {
	text := strings.TrimSpace(form.Comment)
	if text == "" {
		return errors.New("comment cannot be empty")
	}
	if form.ParentID != "" {
		_, err := v.api.Comments.Reply(ctx, threadID, form.ParentID, text)
		return err
	}
	_, err := v.api.Comments.Create(ctx, threadID, text)
	return err
}

// lifecycle applies a workflow action. It reports false when it already
// wrote the response.
func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, v *visit, threadID string, action workflow.Action) bool {
	ctx := r.Context()
	t, err := loadThread(ctx, v, threadID)
	if err != nil {
		s.fail(w, r, "thread", err)
		return false
	}
	if !workflow.Allowed(*t, v.viewer(), action) || action == workflow.ActionEdit {
		v.notes.Push(notify.Error, fmt.Sprintf("You cannot %s this thread.", action))
		s.render(w, r, http.StatusForbidden, "thread", nil)
		return false
	}
	var form threadAction
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "thread", err)
		return false
	}
	switch action {
	case workflow.ActionSubmit:
		err = v.api.Threads.Submit(ctx, threadID)
	case workflow.ActionApprove:
		err = v.api.Threads.Publish(ctx, threadID)
	case workflow.ActionReject:
		err = v.api.Threads.RequestCorrection(ctx, threadID, form.Reason)
	case workflow.ActionDelete:
		if err = v.api.Threads.Delete(ctx, threadID); err == nil {
			s.redirect(w, r, access.ExplorePath)
			return false
		}
	}
	if err != nil {
		s.fail(w, r, "thread", err)
		return false
	}
	next, err := workflow.Apply(*t, action, form.Reason, time.Now())
	if err == nil {
		v.notes.Push(notify.Success, "Thread is now "+next.Status.Label()+".")
	}
	return true
}

func (s *Server) canWriteThreads(w http.ResponseWriter, r *http.Request) bool {
	v := visitFrom(r.Context())
	if !access.For(v.viewer().Role).Can(access.WriteThreads) {
		v.notes.Push(notify.Error, "Only editors can write threads.")
		s.render(w, r, http.StatusForbidden, "thread-new", nil)
		return false
	}
	return true
}

func (s *Server) newThreadPage(w http.ResponseWriter, r *http.Request) {
	if !s.canWriteThreads(w, r) {
		return
	}
	v := visitFrom(r.Context())
	spaces, err := v.api.Spaces.OwnedNames(r.Context(), v.viewer().ParentOwnerID)
	if err != nil {
		s.fail(w, r, "thread-new", err)
		return
	}
	tags, err := v.api.Onboarding.Tags(r.Context())
	if err != nil {
		s.fail(w, r, "thread-new", err)
		return
	}
	s.render(w, r, http.StatusOK, "thread-new", map[string]any{
		"fields": []string{"title", "markdown", "coverImage", "tags", "spaceId"},
		"spaces": spaces,
		"tags":   tags,
	})
}

// createThread stores a Draft written in markdown.
func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	if !s.canWriteThreads(w, r) {
		return
	}
	v := visitFrom(r.Context())
	var form threadForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "thread-new", err)
		return
	}
	content, err := editor.FromMarkdown(form.Markdown, time.Now())
	if err != nil {
		s.fail(w, r, "thread-new", err)
		return
	}
	data := models.ThreadFormData{
		Title:      strings.TrimSpace(form.Title),
		Content:    content,
		CoverImage: form.CoverImage,
		SpaceID:    form.SpaceID,
	}
	for _, id := range form.TagIDs {
		data.Tags = append(data.Tags, models.Tag{ID: id})
	}
	id, err := v.api.Threads.Create(r.Context(), data)
	if err != nil {
		s.fail(w, r, "thread-new", err)
		return
	}
	s.redirect(w, r, "/thread/view/"+id)
}
