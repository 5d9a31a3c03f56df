package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
	"inkyspace/internal/workflow"
)

// ErrPromptRequired is returned by Generate for a blank prompt.
var ErrPromptRequired = errors.New("describe the thread content to generate")

type ThreadService struct {
	c *client.Client
}

// Create stores a new Draft and returns its id.
func (s *ThreadService) Create(ctx context.Context, form models.ThreadFormData) (string, error) {
	var out models.CreatedThread
	if err := s.c.Post(ctx, "/thread/create", form, &out); err != nil {
		return "", err
	}
	return out.ThreadID, nil
}

func (s *ThreadService) Update(ctx context.Context, data models.ThreadUpdateData) (*models.Thread, error) {
	var t models.Thread
	if err := s.c.Put(ctx, "/thread/update/"+esc(data.ThreadID), data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *ThreadService) Delete(ctx context.Context, threadID string) error {
	return s.c.Delete(ctx, "/thread/delete/"+esc(threadID), nil)
}

// Submit sends a Draft or a Revision back for approval.
func (s *ThreadService) Submit(ctx context.Context, threadID string) error {
	return s.c.Post(ctx, "/thread/send-for-approval/"+esc(threadID), nil, nil)
}

func (s *ThreadService) Publish(ctx context.Context, threadID string) error {
	return s.c.Post(ctx, "/thread/publish/"+esc(threadID), nil, nil)
}

// RequestCorrection rejects a thread awaiting approval. A blank reason is
// refused without a request.
func (s *ThreadService) RequestCorrection(ctx context.Context, threadID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return workflow.ErrReasonRequired
	}
	return s.c.Post(ctx, "/thread/request-correction/"+esc(threadID), map[string]string{"rejectionReason": reason}, nil)
}

// Generate asks the server for a markdown draft written in tone. The
// endpoint answers with the markdown itself, not an envelope.
func (s *ThreadService) Generate(ctx context.Context, prompt, tone string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrPromptRequired
	}
	tone = strings.TrimSpace(tone)
	if tone == "" {
		tone = models.DefaultTone
	}
	return s.c.Text(ctx, client.Request{
		Method:  http.MethodPost,
		Path:    "/gemini/generate/thread-content",
		Body:    models.GenerateThreadData{Prompt: prompt, Tone: tone},
		Headers: map[string]string{"Accept": "text/plain"},
		Auth:    true,
	})
}

// Get loads a published thread for reading.
func (s *ThreadService) Get(ctx context.Context, threadID string) (*models.Thread, error) {
	return s.details(ctx, "/thread/details/"+esc(threadID), false)
}

func (s *ThreadService) ForEdit(ctx context.Context, threadID string) (*models.Thread, error) {
	return s.details(ctx, "/thread/details/edit/"+esc(threadID), true)
}

func (s *ThreadService) Preview(ctx context.Context, threadID string) (*models.Thread, error) {
	return s.details(ctx, "/thread/details/preview/"+esc(threadID), true)
}

func (s *ThreadService) details(ctx context.Context, path string, auth bool) (*models.Thread, error) {
	var t models.Thread
	if err := s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: path, Auth: auth}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Mine lists the logged-in Editor's threads in every status.
func (s *ThreadService) Mine(ctx context.Context) ([]models.Thread, error) {
	out := make([]models.Thread, 0)
	if err := s.c.Get(ctx, "/thread/list/my-threads", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pending lists threads awaiting approval in the viewer's spaces.
func (s *ThreadService) Pending(ctx context.Context) ([]models.Thread, error) {
	out := make([]models.Thread, 0)
	if err := s.c.Get(ctx, "/thread/list/pending-approval", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByOwner lists the published threads across an Owner's spaces.
func (s *ThreadService) ByOwner(ctx context.Context, ownerID string, p models.PageRequest) (models.Page[models.ThreadPreview], error) {
	var page models.Page[models.ThreadPreview]
	err := s.c.Call(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/thread/list/owner/" + esc(ownerID) + pageQuery(p, ThreadPageSize, nil),
	}, &page)
	return page, err
}

// Explore is the public feed of published threads, optionally filtered by a
// search term.
func (s *ThreadService) Explore(ctx context.Context, search string, p models.PageRequest) (models.Page[models.ThreadPreview], error) {
	var page models.Page[models.ThreadPreview]
	err := s.c.Call(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/thread/list/explore" + pageQuery(p, ThreadPageSize, url.Values{"search": {search}}),
	}, &page)
	return page, err
}

func (s *ThreadService) Interact(ctx context.Context, threadID string, kind models.Interaction) error {
	q := url.Values{"interaction": {string(kind)}}
	return s.c.Post(ctx, "/thread/interact/"+esc(threadID)+"?"+q.Encode(), nil, nil)
}

func (s *ThreadService) Interactions(ctx context.Context, threadID string) (models.Page[models.ThreadInteraction], error) {
	var page models.Page[models.ThreadInteraction]
	err := s.c.Get(ctx, "/thread/stats/interactions/"+esc(threadID), &page)
	return page, err
}
