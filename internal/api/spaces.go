package api

import (
	"context"
	"net/http"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

type SpaceService struct {
	c *client.Client
}

// Create returns the id of the new Space.
func (s *SpaceService) Create(ctx context.Context, data models.CreateSpaceData) (string, error) {
	var out models.CreatedSpace
	if err := s.c.Post(ctx, "/space/create", data, &out); err != nil {
		return "", err
	}
	return out.SpaceID, nil
}

func (s *SpaceService) Update(ctx context.Context, data models.UpdateSpaceData) (*models.Space, error) {
	var sp models.Space
	if err := s.c.Put(ctx, "/space/update/"+esc(data.SpaceID), data, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *SpaceService) Delete(ctx context.Context, spaceID string) error {
	return s.c.Call(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   "/space/delete",
		Body:   models.CreatedSpace{SpaceID: spaceID},
		Auth:   true,
	}, nil)
}

// Get loads a Space without the caller's session; subscription state comes
// from SubscriptionStatus.
func (s *SpaceService) Get(ctx context.Context, spaceID string) (*models.Space, error) {
	var sp models.Space
	if err := s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: "/space/" + esc(spaceID)}, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *SpaceService) SubscriptionStatus(ctx context.Context, spaceID string) (models.SubscriptionStatus, error) {
	var st models.SubscriptionStatus
	err := s.c.Get(ctx, "/space/subscription/status/"+esc(spaceID), &st)
	return st, err
}

func (s *SpaceService) OwnedWithSubscribers(ctx context.Context, ownerID string) ([]models.OwnedSpace, error) {
	out := make([]models.OwnedSpace, 0)
	err := s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: "/space/list/owned-with-subscribers/" + esc(ownerID)}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SpaceService) OwnedNames(ctx context.Context, ownerID string) ([]models.SpaceName, error) {
	out := make([]models.SpaceName, 0)
	err := s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: "/space/list/owned-names/" + esc(ownerID)}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Threads lists the published threads of a Space.
func (s *SpaceService) Threads(ctx context.Context, spaceID string, p models.PageRequest) (models.Page[models.ThreadPreview], error) {
	var page models.Page[models.ThreadPreview]
	err := s.c.Call(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/space/list/threads/" + esc(spaceID) + pageQuery(p, ThreadPageSize, nil),
	}, &page)
	return page, err
}

func (s *SpaceService) Subscribers(ctx context.Context, spaceID string, p models.PageRequest) (models.Page[models.SpaceSubscriber], error) {
	var page models.Page[models.SpaceSubscriber]
	err := s.c.Get(ctx, "/space/stats/subscribers/"+esc(spaceID)+pageQuery(p, SubscriberPageSize, nil), &page)
	return page, err
}

func (s *SpaceService) Subscribe(ctx context.Context, spaceID string) error {
	return s.c.Post(ctx, "/space/subscribe/"+esc(spaceID), struct{}{}, nil)
}

func (s *SpaceService) Unsubscribe(ctx context.Context, spaceID string) error {
	return s.c.Post(ctx, "/space/unsubscribe", models.CreatedSpace{SpaceID: spaceID}, nil)
}

// ToggleNewsletter flips the newsletter flag server-side.
func (s *SpaceService) ToggleNewsletter(ctx context.Context, spaceID string) error {
	return s.c.Post(ctx, "/space/newsletter/"+esc(spaceID), struct{}{}, nil)
}

func (s *SpaceService) Subscribed(ctx context.Context) ([]models.SubscribedSpace, error) {
	out := make([]models.SubscribedSpace, 0)
	if err := s.c.Get(ctx, "/space/list/subscribed", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tags lists the tags a thread may carry.
func (s *SpaceService) Tags(ctx context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0)
	if err := s.c.Get(ctx, "/tags/list", &out); err != nil {
		return nil, err
	}
	return out, nil
}
