package api

import (
	"context"
	"net/http"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

type InviteService struct {
	c *client.Client
}

func (s *InviteService) Create(ctx context.Context, emails []string) (models.InviteResult, error) {
	var out models.InviteResult
	err := s.c.Post(ctx, "/invite/create", map[string][]string{"emails": emails}, &out)
	return out, err
}

func (s *InviteService) Pending(ctx context.Context) ([]models.Invite, error) {
	out := make([]models.Invite, 0)
	if err := s.c.Get(ctx, "/invite/list/pending", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InviteService) Editors(ctx context.Context) ([]models.Editor, error) {
	out := make([]models.Editor, 0)
	if err := s.c.Get(ctx, "/invite/list/invited-editors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InviteService) Resend(ctx context.Context, inviteID string) error {
	return s.c.Post(ctx, "/invite/resend/"+esc(inviteID), struct{}{}, nil)
}

func (s *InviteService) Delete(ctx context.Context, inviteID string) error {
	return s.c.Delete(ctx, "/invite/delete/"+esc(inviteID), nil)
}

func (s *InviteService) RemoveEditor(ctx context.Context, inviteID string) error {
	return s.c.Delete(ctx, "/invite/delete/editor/"+esc(inviteID), nil)
}

func (s *InviteService) Verify(ctx context.Context, token string) (models.InviteStatus, error) {
	var st models.InviteStatus
	err := s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: "/invite/verify/" + esc(token)}, &st)
	return st, err
}

// Accept registers the invited Editor; the issued session lands in the jar.
func (s *InviteService) Accept(ctx context.Context, token string, data models.AcceptInviteData) error {
	return s.c.Post(ctx, "/invite/accept/"+esc(token), data, nil)
}
