package api

import (
	"context"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

// OnboardingService groups the calls the onboarding wizard makes.
type OnboardingService struct {
	c *client.Client
}

func (s *OnboardingService) Tags(ctx context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0)
	if err := s.c.Get(ctx, "/thread/list/tags", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OnboardingService) SubmitTags(ctx context.Context, tagIDs []string) error {
	return s.c.Post(ctx, "/user/selected/tags", map[string][]string{"tags": tagIDs}, nil)
}

func (s *OnboardingService) SuggestedSpaces(ctx context.Context, tagIDs []string) ([]models.Space, error) {
	out := make([]models.Space, 0)
	if err := s.c.Post(ctx, "/space/list/suggested", map[string][]string{"tags": tagIDs}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OnboardingService) Subscribe(ctx context.Context, spaces []models.SpaceSelection) error {
	return s.c.Post(ctx, "/space/multi/subscribe", map[string][]models.SpaceSelection{"spaces": spaces}, nil)
}

func (s *OnboardingService) InviteEditors(ctx context.Context, emails []string) (models.InviteResult, error) {
	var out models.InviteResult
	err := s.c.Post(ctx, "/invite/create", map[string][]string{"emails": emails}, &out)
	return out, err
}

func (s *OnboardingService) Complete(ctx context.Context) error {
	return s.c.Post(ctx, "/user/onboarding", struct{}{}, nil)
}
