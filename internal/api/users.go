package api

import (
	"context"
	"net/http"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

type UserService struct {
	c *client.Client
}

func (s *UserService) Me(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.Get(ctx, "/user/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.Post(ctx, "/user/update", u, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *UserService) DeleteAccount(ctx context.Context) error {
	if err := s.c.Delete(ctx, "/user/delete", nil); err != nil {
		return err
	}
	s.c.SetSession("")
	return nil
}

func (s *UserService) PublicProfile(ctx context.Context, userID string) (*models.PublicProfile, error) {
	var p models.PublicProfile
	err := s.c.Call(ctx, client.Request{Method: http.MethodGet, Path: "/user/public-profile/" + esc(userID)}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// OwnerInfo returns the Owner who invited the logged-in Editor.
func (s *UserService) OwnerInfo(ctx context.Context) (*models.OwnerDetails, error) {
	var o models.OwnerDetails
	if err := s.c.Get(ctx, "/user/editor/owner-info", &o); err != nil {
		return nil, err
	}
	return &o, nil
}
