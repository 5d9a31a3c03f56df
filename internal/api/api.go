// Package api holds typed wrappers for each InkySpace REST resource. Every
// call funnels through client.Client and its response envelope.
package api

import (
	"net/url"
	"strconv"
	"strings"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

// Page sizes used when a PageRequest leaves PageSize unset.
const (
	ThreadPageSize     = 5
	CommentPageSize    = 5
	SubscriberPageSize = 10
)

type Client struct {
	http *client.Client

	Auth       *AuthService
	Users      *UserService
	Spaces     *SpaceService
	Threads    *ThreadService
	Comments   *CommentService
	Invites    *InviteService
	Onboarding *OnboardingService
}

func New(c *client.Client) *Client {
	return &Client{
		http:       c,
		Auth:       &AuthService{c: c},
		Users:      &UserService{c: c},
		Spaces:     &SpaceService{c: c},
		Threads:    &ThreadService{c: c},
		Comments:   &CommentService{c: c},
		Invites:    &InviteService{c: c},
		Onboarding: &OnboardingService{c: c},
	}
}

func (c *Client) HTTP() *client.Client {
	return c.http
}

func pageQuery(p models.PageRequest, def int, extra url.Values) string {
	q := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				q.Add(k, v)
			}
		}
	}
	size := p.PageSize
	if size <= 0 {
		size = def
	}
	q.Set("pageSize", strconv.Itoa(size))
	if p.Token != "" {
		q.Set("nextPagetoken", p.Token)
	}
	return "?" + q.Encode()
}

func esc(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
