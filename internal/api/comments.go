package api

import (
	"context"
	"net/http"
	"net/url"

	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

type CommentService struct {
	c *client.Client
}

func (s *CommentService) List(ctx context.Context, threadID string, p models.PageRequest) (models.Page[models.Comment], error) {
	var page models.Page[models.Comment]
	err := s.c.Call(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/thread/list/comments/" + esc(threadID) + pageQuery(p, CommentPageSize, nil),
	}, &page)
	return page, err
}

func (s *CommentService) Replies(ctx context.Context, threadID, commentID string, p models.PageRequest) (models.Page[models.Reply], error) {
	var page models.Page[models.Reply]
	err := s.c.Call(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/thread/list/comment/replies/" + esc(threadID) + pageQuery(p, CommentPageSize, url.Values{"parentId": {commentID}}),
	}, &page)
	return page, err
}

// Create comments on a thread and returns the new comment id.
func (s *CommentService) Create(ctx context.Context, threadID, text string) (string, error) {
	var out models.CreatedComment
	if err := s.c.Post(ctx, "/thread/comment/"+esc(threadID), map[string]string{"comment": text}, &out); err != nil {
		return "", err
	}
	return out.CommentID, nil
}

// Reply answers a comment and returns the new reply id.
func (s *CommentService) Reply(ctx context.Context, threadID, parentID, text string) (string, error) {
	var out models.CreatedReply
	q := url.Values{"parentId": {parentID}}
	if err := s.c.Post(ctx, "/thread/comment/reply/"+esc(threadID)+"/?"+q.Encode(), map[string]string{"reply": text}, &out); err != nil {
		return "", err
	}
	return out.ReplyID, nil
}

// Delete removes a comment or a reply; both share one endpoint.
func (s *CommentService) Delete(ctx context.Context, commentID string) error {
	return s.c.Delete(ctx, "/thread/comment/"+esc(commentID), nil)
}
