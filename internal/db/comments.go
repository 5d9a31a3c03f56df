package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkyspace/internal/models"
)

var ErrEmptyComment = errors.New("comment is required")

// CommentRef locates a comment or reply for permission checks.
type CommentRef struct {
	CommentID     string
	ThreadID      string
	ParentID      string
	UserID        string
	ThreadOwnerID string
}

func CreateComment(ctx context.Context, database *sql.DB, threadID, userID, body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyComment
	}
	id := uuid.NewString()
	_, err := database.ExecContext(ctx, `
INSERT INTO comments (id, thread_id, user_id, body, created)
VALUES (?, ?, ?, ?, ?)`, id, threadID, userID, body, nowRFC3339())
	if err != nil {
		return "", err
	}
	return id, nil
}

// CreateReply answers a top-level comment of the same thread.
func CreateReply(ctx context.Context, database *sql.DB, threadID, parentID, userID, body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyComment
	}
	id := uuid.NewString()
	res, err := database.ExecContext(ctx, `
INSERT INTO comments (id, thread_id, parent_id, user_id, body, created)
SELECT ?, thread_id, id, ?, ?, ?
FROM comments
WHERE id = ? AND thread_id = ? AND parent_id IS NULL`, id, userID, body, nowRFC3339(), parentID, threadID)
	if err := expectAffected(res, err); err != nil {
		return "", err
	}
	return id, nil
}

func GetCommentRef(ctx context.Context, database *sql.DB, id string) (*CommentRef, error) {
	ref := &CommentRef{}
	err := database.QueryRowContext(ctx, `
SELECT c.id, c.thread_id, COALESCE(c.parent_id, ''), c.user_id, t.owner_id
FROM comments c
JOIN threads t ON t.id = c.thread_id
WHERE c.id = ?`, id).Scan(&ref.CommentID, &ref.ThreadID, &ref.ParentID, &ref.UserID, &ref.ThreadOwnerID)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// DeleteComment removes a comment or reply; replies of a comment go with it.
func DeleteComment(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id))
}

func ListComments(ctx context.Context, database *sql.DB, threadID string, p PageParams) (models.Page[models.Comment], error) {
	limit, offset, err := p.window()
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	var total int
	if err := database.QueryRowContext(ctx, `
SELECT COUNT(1) FROM comments WHERE thread_id = ? AND parent_id IS NULL`, threadID).Scan(&total); err != nil {
		return models.Page[models.Comment]{}, err
	}
	rows, err := database.QueryContext(ctx, `
SELECT c.id, c.thread_id, u.id, u.name, COALESCE(u.avatar, ''), c.created, c.body,
       (SELECT COUNT(1) FROM comments r WHERE r.parent_id = c.id)
FROM comments c
JOIN users u ON u.id = c.user_id
WHERE c.thread_id = ? AND c.parent_id IS NULL
ORDER BY c.created DESC, c.rowid DESC
LIMIT ? OFFSET ?`, threadID, limit, offset)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	defer rows.Close()

	list := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.CommentID, &c.ThreadID, &c.UserID, &c.UserName, &c.UserAvatar, &c.CreatedOn, &c.Comment, &c.Replies); err != nil {
			return models.Page[models.Comment]{}, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Comment]{}, err
	}
	return pageOf(list, offset, total), nil
}

func ListReplies(ctx context.Context, database *sql.DB, threadID, parentID string, p PageParams) (models.Page[models.Reply], error) {
	limit, offset, err := p.window()
	if err != nil {
		return models.Page[models.Reply]{}, err
	}
	var total int
	if err := database.QueryRowContext(ctx, `
SELECT COUNT(1) FROM comments WHERE thread_id = ? AND parent_id = ?`, threadID, parentID).Scan(&total); err != nil {
		return models.Page[models.Reply]{}, err
	}
	rows, err := database.QueryContext(ctx, `
SELECT c.id, c.thread_id, c.parent_id, u.id, u.name, COALESCE(u.avatar, ''), c.created, c.body
FROM comments c
JOIN users u ON u.id = c.user_id
WHERE c.thread_id = ? AND c.parent_id = ?
ORDER BY c.created ASC, c.rowid ASC
LIMIT ? OFFSET ?`, threadID, parentID, limit, offset)
	if err != nil {
		return models.Page[models.Reply]{}, err
	}
	defer rows.Close()

	list := make([]models.Reply, 0)
	for rows.Next() {
		var r models.Reply
		if err := rows.Scan(&r.CommentID, &r.ThreadID, &r.ParentID, &r.UserID, &r.UserName, &r.UserAvatar, &r.CreatedOn, &r.Reply); err != nil {
			return models.Page[models.Reply]{}, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Reply]{}, err
	}
	return pageOf(list, offset, total), nil
}
