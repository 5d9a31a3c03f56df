package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkyspace/internal/models"
)

const threadColumns = `
t.id, t.space_id, t.owner_id, t.editor_id, t.title, t.content, COALESCE(t.cover_image, ''), t.status,
t.created, t.updated, COALESCE(t.published, ''), COALESCE(t.rejection_reason, ''),
o.name, COALESCE(o.avatar, ''), e.name, COALESCE(e.avatar, ''), s.title, COALESCE(s.cover_image, ''),
(SELECT COUNT(1) FROM subscriptions sub WHERE sub.space_id = t.space_id),
(SELECT COUNT(1) FROM interactions i WHERE i.thread_id = t.id)`

const threadFrom = `
FROM threads t
JOIN users o  ON o.id = t.owner_id
JOIN users e  ON e.id = t.editor_id
JOIN spaces s ON s.id = t.space_id`

const previewColumns = `
t.id, t.space_id, t.owner_id, t.editor_id, t.title, COALESCE(t.cover_image, ''), t.status,
t.created, COALESCE(t.published, ''), COALESCE(t.rejection_reason, ''), e.name, s.title`

func scanThread(row rowScanner) (models.Thread, error) {
	var t models.Thread
	err := row.Scan(
		&t.ThreadID, &t.SpaceID, &t.OwnerID, &t.EditorID, &t.Title, &t.Content, &t.CoverImage, &t.Status,
		&t.CreatedOn, &t.UpdatedOn, &t.PublishedOn, &t.RejectionReason,
		&t.OwnerDetails.Name, &t.OwnerDetails.Avatar, &t.EditorDetails.Name, &t.EditorDetails.Avatar,
		&t.SpaceDetails.Title, &t.SpaceDetails.CoverImage, &t.SubscribersCount, &t.InteractionsCount,
	)
	return t, err
}

func scanPreview(row rowScanner) (models.ThreadPreview, error) {
	var p models.ThreadPreview
	err := row.Scan(
		&p.ThreadID, &p.SpaceID, &p.OwnerID, &p.EditorID, &p.Title, &p.CoverImage, &p.Status,
		&p.CreatedOn, &p.PublishedOn, &p.RejectionReason, &p.EditorName, &p.SpaceTitle,
	)
	return p, err
}

// CreateThread stores a Draft written by editorID in a space owned by
// ownerID.
func CreateThread(ctx context.Context, database *sql.DB, editorID, ownerID string, form models.ThreadFormData) (string, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return "", errors.New("title is required")
	}
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	now := nowRFC3339()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO threads (id, space_id, owner_id, editor_id, title, content, cover_image, status, created, updated)
VALUES (?, ?, ?, ?, ?, ?, ?, 'D', ?, ?)`,
		id, form.SpaceID, ownerID, editorID, title, form.Content, nullableString(form.CoverImage), now, now); err != nil {
		return "", err
	}
	if err := replaceThreadTagsTx(ctx, tx, id, form.Tags); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateThread replaces the editable fields and tags of a thread.
func UpdateThread(ctx context.Context, database *sql.DB, id string, form models.ThreadFormData, ownerID string) error {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return errors.New("title is required")
	}
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := expectAffected(tx.ExecContext(ctx, `
UPDATE threads SET title = ?, content = ?, cover_image = ?, space_id = ?, owner_id = ?, updated = ?
WHERE id = ?`,
		title, form.Content, nullableString(form.CoverImage), form.SpaceID, ownerID, nowRFC3339(), id)); err != nil {
		return err
	}
	if err := replaceThreadTagsTx(ctx, tx, id, form.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveThreadState persists the lifecycle fields of t.
func SaveThreadState(ctx context.Context, database *sql.DB, t models.Thread) error {
	return expectAffected(database.ExecContext(ctx, `
UPDATE threads SET status = ?, rejection_reason = ?, updated = ?, published = ?
WHERE id = ?`,
		string(t.Status), nullableString(t.RejectionReason), t.UpdatedOn, nullableString(t.PublishedOn), t.ThreadID))
}

func DeleteThread(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id))
}

func GetThread(ctx context.Context, database *sql.DB, id string) (*models.Thread, error) {
	t, err := scanThread(database.QueryRowContext(ctx, `SELECT `+threadColumns+threadFrom+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, err
	}
	if t.Tags, err = threadTags(ctx, database, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func listThreads(ctx context.Context, database *sql.DB, where string, args ...any) ([]models.Thread, error) {
	rows, err := database.QueryContext(ctx, `SELECT `+threadColumns+threadFrom+`
WHERE `+where+`
ORDER BY t.updated DESC, t.rowid DESC`, args...)
	if err != nil {
		return nil, err
	}
	out := make([]models.Thread, 0)
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Tags, err = threadTags(ctx, database, out[i].ThreadID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListEditorThreads returns every thread written by the editor.
func ListEditorThreads(ctx context.Context, database *sql.DB, editorID string) ([]models.Thread, error) {
	return listThreads(ctx, database, `t.editor_id = ?`, editorID)
}

// ListPendingThreads returns threads awaiting approval that the viewer
// either reviews (Owner) or wrote (Editor).
func ListPendingThreads(ctx context.Context, database *sql.DB, viewer models.Viewer) ([]models.Thread, error) {
	switch viewer.Role {
	case models.RoleOwner:
		return listThreads(ctx, database, `t.status = 'A' AND t.owner_id = ?`, viewer.UserID)
	case models.RoleEditor:
		return listThreads(ctx, database, `t.status = 'A' AND t.editor_id = ?`, viewer.UserID)
	case models.RoleAdmin:
		return listThreads(ctx, database, `t.status = 'A'`)
	default:
		return []models.Thread{}, nil
	}
}

func listPreviews(ctx context.Context, database *sql.DB, p PageParams, where string, args ...any) (models.Page[models.ThreadPreview], error) {
	limit, offset, err := p.window()
	if err != nil {
		return models.Page[models.ThreadPreview]{}, err
	}
	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1)`+threadFrom+` WHERE `+where, args...).Scan(&total); err != nil {
		return models.Page[models.ThreadPreview]{}, err
	}
	rows, err := database.QueryContext(ctx, `SELECT `+previewColumns+threadFrom+`
WHERE `+where+`
ORDER BY t.published DESC, t.rowid DESC
LIMIT ? OFFSET ?`, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return models.Page[models.ThreadPreview]{}, err
	}
	list := make([]models.ThreadPreview, 0)
	for rows.Next() {
		pv, err := scanPreview(rows)
		if err != nil {
			rows.Close()
			return models.Page[models.ThreadPreview]{}, err
		}
		list = append(list, pv)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return models.Page[models.ThreadPreview]{}, err
	}
	for i := range list {
		if list[i].Tags, err = threadTags(ctx, database, list[i].ThreadID); err != nil {
			return models.Page[models.ThreadPreview]{}, err
		}
	}
	return pageOf(list, offset, total), nil
}

// ListSpaceThreads pages through the published threads of a space.
func ListSpaceThreads(ctx context.Context, database *sql.DB, spaceID string, p PageParams) (models.Page[models.ThreadPreview], error) {
	return listPreviews(ctx, database, p, `t.status = 'P' AND t.space_id = ?`, spaceID)
}

// ListOwnerThreads pages through the published threads in an owner's
// public spaces.
func ListOwnerThreads(ctx context.Context, database *sql.DB, ownerID string, p PageParams) (models.Page[models.ThreadPreview], error) {
	return listPreviews(ctx, database, p, `t.status = 'P' AND s.is_private = 0 AND t.owner_id = ?`, ownerID)
}

// ExploreThreads pages through published threads of public spaces, matching
// search against titles when it is not blank.
func ExploreThreads(ctx context.Context, database *sql.DB, search string, p PageParams) (models.Page[models.ThreadPreview], error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return listPreviews(ctx, database, p, `t.status = 'P' AND s.is_private = 0`)
	}
	return listPreviews(ctx, database, p, `t.status = 'P' AND s.is_private = 0 AND t.title LIKE ? ESCAPE '\'`, "%"+escapeLike(search)+"%")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Interact records or removes a like.
func Interact(ctx context.Context, database *sql.DB, threadID, userID string, kind models.Interaction) error {
	switch kind {
	case models.InteractionLike:
		_, err := database.ExecContext(ctx, `
INSERT OR IGNORE INTO interactions (thread_id, user_id, created) VALUES (?, ?, ?)`, threadID, userID, nowRFC3339())
		return err
	case models.InteractionUnlike:
		_, err := database.ExecContext(ctx, `DELETE FROM interactions WHERE thread_id = ? AND user_id = ?`, threadID, userID)
		return err
	default:
		return errors.New("unknown interaction")
	}
}

func ListInteractions(ctx context.Context, database *sql.DB, threadID string) (models.Page[models.ThreadInteraction], error) {
	rows, err := database.QueryContext(ctx, `
SELECT i.thread_id, u.id, u.name, COALESCE(u.avatar, '')
FROM interactions i
JOIN users u ON u.id = i.user_id
WHERE i.thread_id = ?
ORDER BY i.created DESC, i.rowid DESC`, threadID)
	if err != nil {
		return models.Page[models.ThreadInteraction]{}, err
	}
	defer rows.Close()

	list := make([]models.ThreadInteraction, 0)
	for rows.Next() {
		ti := models.ThreadInteraction{Interaction: models.InteractionLike}
		if err := rows.Scan(&ti.ThreadID, &ti.UserID, &ti.UserName, &ti.UserAvatar); err != nil {
			return models.Page[models.ThreadInteraction]{}, err
		}
		list = append(list, ti)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.ThreadInteraction]{}, err
	}
	return pageOf(list, 0, len(list)), nil
}
