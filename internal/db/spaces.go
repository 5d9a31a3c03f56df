package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkyspace/internal/models"
)

const recentSubscriberCount = 3

const spaceColumns = `
s.id, s.title, s.description, COALESCE(s.cover_image, ''), s.owner_id, u.name, COALESCE(u.avatar, ''),
s.is_private, s.created, COALESCE(s.updated, ''),
(SELECT COUNT(1) FROM subscriptions sub WHERE sub.space_id = s.id),
(SELECT COUNT(1) FROM threads t WHERE t.space_id = s.id AND t.status = 'P')`

const spaceFrom = `
FROM spaces s
JOIN users u ON u.id = s.owner_id`

func scanSpace(row rowScanner) (models.Space, error) {
	var sp models.Space
	err := row.Scan(
		&sp.SpaceID, &sp.Title, &sp.Description, &sp.CoverImage, &sp.OwnerID, &sp.OwnerName, &sp.OwnerAvatar,
		&sp.IsPrivate, &sp.CreatedOn, &sp.UpdatedOn, &sp.Subscribers, &sp.PublishedThreads,
	)
	return sp, err
}

func CreateSpace(ctx context.Context, database *sql.DB, ownerID string, data models.CreateSpaceData) (string, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return "", errors.New("title is required")
	}
	id := uuid.NewString()
	_, err := database.ExecContext(ctx, `
INSERT INTO spaces (id, owner_id, title, description, cover_image, is_private, created)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, title, strings.TrimSpace(data.Description), nullableString(data.CoverImage),
		boolInt(data.IsPrivate), nowRFC3339())
	if err != nil {
		return "", err
	}
	return id, nil
}

func UpdateSpace(ctx context.Context, database *sql.DB, data models.UpdateSpaceData) (*models.Space, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	err := expectAffected(database.ExecContext(ctx, `
UPDATE spaces SET title = ?, description = ?, cover_image = ?, is_private = ?, updated = ?
WHERE id = ?`,
		title, strings.TrimSpace(data.Description), nullableString(data.CoverImage),
		boolInt(data.IsPrivate), nowRFC3339(), data.SpaceID))
	if err != nil {
		return nil, err
	}
	return GetSpace(ctx, database, data.SpaceID)
}

func DeleteSpace(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id))
}

func GetSpace(ctx context.Context, database *sql.DB, id string) (*models.Space, error) {
	sp, err := scanSpace(database.QueryRowContext(ctx, `SELECT `+spaceColumns+spaceFrom+` WHERE s.id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func ListOwnedSpaces(ctx context.Context, database *sql.DB, ownerID string) ([]models.OwnedSpace, error) {
	rows, err := database.QueryContext(ctx, `SELECT `+spaceColumns+spaceFrom+`
WHERE s.owner_id = ?
ORDER BY s.created DESC, s.rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	spaces := make([]models.Space, 0)
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		spaces = append(spaces, sp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]models.OwnedSpace, 0, len(spaces))
	for _, sp := range spaces {
		page, err := ListSubscribers(ctx, database, sp.SpaceID, PageParams{Size: recentSubscriberCount})
		if err != nil {
			return nil, err
		}
		out = append(out, models.OwnedSpace{
			SpaceID:     sp.SpaceID,
			Title:       sp.Title,
			Description: sp.Description,
			CoverImage:  sp.CoverImage,
			IsPrivate:   sp.IsPrivate,
			Subscribers: sp.Subscribers,
			CreatedOn:   sp.CreatedOn,
			Recent:      page.List,
		})
	}
	return out, nil
}

func ListOwnedSpaceNames(ctx context.Context, database *sql.DB, ownerID string) ([]models.SpaceName, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, title FROM spaces
WHERE owner_id = ?
ORDER BY title ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SpaceName, 0)
	for rows.Next() {
		var n models.SpaceName
		if err := rows.Scan(&n.SpaceID, &n.Title); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Subscribe adds the user to the space; an existing subscription is left
// untouched.
func Subscribe(ctx context.Context, database *sql.DB, spaceID, userID string, newsletter bool) error {
	_, err := database.ExecContext(ctx, `
INSERT OR IGNORE INTO subscriptions (space_id, user_id, is_newsletter, subscribed_on)
VALUES (?, ?, ?, ?)`, spaceID, userID, boolInt(newsletter), nowRFC3339())
	return err
}

func Unsubscribe(ctx context.Context, database *sql.DB, spaceID, userID string) error {
	return expectAffected(database.ExecContext(ctx, `
DELETE FROM subscriptions WHERE space_id = ? AND user_id = ?`, spaceID, userID))
}

// ToggleNewsletter flips the newsletter flag and returns the new value.
func ToggleNewsletter(ctx context.Context, database *sql.DB, spaceID, userID string) (bool, error) {
	if err := expectAffected(database.ExecContext(ctx, `
UPDATE subscriptions SET is_newsletter = 1 - is_newsletter
WHERE space_id = ? AND user_id = ?`, spaceID, userID)); err != nil {
		return false, err
	}
	st, err := GetSubscription(ctx, database, spaceID, userID)
	return st.IsNewsletter, err
}

func GetSubscription(ctx context.Context, database *sql.DB, spaceID, userID string) (models.SubscriptionStatus, error) {
	var st models.SubscriptionStatus
	err := database.QueryRowContext(ctx, `
SELECT is_newsletter FROM subscriptions WHERE space_id = ? AND user_id = ?`, spaceID, userID).Scan(&st.IsNewsletter)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SubscriptionStatus{}, nil
	}
	if err != nil {
		return st, err
	}
	st.IsSubscribed = true
	return st, nil
}

func ListSubscribers(ctx context.Context, database *sql.DB, spaceID string, p PageParams) (models.Page[models.SpaceSubscriber], error) {
	limit, offset, err := p.window()
	if err != nil {
		return models.Page[models.SpaceSubscriber]{}, err
	}
	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM subscriptions WHERE space_id = ?`, spaceID).Scan(&total); err != nil {
		return models.Page[models.SpaceSubscriber]{}, err
	}
	rows, err := database.QueryContext(ctx, `
SELECT u.id, u.name, COALESCE(u.avatar, ''), sub.is_newsletter, sub.subscribed_on
FROM subscriptions sub
JOIN users u ON u.id = sub.user_id
WHERE sub.space_id = ?
ORDER BY sub.subscribed_on DESC, sub.rowid DESC
LIMIT ? OFFSET ?`, spaceID, limit, offset)
	if err != nil {
		return models.Page[models.SpaceSubscriber]{}, err
	}
	defer rows.Close()

	list := make([]models.SpaceSubscriber, 0)
	for rows.Next() {
		var s models.SpaceSubscriber
		if err := rows.Scan(&s.UserID, &s.Name, &s.Avatar, &s.IsNewsletter, &s.SubscribedOn); err != nil {
			return models.Page[models.SpaceSubscriber]{}, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.SpaceSubscriber]{}, err
	}
	return pageOf(list, offset, total), nil
}

func ListSubscribedSpaces(ctx context.Context, database *sql.DB, userID string) ([]models.SubscribedSpace, error) {
	rows, err := database.QueryContext(ctx, `SELECT `+spaceColumns+`, me.is_newsletter, me.subscribed_on`+spaceFrom+`
JOIN subscriptions me ON me.space_id = s.id AND me.user_id = ?
ORDER BY me.subscribed_on DESC, me.rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SubscribedSpace, 0)
	for rows.Next() {
		var ss models.SubscribedSpace
		sp := &ss.Space
		if err := rows.Scan(
			&sp.SpaceID, &sp.Title, &sp.Description, &sp.CoverImage, &sp.OwnerID, &sp.OwnerName, &sp.OwnerAvatar,
			&sp.IsPrivate, &sp.CreatedOn, &sp.UpdatedOn, &sp.Subscribers, &sp.PublishedThreads,
			&sp.IsNewsletter, &ss.SubscribedOn,
		); err != nil {
			return nil, err
		}
		sp.IsSubscribed = true
		out = append(out, ss)
	}
	return out, rows.Err()
}

// SuggestSpaces ranks public spaces the user neither owns nor follows by how
// many of their published threads carry one of the tags, then by audience.
func SuggestSpaces(ctx context.Context, database *sql.DB, userID string, tagIDs []string, limit int) ([]models.Space, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	tagIDs = dedupe(tagIDs)
	args := []any{}
	score := "0"
	if len(tagIDs) > 0 {
		score = `(SELECT COUNT(1) FROM threads t JOIN thread_tags tt ON tt.thread_id = t.id
WHERE t.space_id = s.id AND t.status = 'P' AND tt.tag_id IN (?` + strings.Repeat(", ?", len(tagIDs)-1) + `))`
		for _, id := range tagIDs {
			args = append(args, id)
		}
	}
	args = append(args, userID, userID, limit)
	rows, err := database.QueryContext(ctx, `SELECT `+spaceColumns+`, `+score+` AS score`+spaceFrom+`
WHERE s.is_private = 0
  AND s.owner_id <> ?
  AND NOT EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.space_id = s.id AND sub.user_id = ?)
ORDER BY score DESC, 11 DESC, s.created DESC
LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Space, 0)
	for rows.Next() {
		var (
			sp    models.Space
			score int
		)
		if err := rows.Scan(
			&sp.SpaceID, &sp.Title, &sp.Description, &sp.CoverImage, &sp.OwnerID, &sp.OwnerName, &sp.OwnerAvatar,
			&sp.IsPrivate, &sp.CreatedOn, &sp.UpdatedOn, &sp.Subscribers, &sp.PublishedThreads, &score,
		); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}
