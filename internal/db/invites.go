package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkyspace/internal/models"
)

var ErrInviteAccepted = errors.New("invite already accepted")

// InviteRef is the server-side view of an invite.
type InviteRef struct {
	InviteID   string
	OwnerID    string
	Email      string
	IsAccepted bool
	UserID     string
}

// CreateInvite records a pending invite from ownerID to email. Inviting an
// email twice, or one that already has an account, is a conflict.
func CreateInvite(ctx context.Context, database *sql.DB, ownerID, email, tokenHash string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email is required")
	}
	var taken int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&taken); err != nil {
		return "", err
	}
	if taken > 0 {
		return "", ErrConflict
	}
	id := uuid.NewString()
	now := nowRFC3339()
	_, err := database.ExecContext(ctx, `
INSERT INTO invites (id, owner_id, email, token_hash, created, updated)
VALUES (?, ?, ?, ?, ?, ?)`, id, ownerID, email, tokenHash, now, now)
	if isUniqueConstraint(err) {
		return "", ErrConflict
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func ListPendingInvites(ctx context.Context, database *sql.DB, ownerID string) ([]models.Invite, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, email, is_accepted, created, updated
FROM invites
WHERE owner_id = ? AND is_accepted = 0
ORDER BY created DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Invite, 0)
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.InviteID, &inv.UserEmail, &inv.IsAccepted, &inv.CreatedOn, &inv.UpdatedOn); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func ListEditors(ctx context.Context, database *sql.DB, ownerID string) ([]models.Editor, error) {
	rows, err := database.QueryContext(ctx, `
SELECT i.id, u.id, u.name, u.email, COALESCE(u.avatar, ''), i.updated
FROM invites i
JOIN users u ON u.id = i.user_id
WHERE i.owner_id = ? AND i.is_accepted = 1
ORDER BY i.updated DESC, i.rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Editor, 0)
	for rows.Next() {
		var e models.Editor
		if err := rows.Scan(&e.InviteID, &e.UserID, &e.Name, &e.Email, &e.Avatar, &e.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func inviteRef(ctx context.Context, database *sql.DB, where string, arg any) (*InviteRef, error) {
	ref := &InviteRef{}
	err := database.QueryRowContext(ctx, `
SELECT id, owner_id, email, is_accepted, COALESCE(user_id, '')
FROM invites
WHERE `+where, arg).Scan(&ref.InviteID, &ref.OwnerID, &ref.Email, &ref.IsAccepted, &ref.UserID)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func GetInvite(ctx context.Context, database *sql.DB, id string) (*InviteRef, error) {
	return inviteRef(ctx, database, "id = ?", id)
}

func GetInviteByToken(ctx context.Context, database *sql.DB, tokenHash string) (*InviteRef, error) {
	return inviteRef(ctx, database, "token_hash = ?", tokenHash)
}

// RefreshInviteToken swaps the token of a pending invite, as a resend does.
func RefreshInviteToken(ctx context.Context, database *sql.DB, id, tokenHash string) error {
	return expectAffected(database.ExecContext(ctx, `
UPDATE invites SET token_hash = ?, updated = ?
WHERE id = ? AND is_accepted = 0`, tokenHash, nowRFC3339(), id))
}

func DeleteInvite(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `DELETE FROM invites WHERE id = ?`, id))
}

// RemoveEditor deletes the editor account created by an accepted invite.
// The invite row and the editor's threads go with it.
func RemoveEditor(ctx context.Context, database *sql.DB, inviteID string) error {
	ref, err := GetInvite(ctx, database, inviteID)
	if err != nil {
		return err
	}
	if !ref.IsAccepted || ref.UserID == "" {
		return ErrNotFound
	}
	return DeleteUser(ctx, database, ref.UserID)
}

// AcceptInvite creates the Editor account for a pending invite and links it
// to the inviting Owner.
func AcceptInvite(ctx context.Context, database *sql.DB, tokenHash, name, passwordHash string) (*models.User, error) {
	ref, err := GetInviteByToken(ctx, database, tokenHash)
	if err != nil {
		return nil, err
	}
	if ref.IsAccepted {
		return nil, ErrInviteAccepted
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	userID, err := createUserTx(ctx, tx, NewUser{
		Name:          name,
		Email:         ref.Email,
		PasswordHash:  passwordHash,
		Role:          models.RoleEditor,
		Verified:      true,
		ParentOwnerID: ref.OwnerID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE invites SET is_accepted = 1, user_id = ?, updated = ?
WHERE id = ?`, userID, nowRFC3339(), ref.InviteID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET onboard_complete = 1 WHERE id = ?`, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetUser(ctx, database, userID)
}
