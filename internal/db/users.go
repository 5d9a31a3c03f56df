package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkyspace/internal/models"
)

type NewUser struct {
	Name            string
	Email           string
	PasswordHash    string
	Role            models.Role
	Verified        bool
	VerifyTokenHash string
	ParentOwnerID   string
}

// Credentials is the login-relevant part of a user row.
type Credentials struct {
	UserID         string
	Role           models.Role
	PasswordHash   string
	Verified       bool
	SessionVersion int
}

func CreateUser(ctx context.Context, database *sql.DB, nu NewUser) (*models.User, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := createUserTx(ctx, tx, nu)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetUser(ctx, database, id)
}

func createUserTx(ctx context.Context, tx *sql.Tx, nu NewUser) (string, error) {
	name := strings.TrimSpace(nu.Name)
	email := strings.ToLower(strings.TrimSpace(nu.Email))
	if name == "" || email == "" {
		return "", errors.New("name and email are required")
	}
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx, `
INSERT INTO users (id, name, email, password_hash, role, verified, verify_token_hash, parent_owner_id, created)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, email, nu.PasswordHash, string(nu.Role), boolInt(nu.Verified),
		nullableString(nu.VerifyTokenHash), nullableString(nu.ParentOwnerID), nowRFC3339())
	if isUniqueConstraint(err) {
		return "", ErrConflict
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func GetUser(ctx context.Context, database *sql.DB, id string) (*models.User, error) {
	u := &models.User{}
	err := database.QueryRowContext(ctx, `
SELECT id, name, email, COALESCE(avatar, ''), COALESCE(bio, ''), role, onboard_complete, COALESCE(parent_owner_id, '')
FROM users
WHERE id = ?`, id).Scan(&u.UserID, &u.Name, &u.Email, &u.Avatar, &u.Bio, &u.Role, &u.OnboardComplete, &u.ParentOwnerID)
	if err != nil {
		return nil, err
	}
	tags, err := userTags(ctx, database, id)
	if err != nil {
		return nil, err
	}
	u.SubscribedTags = make([]string, 0, len(tags))
	for _, t := range tags {
		u.SubscribedTags = append(u.SubscribedTags, t.ID)
	}
	return u, nil
}

func GetProfile(ctx context.Context, database *sql.DB, id string) (*models.Profile, error) {
	p := &models.Profile{}
	err := database.QueryRowContext(ctx, `
SELECT name, email, COALESCE(avatar, ''), COALESCE(bio, '')
FROM users
WHERE id = ?`, id).Scan(&p.Name, &p.Email, &p.Avatar, &p.Bio)
	if err != nil {
		return nil, err
	}
	if p.SubscribedTags, err = userTags(ctx, database, id); err != nil {
		return nil, err
	}
	return p, nil
}

func userTags(ctx context.Context, database *sql.DB, userID string) ([]models.Tag, error) {
	rows, err := database.QueryContext(ctx, `
SELECT t.id, t.name
FROM user_tags ut
JOIN tags t ON t.id = ut.tag_id
WHERE ut.user_id = ?
ORDER BY t.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func credentials(ctx context.Context, database *sql.DB, where string, arg any) (*Credentials, error) {
	c := &Credentials{}
	err := database.QueryRowContext(ctx, `
SELECT id, role, password_hash, verified, session_version
FROM users
WHERE `+where, arg).Scan(&c.UserID, &c.Role, &c.PasswordHash, &c.Verified, &c.SessionVersion)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func CredentialsByEmail(ctx context.Context, database *sql.DB, email string) (*Credentials, error) {
	return credentials(ctx, database, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func CredentialsByID(ctx context.Context, database *sql.DB, id string) (*Credentials, error) {
	return credentials(ctx, database, "id = ?", id)
}

// VerifyEmail marks the user holding the token hash as verified.
func VerifyEmail(ctx context.Context, database *sql.DB, tokenHash string) error {
	return expectAffected(database.ExecContext(ctx, `
UPDATE users SET verified = 1, verify_token_hash = NULL
WHERE verify_token_hash = ? AND verified = 0`, tokenHash))
}

// SetVerifyToken replaces the pending verification token of an unverified
// user.
func SetVerifyToken(ctx context.Context, database *sql.DB, email, tokenHash string) error {
	return expectAffected(database.ExecContext(ctx, `
UPDATE users SET verify_token_hash = ?
WHERE email = ? AND verified = 0`, tokenHash, strings.ToLower(strings.TrimSpace(email))))
}

func UpdateProfile(ctx context.Context, database *sql.DB, id string, u models.ProfileUpdate) (*models.Profile, error) {
	err := expectAffected(database.ExecContext(ctx, `
UPDATE users SET
    name   = COALESCE(?, name),
    bio    = COALESCE(?, bio),
    avatar = COALESCE(?, avatar)
WHERE id = ?`, nullableString(u.Name), nullableString(u.Bio), nullableString(u.Avatar), id))
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, database, id)
}

// SetPassword stores a new hash and revokes existing sessions.
func SetPassword(ctx context.Context, database *sql.DB, id, passwordHash string) error {
	return expectAffected(database.ExecContext(ctx, `
UPDATE users SET password_hash = ?, session_version = session_version + 1
WHERE id = ?`, passwordHash, id))
}

// RevokeSessions invalidates every session issued so far.
func RevokeSessions(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `
UPDATE users SET session_version = session_version + 1 WHERE id = ?`, id))
}

func DeleteUser(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id))
}

// SetUserTags replaces the user's topic tags; unknown ids are ignored.
func SetUserTags(ctx context.Context, database *sql.DB, id string, tagIDs []string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_tags WHERE user_id = ?`, id); err != nil {
		return err
	}
	for _, tagID := range dedupe(tagIDs) {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO user_tags (user_id, tag_id)
SELECT ?, id FROM tags WHERE id = ?`, id, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func CompleteOnboarding(ctx context.Context, database *sql.DB, id string) error {
	return expectAffected(database.ExecContext(ctx, `UPDATE users SET onboard_complete = 1 WHERE id = ?`, id))
}

func GetPublicProfile(ctx context.Context, database *sql.DB, id string) (*models.PublicProfile, error) {
	p := &models.PublicProfile{}
	err := database.QueryRowContext(ctx, `
SELECT u.id, u.name, COALESCE(u.avatar, ''), COALESCE(u.bio, ''), u.created,
       (SELECT COUNT(1) FROM threads t WHERE t.status = 'P' AND (t.editor_id = u.id OR t.owner_id = u.id)),
       (SELECT COUNT(1) FROM spaces s WHERE s.owner_id = u.id)
FROM users u
WHERE u.id = ?`, id).Scan(&p.ID, &p.Name, &p.Avatar, &p.Bio, &p.CreatedOn, &p.TotalThreads, &p.TotalSpaces)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetOwnerDetails returns the Owner that invited the given Editor.
func GetOwnerDetails(ctx context.Context, database *sql.DB, editorID string) (*models.OwnerDetails, error) {
	o := &models.OwnerDetails{}
	err := database.QueryRowContext(ctx, `
SELECT o.id, o.name, o.email, COALESCE(o.avatar, ''), COALESCE(o.bio, ''), o.created
FROM users e
JOIN users o ON o.id = e.parent_owner_id
WHERE e.id = ?`, editorID).Scan(&o.UserID, &o.Name, &o.Email, &o.Avatar, &o.Bio, &o.CreatedOn)
	if err != nil {
		return nil, err
	}
	return o, nil
}
