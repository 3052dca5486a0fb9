package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aretw0/cooknet/pkg/domain"
)

// RegisterUser records a user on first sight. Later calls for the same
// username are no-ops, so the original inviter is kept.
func (s *Store) RegisterUser(ctx context.Context, identity, username, invitedBy string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (identity, username, joined_at, invited_by) VALUES (?, ?, ?, ?)`,
		identity, username, s.timestamp(), nullable(invitedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to register user %q: %w", username, err)
	}
	return nil
}

// Registered reports whether identity has a users row.
func (s *Store) Registered(ctx context.Context, identity string) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE identity = ?)`, identity,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to look up user %q: %w", identity, err)
	}
	return found, nil
}

// User looks a user up by username.
func (s *Store) User(ctx context.Context, username string) (*domain.User, error) {
	var (
		u         domain.User
		joined    string
		invitedBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT identity, username, joined_at, invited_by FROM users WHERE username = ?`, username,
	).Scan(&u.Identity, &u.Username, &joined, &invitedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}
	u.JoinedAt = parseTime(joined)
	u.InvitedBy = invitedBy.String
	return &u, nil
}

// InviteFor returns the owner's invite code, creating it on first use.
func (s *Store) InviteFor(ctx context.Context, owner string) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT code FROM invites WHERE owner = ?`, owner).Scan(&code)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to load invite: %w", err)
	}

	code, err = newInviteCode()
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO invites (code, owner, uses, created_at) VALUES (?, ?, 0, ?)`,
		code, owner, s.timestamp(),
	); err != nil {
		return "", fmt.Errorf("failed to create invite: %w", err)
	}
	return code, nil
}

// UseInvite counts one use of code and returns its owner.
func (s *Store) UseInvite(ctx context.Context, code string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`UPDATE invites SET uses = uses + 1 WHERE code = ? RETURNING owner`, code,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrInviteNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to use invite: %w", err)
	}
	return owner, nil
}

// InviteUses reports how many times code was redeemed.
func (s *Store) InviteUses(ctx context.Context, code string) (int, error) {
	var uses int
	err := s.db.QueryRowContext(ctx, `SELECT uses FROM invites WHERE code = ?`, code).Scan(&uses)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrInviteNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load invite: %w", err)
	}
	return uses, nil
}

// AddComment appends a comment to an existing recipe.
func (s *Store) AddComment(ctx context.Context, recipeID int64, username, text string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (recipe_id, username, text, created_at)
		 SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM recipes WHERE id = ?)`,
		recipeID, username, text, s.timestamp(), recipeID,
	)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

// AddChatMessage appends a message to the public chat.
func (s *Store) AddChatMessage(ctx context.Context, username, text string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat (username, text, created_at) VALUES (?, ?, ?)`,
		username, text, s.timestamp(),
	); err != nil {
		return fmt.Errorf("failed to add chat message: %w", err)
	}
	return nil
}

// ChatMessages returns the newest chat messages.
func (s *Store) ChatMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, text, created_at FROM chat ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var (
			m       domain.ChatMessage
			created string
		)
		if err := rows.Scan(&m.Username, &m.Text, &created); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// newInviteCode returns 6 random bytes, URL-safe encoded.
func newInviteCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
