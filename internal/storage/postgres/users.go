package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/lib/pq"
)

const userColumns = "id, username, password_hash, avatar, session_id, cart, likes, purchase_history, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var user models.User
	var cart, likes, history string

	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Avatar,
		&user.SessionID, &cart, &likes, &history, &user.CreatedAt); err != nil {
		return nil, err
	}

	if err := unmarshalBlob(cart, &user.Cart); err != nil {
		return nil, err
	}
	if err := unmarshalBlob(likes, &user.Likes); err != nil {
		return nil, err
	}
	if err := unmarshalBlob(history, &user.PurchaseHistory); err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	cart, err := marshalBlob(user.Cart)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	likes, err := marshalBlob(user.Likes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	history, err := marshalBlob(user.PurchaseHistory)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.Prepare(`INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, user.ID, user.Username, user.PasswordHash, user.Avatar,
		user.SessionID, cart, likes, history, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%s: %w", op, models.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.GetUserByID"

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgres.GetUserByUsername"

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateUser replaces the mutable user columns; last writer wins.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.UpdateUser"

	cart, err := marshalBlob(user.Cart)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	likes, err := marshalBlob(user.Likes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	history, err := marshalBlob(user.PurchaseHistory)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.Prepare(`UPDATE users SET avatar = $1, session_id = $2, cart = $3,
		likes = $4, purchase_history = $5 WHERE id = $6`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, user.Avatar, user.SessionID, cart, likes, history, user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateSessionID(ctx context.Context, userID, sessionID string) error {
	const op = "storage.postgres.UpdateSessionID"

	stmt, err := s.db.Prepare("UPDATE users SET session_id = $1 WHERE id = $2")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
