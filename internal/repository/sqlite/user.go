package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/model"
)

// CreateUser inserts a new user, assigning the ID and timestamps in place.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, weight_kg, target_distance_km, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.WeightKg,
		user.TargetDistanceKm,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	return nil
}

// UserByUsername resolves a username to its user record.
func (db *DB) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User

	err := db.q.QueryRowContext(ctx,
		`SELECT id, username, password_hash, weight_kg, target_distance_km, created_at, updated_at
		 FROM users
		 WHERE username = ?`,
		username,
	).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.WeightKg,
		&user.TargetDistanceKm,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.UserNotFound(username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}

	return &user, nil
}

// UsernameExists reports whether a username is already registered.
func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := db.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking username %s: %w", username, err)
	}
	return exists, nil
}

// UpdateUserWeight sets the user's weight in kilograms.
func (db *DB) UpdateUserWeight(ctx context.Context, userID string, weightKg float64) error {
	return db.updateUserField(ctx, userID, "weight_kg", weightKg)
}

// UpdateUserTargetDistance sets the user's daily target distance in km.
func (db *DB) UpdateUserTargetDistance(ctx context.Context, userID string, targetKm float64) error {
	return db.updateUserField(ctx, userID, "target_distance_km", targetKm)
}

// updateUserField updates a single numeric profile column. The column name
// is always one of two compile-time constants, never caller input.
func (db *DB) updateUserField(ctx context.Context, userID, column string, value float64) error {
	result, err := db.q.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ?, updated_at = ? WHERE id = ?`, column),
		value, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", column, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.UserNotFound(userID)
	}
	return nil
}
