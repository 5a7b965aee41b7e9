package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/model"
)

const walkLogColumns = `
	w.id, w.user_id, u.username, w.start_time, w.end_time, w.duration_seconds,
	w.distance_meters, w.steps, w.calories_burned, w.route_coordinates,
	w.route_name, w.route_description, w.is_public_route, w.created_at
`

// CreateWalkLog inserts a walk log, assigning ID and CreatedAt in place.
func (db *DB) CreateWalkLog(ctx context.Context, log *model.WalkLog) error {
	log.ID = xid.New().String()
	log.CreatedAt = time.Now()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO walk_logs (id, user_id, start_time, end_time, duration_seconds,
		                        distance_meters, steps, calories_burned, route_coordinates,
		                        route_name, route_description, is_public_route, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.UserID,
		log.StartTime,
		log.EndTime,
		log.DurationSeconds,
		log.DistanceMeters,
		log.Steps,
		log.CaloriesBurned,
		log.RouteCoordinates,
		log.RouteName,
		log.RouteDescription,
		log.IsPublicRoute,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating walk log: %w", err)
	}
	return nil
}

// WalkLogByID returns a single walk log with the walker's username populated.
func (db *DB) WalkLogByID(ctx context.Context, id string) (*model.WalkLog, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+walkLogColumns+`
		 FROM walk_logs w JOIN users u ON u.id = w.user_id
		 WHERE w.id = ?`,
		id,
	)

	log, err := scanWalkLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("walk log", id)
		}
		return nil, fmt.Errorf("sqlite: getting walk log %s: %w", id, err)
	}
	return log, nil
}

// WalkLogsByUser lists the user's walk logs, newest start time first.
func (db *DB) WalkLogsByUser(ctx context.Context, userID string) ([]model.WalkLog, error) {
	return db.queryWalkLogs(ctx,
		`SELECT `+walkLogColumns+`
		 FROM walk_logs w JOIN users u ON u.id = w.user_id
		 WHERE w.user_id = ?
		 ORDER BY w.start_time DESC`,
		userID,
	)
}

// WalkLogsByUserBetween lists the user's walk logs with start time in
// [from, to), newest first.
func (db *DB) WalkLogsByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.WalkLog, error) {
	return db.queryWalkLogs(ctx,
		`SELECT `+walkLogColumns+`
		 FROM walk_logs w JOIN users u ON u.id = w.user_id
		 WHERE w.user_id = ? AND w.start_time >= ? AND w.start_time < ?
		 ORDER BY w.start_time DESC`,
		userID, from, to,
	)
}

// TotalDistanceByUsers sums logged distance per user. Logs without a
// distance contribute nothing; users with no distance at all are absent
// from the result.
func (db *DB) TotalDistanceByUsers(ctx context.Context, userIDs []string) (map[string]float64, error) {
	totals := make(map[string]float64, len(userIDs))
	if len(userIDs) == 0 {
		return totals, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := db.q.QueryContext(ctx,
		`SELECT user_id, SUM(distance_meters)
		 FROM walk_logs
		 WHERE user_id IN (`+placeholders+`) AND distance_meters IS NOT NULL
		 GROUP BY user_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: summing walk distances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			total  float64
		)
		if err := rows.Scan(&userID, &total); err != nil {
			return nil, fmt.Errorf("sqlite: scanning distance row: %w", err)
		}
		totals[userID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating distances: %w", err)
	}
	return totals, nil
}

// PublishRoute marks a walk log as a public recommended route.
func (db *DB) PublishRoute(ctx context.Context, id, routeName, routeDescription string) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE walk_logs
		 SET route_name = ?, route_description = ?, is_public_route = 1
		 WHERE id = ?`,
		routeName, routeDescription, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: publishing route %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("walk log", id)
	}
	return nil
}

// PublicRoutes lists published walk logs, newest first.
func (db *DB) PublicRoutes(ctx context.Context) ([]model.WalkLog, error) {
	return db.queryWalkLogs(ctx,
		`SELECT `+walkLogColumns+`
		 FROM walk_logs w JOIN users u ON u.id = w.user_id
		 WHERE w.is_public_route = 1
		 ORDER BY w.created_at DESC`,
	)
}

func (db *DB) queryWalkLogs(ctx context.Context, query string, args ...any) ([]model.WalkLog, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing walk logs: %w", err)
	}
	defer rows.Close()

	logs := []model.WalkLog{}
	for rows.Next() {
		log, err := scanWalkLog(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning walk log row: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating walk logs: %w", err)
	}
	return logs, nil
}

func scanWalkLog(row rowScanner) (*model.WalkLog, error) {
	var log model.WalkLog
	err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.Username,
		&log.StartTime,
		&log.EndTime,
		&log.DurationSeconds,
		&log.DistanceMeters,
		&log.Steps,
		&log.CaloriesBurned,
		&log.RouteCoordinates,
		&log.RouteName,
		&log.RouteDescription,
		&log.IsPublicRoute,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}
