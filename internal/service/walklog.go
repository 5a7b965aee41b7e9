package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/model"
	"github.com/sjlee/walkinggo/internal/repository"
)

const (
	// walkingMET is the metabolic equivalent for moderate walking, used
	// when the client does not report calories itself.
	walkingMET = 3.5

	// defaultWeightKg stands in for users who never set their weight.
	defaultWeightKg = 70.0
)

// WalkLogInput carries a client-reported walk. Optional fields are
// pointers so absent and zero are distinguishable.
type WalkLogInput struct {
	StartTime        time.Time
	EndTime          time.Time
	DurationSeconds  *int64
	DistanceMeters   *float64
	Steps            int
	CaloriesBurned   *float64
	RouteCoordinates string
}

// WalkLogService records walks and feeds each walk's distance into the
// owning user's group total.
type WalkLogService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewWalkLogService creates a WalkLogService.
func NewWalkLogService(store repository.Store, logger *slog.Logger) *WalkLogService {
	return &WalkLogService{store: store, logger: logger}
}

// SaveWalkLog records a walk and, if the user currently belongs to a
// group, adds the walk's distance to that group's running total in the
// same transaction. Walks logged while unaffiliated never count toward
// any group, past or future.
func (s *WalkLogService) SaveWalkLog(ctx context.Context, username string, in WalkLogInput) (*model.WalkLog, error) {
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, apperror.ValidationFailed("startTime", "start and end time are required")
	}
	if in.EndTime.Before(in.StartTime) {
		return nil, apperror.ValidationFailed("endTime", "end time must not be before start time")
	}
	if in.DistanceMeters != nil && *in.DistanceMeters < 0 {
		return nil, apperror.ValidationFailed("distance", "distance must not be negative")
	}

	duration := in.EndTime.Sub(in.StartTime)
	durationSeconds := int64(duration.Seconds())
	if in.DurationSeconds != nil {
		durationSeconds = *in.DurationSeconds
	}

	var log *model.WalkLog
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.UserByUsername(ctx, username)
		if err != nil {
			return err
		}

		calories := 0.0
		if in.CaloriesBurned != nil {
			calories = *in.CaloriesBurned
		} else if durationSeconds > 0 {
			calories = estimateCalories(user.WeightKg, durationSeconds)
		}

		log = &model.WalkLog{
			UserID:           user.ID,
			Username:         user.Username,
			StartTime:        in.StartTime,
			EndTime:          in.EndTime,
			DurationSeconds:  durationSeconds,
			DistanceMeters:   in.DistanceMeters,
			Steps:            in.Steps,
			CaloriesBurned:   calories,
			RouteCoordinates: in.RouteCoordinates,
		}
		if err := tx.CreateWalkLog(ctx, log); err != nil {
			return err
		}

		if in.DistanceMeters == nil || *in.DistanceMeters <= 0 {
			return nil
		}
		groupID, err := tx.GroupIDForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if groupID == "" {
			return nil
		}
		return tx.AddDistance(ctx, groupID, *in.DistanceMeters)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("walk log saved",
		slog.String("walk_log_id", log.ID),
		slog.String("username", username),
	)
	return log, nil
}

// estimateCalories applies the MET formula: MET x weight(kg) x hours.
func estimateCalories(weightKg *float64, durationSeconds int64) float64 {
	weight := defaultWeightKg
	if weightKg != nil && *weightKg > 0 {
		weight = *weightKg
	}
	hours := float64(durationSeconds) / 3600
	return walkingMET * weight * hours
}

// WalkLogsByUser returns the user's walk history, newest first.
func (s *WalkLogService) WalkLogsByUser(ctx context.Context, username string) ([]model.WalkLog, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.store.WalkLogsByUser(ctx, user.ID)
}

// WalkLogsByDate returns the user's walks that started on the given
// calendar day.
func (s *WalkLogService) WalkLogsByDate(ctx context.Context, username string, date time.Time) ([]model.WalkLog, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return s.store.WalkLogsByUserBetween(ctx, user.ID, from, from.AddDate(0, 0, 1))
}

// MonthlyActivity returns the distinct days in the given month on which
// the user logged at least one walk, as "2006-01-02" strings in ascending
// order.
func (s *WalkLogService) MonthlyActivity(ctx context.Context, username string, year int, month time.Month) ([]string, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	logs, err := s.store.WalkLogsByUserBetween(ctx, user.ID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var days []string
	for _, l := range logs {
		day := l.StartTime.Format("2006-01-02")
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days, nil
}

// PublishRoute marks the user's own walk log as a shared public route.
func (s *WalkLogService) PublishRoute(ctx context.Context, walkLogID, username, routeName, routeDescription string) error {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return err
	}
	log, err := s.store.WalkLogByID(ctx, walkLogID)
	if err != nil {
		return err
	}
	if log.UserID != user.ID {
		return apperror.AccessDenied("only the walk's owner can publish its route")
	}

	if err := s.store.PublishRoute(ctx, walkLogID, routeName, routeDescription); err != nil {
		return err
	}
	s.logger.Info("route published",
		slog.String("walk_log_id", walkLogID),
		slog.String("username", username),
	)
	return nil
}

// RecommendedRoutes returns published routes from all users, newest first.
func (s *WalkLogService) RecommendedRoutes(ctx context.Context) ([]model.WalkLog, error) {
	return s.store.PublicRoutes(ctx)
}

// PublicRouteDetails returns a single published route. Unpublished walk
// logs are visible only through the owner's own history.
func (s *WalkLogService) PublicRouteDetails(ctx context.Context, walkLogID string) (*model.WalkLog, error) {
	log, err := s.store.WalkLogByID(ctx, walkLogID)
	if err != nil {
		return nil, err
	}
	if !log.IsPublicRoute {
		return nil, apperror.AccessDenied("this walk log is not a public route")
	}
	return log, nil
}
