package service

import (
	"context"
	"log/slog"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/model"
	"github.com/sjlee/walkinggo/internal/repository"
)

// Profile is a user's own view of their account, including the group they
// currently belong to, if any.
type Profile struct {
	User  *model.User  `json:"user"`
	Group *model.Group `json:"group,omitempty"`
}

// UserService serves profile reads and settings updates.
type UserService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(store repository.Store, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// Profile returns the user's account plus their current group, if any.
func (s *UserService) Profile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}
	groupID, err := s.store.GroupIDForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if groupID != "" {
		group, err := s.store.GroupByID(ctx, groupID)
		if err != nil {
			return nil, err
		}
		profile.Group = group
	}
	return profile, nil
}

// UpdateWeight sets the user's weight in kilograms.
func (s *UserService) UpdateWeight(ctx context.Context, username string, weightKg float64) error {
	if weightKg <= 0 || weightKg > 500 {
		return apperror.ValidationFailed("weight", "weight must be between 0 and 500 kg")
	}
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserWeight(ctx, user.ID, weightKg); err != nil {
		return err
	}
	s.logger.Info("weight updated", slog.String("username", username))
	return nil
}

// UpdateTargetDistance sets the user's daily walking target in kilometers.
func (s *UserService) UpdateTargetDistance(ctx context.Context, username string, targetKm float64) error {
	if targetKm <= 0 || targetKm > 1000 {
		return apperror.ValidationFailed("targetDistance", "target distance must be between 0 and 1000 km")
	}
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserTargetDistance(ctx, user.ID, targetKm); err != nil {
		return err
	}
	s.logger.Info("target distance updated", slog.String("username", username))
	return nil
}
