package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/auth"
	"github.com/sjlee/walkinggo/internal/model"
	"github.com/sjlee/walkinggo/internal/repository"
)

// AuthService handles signup and login.
type AuthService struct {
	store     repository.Store
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(store repository.Store, passwords *auth.PasswordService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{store: store, passwords: passwords, tokens: tokens, logger: logger}
}

// SignupInput carries a registration request. Weight and target distance
// are optional profile seeds; the user can set them later through the
// settings endpoints.
type SignupInput struct {
	Username         string
	Password         string
	PasswordConfirm  string
	WeightKg         *float64
	TargetDistanceKm *float64
}

// Signup registers a new user with a unique username.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if in.Password != in.PasswordConfirm {
		return nil, apperror.ValidationFailed("passwordConfirm", "passwords do not match")
	}
	if in.WeightKg != nil && (*in.WeightKg <= 0 || *in.WeightKg > 500) {
		return nil, apperror.ValidationFailed("weightKg", "weight must be between 0 and 500 kg")
	}
	if in.TargetDistanceKm != nil && (*in.TargetDistanceKm <= 0 || *in.TargetDistanceKm > 1000) {
		return nil, apperror.ValidationFailed("targetDistanceKm", "target distance must be between 0 and 1000 km")
	}

	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("username already taken")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:         username,
		PasswordHash:     hash,
		WeightKg:         in.WeightKg,
		TargetDistanceKm: in.TargetDistanceKm,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("username", username))
	return user, nil
}

// Login checks the credentials and issues a JWT. Unknown usernames and
// wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return "", apperror.InvalidCredentials()
	}
	if !s.passwords.Verify(user.PasswordHash, password) {
		return "", apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return "", err
	}

	s.logger.Info("user logged in", slog.String("username", username))
	return token, nil
}
