package handler

import (
	"log/slog"
	"net/http"

	"github.com/sjlee/walkinggo/internal/auth"
	"github.com/sjlee/walkinggo/internal/service"
)

// UserHandler serves the current user's profile and settings.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// requireUsername pulls the authenticated username from the request
// context. The auth middleware guarantees it on protected routes.
func requireUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return "", false
	}
	return username, true
}

// HandleProfile returns the caller's account and current group.
//
// GET /api/users/me
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	profile, err := h.users.Profile(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type weightRequest struct {
	WeightKg float64 `json:"weightKg"`
}

// HandleUpdateWeight sets the caller's weight.
//
// PUT /api/users/me/weight
func (h *UserHandler) HandleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req weightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.UpdateWeight(r.Context(), username, req.WeightKg); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type targetDistanceRequest struct {
	TargetDistanceKm float64 `json:"targetDistanceKm"`
}

// HandleUpdateTargetDistance sets the caller's daily distance target.
//
// PUT /api/users/me/target-distance
func (h *UserHandler) HandleUpdateTargetDistance(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req targetDistanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.UpdateTargetDistance(r.Context(), username, req.TargetDistanceKm); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
