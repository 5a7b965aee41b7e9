package handler

import (
	"log/slog"
	"net/http"

	"github.com/sjlee/walkinggo/internal/service"
)

// AuthHandler serves signup and login.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type signupRequest struct {
	Username         string   `json:"username"`
	Password         string   `json:"password"`
	PasswordConfirm  string   `json:"passwordConfirm"`
	WeightKg         *float64 `json:"weightKg"`
	TargetDistanceKm *float64 `json:"targetDistanceKm"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// HandleSignup registers a new user.
//
// POST /api/auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), service.SignupInput{
		Username:         req.Username,
		Password:         req.Password,
		PasswordConfirm:  req.PasswordConfirm,
		WeightKg:         req.WeightKg,
		TargetDistanceKm: req.TargetDistanceKm,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin checks credentials and returns a bearer token.
//
// POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Username: req.Username})
}
