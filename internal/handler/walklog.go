package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/service"
)

// WalkLogHandler serves walk recording, history and shared routes.
type WalkLogHandler struct {
	walks  *service.WalkLogService
	logger *slog.Logger
}

// NewWalkLogHandler creates a WalkLogHandler.
func NewWalkLogHandler(walks *service.WalkLogService, logger *slog.Logger) *WalkLogHandler {
	return &WalkLogHandler{walks: walks, logger: logger}
}

type saveWalkLogRequest struct {
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	DurationSeconds  *int64    `json:"durationSeconds"`
	DistanceMeters   *float64  `json:"distanceMeters"`
	Steps            int       `json:"steps"`
	CaloriesBurned   *float64  `json:"caloriesBurned"`
	RouteCoordinates string    `json:"routeCoordinates"`
}

// HandleSave records a walk for the caller.
//
// POST /api/walk-logs
func (h *WalkLogHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req saveWalkLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	log, err := h.walks.SaveWalkLog(r.Context(), username, service.WalkLogInput{
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		DurationSeconds:  req.DurationSeconds,
		DistanceMeters:   req.DistanceMeters,
		Steps:            req.Steps,
		CaloriesBurned:   req.CaloriesBurned,
		RouteCoordinates: req.RouteCoordinates,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// HandleMyLogs lists the caller's walk history, newest first.
//
// GET /api/walk-logs/my
func (h *WalkLogHandler) HandleMyLogs(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	logs, err := h.walks.WalkLogsByUser(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// HandleLogsByDate lists the caller's walks on one day.
//
// GET /api/walk-logs/date?date=2026-03-10
func (h *WalkLogHandler) HandleLogsByDate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("date", "date must be in YYYY-MM-DD format"))
		return
	}

	logs, err := h.walks.WalkLogsByDate(r.Context(), username, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type activityResponse struct {
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	ActiveDays []string `json:"activeDays"`
}

// HandleMonthlyActivity lists the days in a month on which the caller
// logged at least one walk.
//
// GET /api/walk-logs/activity?year=2026&month=3
func (h *WalkLogHandler) HandleMonthlyActivity(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("year", "year must be a number"))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, apperror.ValidationFailed("month", "month must be between 1 and 12"))
		return
	}

	days, err := h.walks.MonthlyActivity(r.Context(), username, year, time.Month(month))
	if err != nil {
		writeError(w, err)
		return
	}
	if days == nil {
		days = []string{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Year: year, Month: month, ActiveDays: days})
}

type publishRouteRequest struct {
	RouteName        string `json:"routeName"`
	RouteDescription string `json:"routeDescription"`
}

// HandlePublishRoute shares the caller's walk as a public route.
//
// POST /api/walk-logs/{walkLogID}/publish
func (h *WalkLogHandler) HandlePublishRoute(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req publishRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.walks.PublishRoute(r.Context(), r.PathValue("walkLogID"), username, req.RouteName, req.RouteDescription); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRecommendedRoutes lists published routes, newest first.
//
// GET /api/routes/recommended
func (h *WalkLogHandler) HandleRecommendedRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.walks.RecommendedRoutes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

// HandleRouteDetails returns one published route.
//
// GET /api/routes/{walkLogID}
func (h *WalkLogHandler) HandleRouteDetails(w http.ResponseWriter, r *http.Request) {
	route, err := h.walks.PublicRouteDetails(r.Context(), r.PathValue("walkLogID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}
