package model

import "time"

// WalkLog is one recorded walk.
//
// DistanceMeters is a pointer because a log can legitimately arrive
// without a distance (e.g. a treadmill session the client could not
// measure); only logs with a positive distance count toward the walker's
// group total.
//
// RouteName/RouteDescription/IsPublicRoute support publishing a finished
// walk as a recommended route for other users to browse.
type WalkLog struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"`
	Username         string    `json:"username"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	DurationSeconds  int64     `json:"durationSeconds"`
	DistanceMeters   *float64  `json:"distanceMeters,omitempty"`
	Steps            int       `json:"steps"`
	CaloriesBurned   float64   `json:"caloriesBurned"`
	RouteCoordinates string    `json:"routeCoordinatesJson,omitempty"`
	RouteName        string    `json:"routeName,omitempty"`
	RouteDescription string    `json:"routeDescription,omitempty"`
	IsPublicRoute    bool      `json:"isPublicRoute"`
	CreatedAt        time.Time `json:"createdAt"`
}
