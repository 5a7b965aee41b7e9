// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt hash of the password and is never
// serialized to JSON. WeightKg and TargetDistanceKm are optional profile
// attributes; WeightKg feeds the calorie estimate when a walk log arrives
// without one, so both are pointers to distinguish "unset" from zero.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     string    `json:"-"`
	WeightKg         *float64  `json:"weightKg,omitempty"`
	TargetDistanceKm *float64  `json:"targetDistanceKm,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
