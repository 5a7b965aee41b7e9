// Package repository defines the storage interface the service layer
// programs against. The sqlite subpackage provides the implementation;
// services never import it directly.
package repository

import (
	"context"
	"time"

	"github.com/sjlee/walkinggo/internal/model"
)

// Store is the persistence boundary for users, groups, memberships and
// walk logs.
//
// Membership transitions are check-then-act sequences: the service reads
// the user's current membership and then mutates it. Every such sequence
// must run inside InTx so that two concurrent requests cannot both observe
// "unaffiliated" and both join.
type Store interface {
	// Users.

	// CreateUser persists a new user. The ID and timestamps are assigned
	// by the store.
	CreateUser(ctx context.Context, user *model.User) error
	// UserByUsername resolves a username to its user record.
	// Returns apperror.UserNotFound when no such user exists.
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	// UsernameExists reports whether a username is already registered.
	UsernameExists(ctx context.Context, username string) (bool, error)
	// UpdateUserWeight sets the user's weight in kilograms.
	UpdateUserWeight(ctx context.Context, userID string, weightKg float64) error
	// UpdateUserTargetDistance sets the user's daily target distance in km.
	UpdateUserTargetDistance(ctx context.Context, userID string, targetKm float64) error

	// Groups.

	// CreateGroup persists a new group. ID and CreatedAt are assigned by
	// the store; the owner is NOT added as a member here (callers add the
	// owner explicitly, inside the same transaction).
	CreateGroup(ctx context.Context, group *model.Group) error
	// GroupByID returns the group with owner username and member count
	// populated. Returns apperror.GroupNotFound when absent.
	GroupByID(ctx context.Context, id string) (*model.Group, error)
	// GroupByCode resolves a participation code to its group.
	// Returns apperror.InvalidCode when no group has the code.
	GroupByCode(ctx context.Context, code string) (*model.Group, error)
	// ParticipationCodeExists reports whether any group holds the code.
	ParticipationCodeExists(ctx context.Context, code string) (bool, error)
	// PublicGroups lists public groups ordered by name ascending,
	// optionally filtered by a case-insensitive name substring.
	PublicGroups(ctx context.Context, nameFilter string) ([]model.Group, error)
	// PublicGroupsByDistance lists public groups ordered by total distance
	// descending, name ascending.
	PublicGroupsByDistance(ctx context.Context) ([]model.Group, error)
	// DeleteGroup removes the group row. Membership rows must already be
	// detached (RemoveAllMembers) by the caller, in the same transaction.
	DeleteGroup(ctx context.Context, id string) error
	// AddDistance atomically adds meters to the group's running total.
	AddDistance(ctx context.Context, groupID string, meters float64) error

	// Memberships.

	// AddMember inserts the membership relation.
	AddMember(ctx context.Context, groupID, userID string) error
	// RemoveMember deletes the membership relation.
	RemoveMember(ctx context.Context, groupID, userID string) error
	// RemoveAllMembers detaches every member from the group.
	RemoveAllMembers(ctx context.Context, groupID string) error
	// IsMember reports whether the user belongs to the group.
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	// GroupIDForUser returns the ID of the user's group, or "" when the
	// user is unaffiliated.
	GroupIDForUser(ctx context.Context, userID string) (string, error)
	// GroupMembers lists the group's members.
	GroupMembers(ctx context.Context, groupID string) ([]model.Member, error)

	// Walk logs.

	// CreateWalkLog persists a walk log. ID and CreatedAt are assigned by
	// the store.
	CreateWalkLog(ctx context.Context, log *model.WalkLog) error
	// WalkLogByID returns a single walk log with the walker's username
	// populated. Returns a not-found apperror when absent.
	WalkLogByID(ctx context.Context, id string) (*model.WalkLog, error)
	// WalkLogsByUser lists the user's walk logs, newest start time first.
	WalkLogsByUser(ctx context.Context, userID string) ([]model.WalkLog, error)
	// WalkLogsByUserBetween lists the user's walk logs with start time in
	// [from, to), newest first.
	WalkLogsByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.WalkLog, error)
	// TotalDistanceByUsers sums logged distance per user for the given
	// users. Users with no logged distance are absent from the map.
	TotalDistanceByUsers(ctx context.Context, userIDs []string) (map[string]float64, error)
	// PublishRoute marks a walk log as a public recommended route.
	PublishRoute(ctx context.Context, id, routeName, routeDescription string) error
	// PublicRoutes lists published walk logs, newest first.
	PublicRoutes(ctx context.Context) ([]model.WalkLog, error)

	// InTx runs fn against a Store bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	// Nested InTx calls are not supported.
	InTx(ctx context.Context, fn func(Store) error) error

	// Close releases the underlying resources.
	Close() error
}
