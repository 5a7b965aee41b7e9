package model

import "time"

// Group represents a walking group.
//
// A group is either public or private. Public groups carry a description
// and can be joined by ID; private groups carry a unique participation
// code and can only be joined with it. TotalDistanceMeters accumulates
// every member walk as it is logged and is never decremented — a member
// leaving does not take their contribution with them.
//
// Membership is a separate relation (group_members) queried through the
// repository; the struct deliberately holds no member back-pointers.
type Group struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	OwnerID             string    `json:"-"`
	OwnerUsername       string    `json:"ownerUsername"`
	IsPublic            bool      `json:"isPublic"`
	ParticipationCode   string    `json:"participationCode,omitempty"`
	TotalDistanceMeters float64   `json:"totalDistanceMeters"`
	MemberCount         int       `json:"memberCount"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Member is a user's public identity within a group listing.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MemberDetail is a member row in the group-detail view, including the
// member's own cumulative walk distance in kilometers.
type MemberDetail struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	IsOwner         bool    `json:"isOwner"`
}

// GroupDetail is the group-detail view: the group plus its members sorted
// by distance. ParticipationCode is populated only when the requesting
// user is a member of the group.
type GroupDetail struct {
	GroupID           string         `json:"groupId"`
	GroupName         string         `json:"groupName"`
	Description       string         `json:"description,omitempty"`
	IsOwner           bool           `json:"isOwner"`
	CurrentUserID     string         `json:"currentUserId"`
	ParticipationCode string         `json:"participationCode,omitempty"`
	Members           []MemberDetail `json:"members"`
}

// RankedGroup is one row of the public-group leaderboard.
// Rank is 1-based and dense: rows are ordered by total distance descending
// with name ascending as the tie-break, and each row gets the next integer
// even when totals tie.
type RankedGroup struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	MemberCount     int     `json:"memberCount"`
	IsPublic        bool    `json:"isPublic"`
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	Rank            int     `json:"rank"`
}
