// Package service contains the business logic layer: handlers parse HTTP
// and delegate here, repositories only move data. Services validate,
// enforce the membership rules, and return typed apperrors.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/groupcode"
	"github.com/sjlee/walkinggo/internal/model"
	"github.com/sjlee/walkinggo/internal/repository"
)

// Validation limits for group fields.
const (
	MinGroupNameLength        = 2
	MaxGroupNameLength        = 100
	MaxGroupDescriptionLength = 500
)

// GroupService owns the group lifecycle: creation, joining, leaving,
// deletion, listings and the distance leaderboard.
//
// The load-bearing rule is one group per user, system wide. It is not a
// schema constraint, so every transition that reads membership state and
// then writes it runs inside store.InTx — two concurrent joins for the
// same user serialize there, and the second one sees the first one's row.
type GroupService struct {
	store  repository.Store
	codes  *groupcode.Generator
	logger *slog.Logger
}

// NewGroupService creates a GroupService.
func NewGroupService(store repository.Store, codes *groupcode.Generator, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, codes: codes, logger: logger}
}

// CreateGroup creates a group owned by ownerUsername and enrolls the owner
// as its first member, atomically.
//
// Public groups keep the description and ignore any supplied code.
// Private groups require a caller-chosen numeric code (4–10 digits) that
// no other group holds, and drop the description.
func (s *GroupService) CreateGroup(ctx context.Context, name, description string, isPublic bool, code, ownerUsername string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if len(name) < MinGroupNameLength || len(name) > MaxGroupNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("group name must be between %d and %d characters", MinGroupNameLength, MaxGroupNameLength))
	}
	description = strings.TrimSpace(description)
	if len(description) > MaxGroupDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("group description must be %d characters or less", MaxGroupDescriptionLength))
	}

	if isPublic {
		code = ""
	} else {
		description = ""
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, apperror.MissingCode()
		}
		if !groupcode.Valid(code) {
			return nil, apperror.ValidationFailed("participationCode",
				"participation code must be 4 to 10 digits")
		}
	}

	var group *model.Group
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		owner, err := tx.UserByUsername(ctx, ownerUsername)
		if err != nil {
			return err
		}

		current, err := tx.GroupIDForUser(ctx, owner.ID)
		if err != nil {
			return err
		}
		if current != "" {
			return apperror.AlreadyInGroup()
		}

		if code != "" {
			taken, err := tx.ParticipationCodeExists(ctx, code)
			if err != nil {
				return err
			}
			if taken {
				return apperror.DuplicateCode()
			}
		}

		group = &model.Group{
			Name:              name,
			Description:       description,
			OwnerID:           owner.ID,
			OwnerUsername:     owner.Username,
			IsPublic:          isPublic,
			ParticipationCode: code,
		}
		if err := tx.CreateGroup(ctx, group); err != nil {
			return err
		}
		return tx.AddMember(ctx, group.ID, owner.ID)
	})
	if err != nil {
		return nil, err
	}

	group.MemberCount = 1
	s.logger.Info("group created",
		slog.String("group_id", group.ID),
		slog.String("owner", ownerUsername),
		slog.Bool("public", isPublic),
	)
	return group, nil
}

// SuggestCode returns a participation code no existing group holds. The
// client may submit it back through CreateGroup, where uniqueness is
// checked again under the transaction.
func (s *GroupService) SuggestCode(ctx context.Context) (string, error) {
	return s.codes.Generate(ctx, s.store.ParticipationCodeExists)
}

// JoinPublicGroup adds the user to a public group by ID.
func (s *GroupService) JoinPublicGroup(ctx context.Context, groupID, username string) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.UserByUsername(ctx, username)
		if err != nil {
			return err
		}
		group, err := tx.GroupByID(ctx, groupID)
		if err != nil {
			return err
		}
		if !group.IsPublic {
			return apperror.NotPublic()
		}
		return joinGroup(ctx, tx, group.ID, user.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("joined public group",
		slog.String("group_id", groupID),
		slog.String("username", username),
	)
	return nil
}

// JoinPrivateGroup adds the user to the private group holding the
// participation code and returns that group.
func (s *GroupService) JoinPrivateGroup(ctx context.Context, code, username string) (*model.Group, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.MissingCode()
	}

	var group *model.Group
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.UserByUsername(ctx, username)
		if err != nil {
			return err
		}
		group, err = tx.GroupByCode(ctx, code)
		if err != nil {
			return err
		}
		if group.IsPublic {
			return apperror.NotPrivate()
		}
		return joinGroup(ctx, tx, group.ID, user.ID)
	})
	if err != nil {
		return nil, err
	}

	group.MemberCount++
	s.logger.Info("joined private group",
		slog.String("group_id", group.ID),
		slog.String("username", username),
	)
	return group, nil
}

// joinGroup applies the membership invariant and inserts the relation.
// Must run inside a transaction.
func joinGroup(ctx context.Context, tx repository.Store, groupID, userID string) error {
	current, err := tx.GroupIDForUser(ctx, userID)
	if err != nil {
		return err
	}
	// Joining a group you already belong to is an error, not a no-op.
	if current == groupID {
		return apperror.AlreadyMember()
	}
	if current != "" {
		return apperror.AlreadyInGroup()
	}
	return tx.AddMember(ctx, groupID, userID)
}

// LeaveGroup removes the user from the group.
//
// An owner may leave only as the group's last member, in which case the
// group is deleted with them (leave degrades to delete). An owner with
// co-members must delete the group explicitly; there is no ownership
// transfer.
func (s *GroupService) LeaveGroup(ctx context.Context, groupID, username string) error {
	deleted := false
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.UserByUsername(ctx, username)
		if err != nil {
			return err
		}
		group, err := tx.GroupByID(ctx, groupID)
		if err != nil {
			return err
		}

		member, err := tx.IsMember(ctx, groupID, user.ID)
		if err != nil {
			return err
		}
		if !member {
			return apperror.NotAMember()
		}

		if group.OwnerID == user.ID {
			if group.MemberCount > 1 {
				return apperror.OwnerCannotLeave()
			}
			deleted = true
			if err := tx.RemoveAllMembers(ctx, groupID); err != nil {
				return err
			}
			return tx.DeleteGroup(ctx, groupID)
		}

		return tx.RemoveMember(ctx, groupID, user.ID)
	})
	if err != nil {
		return err
	}

	if deleted {
		s.logger.Info("owner left as last member, group deleted",
			slog.String("group_id", groupID),
			slog.String("username", username),
		)
	} else {
		s.logger.Info("left group",
			slog.String("group_id", groupID),
			slog.String("username", username),
		)
	}
	return nil
}

// DeleteGroup deletes the group. Only the owner may do this. Every member
// is detached first, in the same transaction, so no membership row ever
// points at a missing group.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, username string) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := tx.UserByUsername(ctx, username)
		if err != nil {
			return err
		}
		group, err := tx.GroupByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group.OwnerID != user.ID {
			return apperror.AccessDenied("only the group owner can delete the group")
		}

		if err := tx.RemoveAllMembers(ctx, groupID); err != nil {
			return err
		}
		return tx.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("group deleted",
		slog.String("group_id", groupID),
		slog.String("username", username),
	)
	return nil
}

// PublicGroups lists public groups, name ascending, optionally filtered by
// a case-insensitive name substring.
func (s *GroupService) PublicGroups(ctx context.Context, nameFilter string) ([]model.Group, error) {
	return s.store.PublicGroups(ctx, strings.TrimSpace(nameFilter))
}

// GroupDetails returns a single group by ID.
func (s *GroupService) GroupDetails(ctx context.Context, groupID string) (*model.Group, error) {
	return s.store.GroupByID(ctx, groupID)
}

// GroupMembers lists the group's members.
func (s *GroupService) GroupMembers(ctx context.Context, groupID string) ([]model.Member, error) {
	if _, err := s.store.GroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.GroupMembers(ctx, groupID)
}

// GroupDetailsWithMemberDistances returns the group with each member's own
// cumulative walk distance, sorted by distance descending. The
// participation code is included only when the requester is a member.
func (s *GroupService) GroupDetailsWithMemberDistances(ctx context.Context, groupID, username string) (*model.GroupDetail, error) {
	group, err := s.store.GroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	members, err := s.store.GroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	totals, err := s.store.TotalDistanceByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	requesterIsMember := false
	details := make([]model.MemberDetail, len(members))
	for i, m := range members {
		if m.ID == user.ID {
			requesterIsMember = true
		}
		details[i] = model.MemberDetail{
			ID:              m.ID,
			Username:        m.Username,
			TotalDistanceKm: kilometers(totals[m.ID]),
			IsOwner:         m.ID == group.OwnerID,
		}
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].TotalDistanceKm != details[j].TotalDistanceKm {
			return details[i].TotalDistanceKm > details[j].TotalDistanceKm
		}
		return details[i].Username < details[j].Username
	})

	detail := &model.GroupDetail{
		GroupID:       group.ID,
		GroupName:     group.Name,
		Description:   group.Description,
		IsOwner:       group.OwnerID == user.ID,
		CurrentUserID: user.ID,
		Members:       details,
	}
	if requesterIsMember {
		detail.ParticipationCode = group.ParticipationCode
	}
	return detail, nil
}

// RankedPublicGroupsByDistance returns the public-group leaderboard:
// total distance descending, name ascending on ties, with dense 1-based
// ranks. Tied groups still receive successive ranks — the row order
// decides, not the total.
func (s *GroupService) RankedPublicGroupsByDistance(ctx context.Context) ([]model.RankedGroup, error) {
	groups, err := s.store.PublicGroupsByDistance(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]model.RankedGroup, len(groups))
	for i, g := range groups {
		ranked[i] = model.RankedGroup{
			ID:              g.ID,
			Name:            g.Name,
			Description:     g.Description,
			MemberCount:     g.MemberCount,
			IsPublic:        g.IsPublic,
			TotalDistanceKm: kilometers(g.TotalDistanceMeters),
			Rank:            i + 1,
		}
	}

	s.logger.Info("public group ranking computed", slog.Int("groups", len(ranked)))
	return ranked, nil
}

// kilometers converts meters to kilometers rounded to two decimals.
func kilometers(meters float64) float64 {
	return math.Round(meters/10) / 100
}
