package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/model"
	"github.com/sjlee/walkinggo/internal/repository"
)

// memStore is an in-memory Store for service tests. Tests run requests
// sequentially, so InTx simply invokes fn against the store itself.
type memStore struct {
	users      map[string]*model.User // keyed by ID
	groups     map[string]*model.Group
	membership map[string]string // userID -> groupID
	walkLogs   map[string]*model.WalkLog
	nextID     int
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*model.User),
		groups:     make(map[string]*model.Group),
		membership: make(map[string]string),
		walkLogs:   make(map[string]*model.WalkLog),
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	user.ID = m.id("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *memStore) UserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.UserNotFound(username)
}

func (m *memStore) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateUserWeight(_ context.Context, userID string, weightKg float64) error {
	u, ok := m.users[userID]
	if !ok {
		return apperror.UserNotFound(userID)
	}
	u.WeightKg = &weightKg
	return nil
}

func (m *memStore) UpdateUserTargetDistance(_ context.Context, userID string, targetKm float64) error {
	u, ok := m.users[userID]
	if !ok {
		return apperror.UserNotFound(userID)
	}
	u.TargetDistanceKm = &targetKm
	return nil
}

func (m *memStore) CreateGroup(_ context.Context, group *model.Group) error {
	group.ID = m.id("group")
	group.CreatedAt = time.Now()
	clone := *group
	m.groups[group.ID] = &clone
	return nil
}

func (m *memStore) GroupByID(_ context.Context, id string) (*model.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, apperror.GroupNotFound(id)
	}
	return m.groupView(g), nil
}

func (m *memStore) GroupByCode(_ context.Context, code string) (*model.Group, error) {
	for _, g := range m.groups {
		if g.ParticipationCode == code {
			return m.groupView(g), nil
		}
	}
	return nil, apperror.InvalidCode()
}

// groupView mirrors the SQL read path: owner username and member count
// are derived, not stored.
func (m *memStore) groupView(g *model.Group) *model.Group {
	clone := *g
	if owner, ok := m.users[g.OwnerID]; ok {
		clone.OwnerUsername = owner.Username
	}
	clone.MemberCount = 0
	for _, gid := range m.membership {
		if gid == g.ID {
			clone.MemberCount++
		}
	}
	return &clone
}

func (m *memStore) ParticipationCodeExists(_ context.Context, code string) (bool, error) {
	for _, g := range m.groups {
		if g.ParticipationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) PublicGroups(_ context.Context, nameFilter string) ([]model.Group, error) {
	var out []model.Group
	filter := strings.ToLower(nameFilter)
	for _, g := range m.groups {
		if !g.IsPublic {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(g.Name), filter) {
			continue
		}
		out = append(out, *m.groupView(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) PublicGroupsByDistance(_ context.Context) ([]model.Group, error) {
	var out []model.Group
	for _, g := range m.groups {
		if g.IsPublic {
			out = append(out, *m.groupView(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDistanceMeters != out[j].TotalDistanceMeters {
			return out[i].TotalDistanceMeters > out[j].TotalDistanceMeters
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memStore) DeleteGroup(_ context.Context, id string) error {
	delete(m.groups, id)
	return nil
}

func (m *memStore) AddDistance(_ context.Context, groupID string, meters float64) error {
	g, ok := m.groups[groupID]
	if !ok {
		return apperror.GroupNotFound(groupID)
	}
	g.TotalDistanceMeters += meters
	return nil
}

func (m *memStore) AddMember(_ context.Context, groupID, userID string) error {
	m.membership[userID] = groupID
	return nil
}

func (m *memStore) RemoveMember(_ context.Context, groupID, userID string) error {
	if m.membership[userID] == groupID {
		delete(m.membership, userID)
	}
	return nil
}

func (m *memStore) RemoveAllMembers(_ context.Context, groupID string) error {
	for uid, gid := range m.membership {
		if gid == groupID {
			delete(m.membership, uid)
		}
	}
	return nil
}

func (m *memStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return m.membership[userID] == groupID, nil
}

func (m *memStore) GroupIDForUser(_ context.Context, userID string) (string, error) {
	return m.membership[userID], nil
}

func (m *memStore) GroupMembers(_ context.Context, groupID string) ([]model.Member, error) {
	var out []model.Member
	for uid, gid := range m.membership {
		if gid == groupID {
			out = append(out, model.Member{ID: uid, Username: m.users[uid].Username})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memStore) CreateWalkLog(_ context.Context, log *model.WalkLog) error {
	log.ID = m.id("walk")
	log.CreatedAt = time.Now()
	clone := *log
	m.walkLogs[log.ID] = &clone
	return nil
}

func (m *memStore) WalkLogByID(_ context.Context, id string) (*model.WalkLog, error) {
	l, ok := m.walkLogs[id]
	if !ok {
		return nil, apperror.NotFound("walk log", id)
	}
	clone := *l
	return &clone, nil
}

func (m *memStore) WalkLogsByUser(_ context.Context, userID string) ([]model.WalkLog, error) {
	var out []model.WalkLog
	for _, l := range m.walkLogs {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memStore) WalkLogsByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.WalkLog, error) {
	var out []model.WalkLog
	for _, l := range m.walkLogs {
		if l.UserID == userID && !l.StartTime.Before(from) && l.StartTime.Before(to) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memStore) TotalDistanceByUsers(_ context.Context, userIDs []string) (map[string]float64, error) {
	totals := make(map[string]float64)
	for _, id := range userIDs {
		for _, l := range m.walkLogs {
			if l.UserID == id && l.DistanceMeters != nil {
				totals[id] += *l.DistanceMeters
			}
		}
	}
	return totals, nil
}

func (m *memStore) PublishRoute(_ context.Context, id, routeName, routeDescription string) error {
	l, ok := m.walkLogs[id]
	if !ok {
		return apperror.NotFound("walk log", id)
	}
	l.IsPublicRoute = true
	l.RouteName = routeName
	l.RouteDescription = routeDescription
	return nil
}

func (m *memStore) PublicRoutes(_ context.Context) ([]model.WalkLog, error) {
	var out []model.WalkLog
	for _, l := range m.walkLogs {
		if l.IsPublicRoute {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

func (m *memStore) Close() error { return nil }
