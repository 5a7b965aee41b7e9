package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/groupcode"
	"github.com/sjlee/walkinggo/internal/model"
)

func newUserFixture(t *testing.T, usernames ...string) (*UserService, *memStore) {
	t.Helper()
	store := newMemStore()
	for _, name := range usernames {
		if err := store.CreateUser(context.Background(), &model.User{Username: name}); err != nil {
			t.Fatalf("CreateUser(%q): %v", name, err)
		}
	}
	return NewUserService(store, discardLogger()), store
}

func TestProfile_IncludesCurrentGroup(t *testing.T) {
	svc, store := newUserFixture(t, "alice")
	ctx := context.Background()

	profile, err := svc.Profile(ctx, "alice")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Group != nil {
		t.Error("unaffiliated profile should have no group")
	}

	groups := NewGroupService(store, groupcode.NewGenerator(), discardLogger())
	g, err := groups.CreateGroup(ctx, "Walkers", "", true, "", "alice")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	profile, err = svc.Profile(ctx, "alice")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Group == nil || profile.Group.ID != g.ID {
		t.Errorf("profile group = %v, want %q", profile.Group, g.ID)
	}
}

func TestProfile_UnknownUser(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Profile(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateWeight(t *testing.T) {
	svc, store := newUserFixture(t, "alice")
	ctx := context.Background()

	if err := svc.UpdateWeight(ctx, "alice", 72.5); err != nil {
		t.Fatalf("UpdateWeight: %v", err)
	}
	user, _ := store.UserByUsername(ctx, "alice")
	if user.WeightKg == nil || *user.WeightKg != 72.5 {
		t.Errorf("weight = %v, want 72.5", user.WeightKg)
	}

	for _, bad := range []float64{0, -5, 501} {
		if err := svc.UpdateWeight(ctx, "alice", bad); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("UpdateWeight(%v) error = %v, want validation error", bad, err)
		}
	}
}

func TestUpdateTargetDistance(t *testing.T) {
	svc, store := newUserFixture(t, "alice")
	ctx := context.Background()

	if err := svc.UpdateTargetDistance(ctx, "alice", 5); err != nil {
		t.Fatalf("UpdateTargetDistance: %v", err)
	}
	user, _ := store.UserByUsername(ctx, "alice")
	if user.TargetDistanceKm == nil || *user.TargetDistanceKm != 5 {
		t.Errorf("target = %v, want 5", user.TargetDistanceKm)
	}

	if err := svc.UpdateTargetDistance(ctx, "alice", -1); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("negative target error = %v, want validation error", err)
	}
}
