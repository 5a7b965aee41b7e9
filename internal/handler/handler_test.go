package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjlee/walkinggo/internal/server"
)

// newTestRouter spins up the full router over an in-memory database, so
// these tests exercise the real handler/service/repository chain.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := server.New(server.Config{
		Port:      0,
		DBPath:    ":memory:",
		JWTSecret: "handler-test-secret-32-chars-ok!",
	}, logger)
	require.NoError(t, err)
	return srv.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// signupAndLogin registers a user and returns a bearer token.
func signupAndLogin(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":        username,
		"password":        "pw123456",
		"passwordConfirm": "pw123456",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return loginToken(t, router, username)
}

// loginToken logs an already registered user in and returns the token.
func loginToken(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "pw123456",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	t.Run("signup and login", func(t *testing.T) {
		token := signupAndLogin(t, router, "alice")
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username":        "alice",
			"password":        "other-pw",
			"passwordConfirm": "other-pw",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("signup accepts profile seeds", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]any{
			"username":         "carol",
			"password":         "pw123456",
			"passwordConfirm":  "pw123456",
			"weightKg":         64.0,
			"targetDistanceKm": 5.0,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		token := loginToken(t, router, "carol")
		rr = doJSON(t, router, http.MethodGet, "/api/users/me", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var profile struct {
			User struct {
				WeightKg         *float64 `json:"weightKg"`
				TargetDistanceKm *float64 `json:"targetDistanceKm"`
			} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
		require.NotNil(t, profile.User.WeightKg)
		assert.Equal(t, 64.0, *profile.User.WeightKg)
		require.NotNil(t, profile.User.TargetDistanceKm)
		assert.Equal(t, 5.0, *profile.User.TargetDistanceKm)
	})

	t.Run("protected route without token is 401", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAnonymousBrowsing(t *testing.T) {
	router := newTestRouter(t)
	alice := signupAndLogin(t, router, "alice")

	rr := doJSON(t, router, http.MethodPost, "/api/groups", alice, map[string]any{
		"name":     "Morning Walkers",
		"isPublic": true,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var group struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&group))

	// Group and route browsing works without a token.
	for _, path := range []string{
		"/api/groups/public",
		"/api/groups/ranked-by-distance",
		"/api/groups/" + group.ID,
		"/api/groups/" + group.ID + "/members",
		"/api/routes/recommended",
	} {
		rr := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, "GET %s anonymously: %s", path, rr.Body.String())
	}

	// Per-user reads and writes still demand a token.
	for _, ep := range []struct{ method, path string }{
		{http.MethodGet, "/api/groups/" + group.ID + "/details"},
		{http.MethodPost, "/api/groups/" + group.ID + "/join-public"},
		{http.MethodGet, "/api/walk-logs/my"},
	} {
		rr := doJSON(t, router, ep.method, ep.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s anonymously", ep.method, ep.path)
	}
}

func TestGroupLifecycle(t *testing.T) {
	router := newTestRouter(t)
	alice := signupAndLogin(t, router, "alice")
	bob := signupAndLogin(t, router, "bob")

	var groupID string

	t.Run("create public group", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/groups", alice, map[string]any{
			"name":        "Morning Walkers",
			"description": "dawn walks along the river",
			"isPublic":    true,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var group struct {
			ID          string `json:"id"`
			MemberCount int    `json:"memberCount"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&group))
		assert.Equal(t, 1, group.MemberCount)
		groupID = group.ID
	})

	t.Run("second group for same user conflicts", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/groups", alice, map[string]any{
			"name":     "Second Group",
			"isPublic": true,
		})
		assert.Equal(t, http.StatusConflict, rr.Code)

		var errRes struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "already_in_group", errRes.Error)
	})

	t.Run("bob joins", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/join-public", bob, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	})

	t.Run("rejoining conflicts", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/join-public", bob, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("owner cannot leave with members present", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/api/groups/"+groupID+"/leave", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/api/groups/"+groupID, bob, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("member leaves", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/api/groups/"+groupID+"/leave", bob, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/api/groups/"+groupID, alice, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = doJSON(t, router, http.MethodGet, "/api/groups/"+groupID, alice, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPrivateGroupJoin(t *testing.T) {
	router := newTestRouter(t)
	alice := signupAndLogin(t, router, "alice")
	bob := signupAndLogin(t, router, "bob")

	rr := doJSON(t, router, http.MethodPost, "/api/groups", alice, map[string]any{
		"name":              "Secret Club",
		"isPublic":          false,
		"participationCode": "445566",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	t.Run("wrong code is 404", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/groups/join", bob, map[string]string{
			"participationCode": "000000",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("right code joins", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/api/groups/join", bob, map[string]string{
			"participationCode": "445566",
		})
		assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var group struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&group))
		assert.Equal(t, "Secret Club", group.Name)
	})

	t.Run("code suggestion is well formed", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/groups/code", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			ParticipationCode string `json:"participationCode"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Regexp(t, `^[0-9]{6}$`, res.ParticipationCode)
	})
}

func TestWalkLogsAndRanking(t *testing.T) {
	router := newTestRouter(t)
	alice := signupAndLogin(t, router, "alice")
	bob := signupAndLogin(t, router, "bob")

	// Two single-member public groups.
	for i, token := range []string{alice, bob} {
		rr := doJSON(t, router, http.MethodPost, "/api/groups", token, map[string]any{
			"name":     fmt.Sprintf("Group %c", 'A'+i),
			"isPublic": true,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	saveWalk := func(token string, meters float64) {
		rr := doJSON(t, router, http.MethodPost, "/api/walk-logs", token, map[string]any{
			"startTime":      "2026-03-10T07:00:00Z",
			"endTime":        "2026-03-10T07:30:00Z",
			"distanceMeters": meters,
			"steps":          4000,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	saveWalk(alice, 2500)
	saveWalk(bob, 7000)

	t.Run("ranking orders by distance", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/groups/ranked-by-distance", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var ranked []struct {
			Name            string  `json:"name"`
			TotalDistanceKm float64 `json:"totalDistanceKm"`
			Rank            int     `json:"rank"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&ranked))
		require.Len(t, ranked, 2)
		assert.Equal(t, "Group B", ranked[0].Name)
		assert.Equal(t, 1, ranked[0].Rank)
		assert.Equal(t, 7.0, ranked[0].TotalDistanceKm)
		assert.Equal(t, "Group A", ranked[1].Name)
		assert.Equal(t, 2, ranked[1].Rank)
	})

	t.Run("my walk history", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/walk-logs/my", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var logs []struct {
			DistanceMeters float64 `json:"distanceMeters"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&logs))
		require.Len(t, logs, 1)
		assert.Equal(t, 2500.0, logs[0].DistanceMeters)
	})

	t.Run("monthly activity", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/walk-logs/activity?year=2026&month=3", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			ActiveDays []string `json:"activeDays"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, []string{"2026-03-10"}, res.ActiveDays)
	})

	t.Run("invalid date query is 400", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/walk-logs/date?date=March", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
