package handler

import (
	"log/slog"
	"net/http"

	"github.com/sjlee/walkinggo/internal/service"
)

// GroupHandler serves the group lifecycle endpoints.
type GroupHandler struct {
	groups *service.GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a GroupHandler.
func NewGroupHandler(groups *service.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

type createGroupRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsPublic          bool   `json:"isPublic"`
	ParticipationCode string `json:"participationCode"`
}

// HandleCreate creates a group owned by the caller.
//
// POST /api/groups
func (h *GroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), req.Name, req.Description, req.IsPublic, req.ParticipationCode, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

type suggestCodeResponse struct {
	ParticipationCode string `json:"participationCode"`
}

// HandleSuggestCode returns a free participation code the client may use
// when creating a private group.
//
// GET /api/groups/code
func (h *GroupHandler) HandleSuggestCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.groups.SuggestCode(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestCodeResponse{ParticipationCode: code})
}

// HandlePublicGroups lists public groups, optionally filtered by ?q=.
//
// GET /api/groups/public
func (h *GroupHandler) HandlePublicGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.PublicGroups(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleRanking returns the public-group distance leaderboard.
//
// GET /api/groups/ranked-by-distance
func (h *GroupHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.groups.RankedPublicGroupsByDistance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

// HandleGroup returns a single group.
//
// GET /api/groups/{groupID}
func (h *GroupHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GroupDetails(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleGroupDetails returns the group with member distances. The
// participation code appears only for members.
//
// GET /api/groups/{groupID}/details
func (h *GroupHandler) HandleGroupDetails(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	detail, err := h.groups.GroupDetailsWithMemberDistances(r.Context(), r.PathValue("groupID"), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleMembers lists the group's members.
//
// GET /api/groups/{groupID}/members
func (h *GroupHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.groups.GroupMembers(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// HandleJoinPublic adds the caller to a public group.
//
// POST /api/groups/{groupID}/join-public
func (h *GroupHandler) HandleJoinPublic(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	if err := h.groups.JoinPublicGroup(r.Context(), r.PathValue("groupID"), username); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type joinPrivateRequest struct {
	ParticipationCode string `json:"participationCode"`
}

// HandleJoinPrivate adds the caller to the private group matching the
// participation code.
//
// POST /api/groups/join
func (h *GroupHandler) HandleJoinPrivate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req joinPrivateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.JoinPrivateGroup(r.Context(), req.ParticipationCode, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleLeave removes the caller from the group.
//
// DELETE /api/groups/{groupID}/leave
func (h *GroupHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	if err := h.groups.LeaveGroup(r.Context(), r.PathValue("groupID"), username); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete deletes the group. Owner only.
//
// DELETE /api/groups/{groupID}
func (h *GroupHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	if err := h.groups.DeleteGroup(r.Context(), r.PathValue("groupID"), username); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
