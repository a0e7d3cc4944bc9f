// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/tablevote/server/cliparse"
	"github.com/tablevote/server/middleware"
	"github.com/tablevote/server/models"
)

// GroupHandler serves group lifecycle, membership, and place-attachment
// endpoints. Admin-only operations are gated on group ownership.
type GroupHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewGroupHandler(db *sql.DB, cfg cliparse.Config) *GroupHandler {
	return &GroupHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *GroupHandler) today() string {
	return h.now().UTC().Format(models.DateLayout)
}

// List handles GET /groups, returning every group the caller belongs to
// with an admin flag on the ones they own.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT g.id, g.name, g.owner
		FROM lunch_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.username = $1
		ORDER BY g.id
	`, user.Username)
	if err != nil {
		slog.Error("failed to list groups", "username", user.Username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	groups := []models.GroupInfo{}
	for rows.Next() {
		var id int64
		var name, owner string
		if err := rows.Scan(&id, &name, &owner); err != nil {
			slog.Error("failed to scan group row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		groups = append(groups, models.GroupInfo{ID: id, Name: name, Admin: owner == user.Username})
	}

	middleware.JSONResponse(w, http.StatusOK, models.GroupListResponse{Groups: groups})
}

// Create handles POST /groups. The creator becomes the group's admin and
// its first member in the same transaction.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}

	var req models.CreateGroupRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}
	defer tx.Rollback()

	var groupID int64
	err = tx.QueryRow(`
		INSERT INTO lunch_groups (name, owner) VALUES ($1, $2) RETURNING id
	`, req.Name, user.Username).Scan(&groupID)
	if err != nil {
		slog.Error("failed to insert group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}
	if _, err := tx.Exec(`
		INSERT INTO group_members (group_id, username) VALUES ($1, $2)
	`, groupID, user.Username); err != nil {
		slog.Error("failed to insert owner membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	slog.Info("group created", "groupID", groupID, "owner", user.Username)
	middleware.JSONResponse(w, http.StatusCreated, models.CreateGroupResponse{ID: groupID})
}

// Update handles PUT /groups/{id}. Only the admin may rename the group
// or hand it to a new admin; a new admin is added to the member list if
// not already on it.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	group, err := getGroup(h.db, groupID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("failed to load group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !isAdmin(user, group) {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not admin")
		return
	}

	var req models.UpdateGroupRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.Name == nil && req.Admin == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if req.Admin != nil {
		exists, err := userExists(h.db, *req.Admin)
		if err != nil {
			slog.Error("failed to check new admin", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "New admin not found")
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update group")
		return
	}
	defer tx.Rollback()

	if req.Name != nil {
		if _, err := tx.Exec(`UPDATE lunch_groups SET name = $1 WHERE id = $2`, *req.Name, groupID); err != nil {
			slog.Error("failed to rename group", "groupID", groupID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update group")
			return
		}
		group.Name = *req.Name
	}
	if req.Admin != nil {
		if _, err := tx.Exec(`UPDATE lunch_groups SET owner = $1 WHERE id = $2`, *req.Admin, groupID); err != nil {
			slog.Error("failed to transfer group", "groupID", groupID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update group")
			return
		}
		if _, err := tx.Exec(`
			INSERT INTO group_members (group_id, username) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, groupID, *req.Admin); err != nil {
			slog.Error("failed to add new admin to members", "groupID", groupID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update group")
			return
		}
		group.Owner = *req.Admin
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit group update", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update group")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, group)
}

// Delete handles DELETE /groups/{id}. Memberships, place attachments,
// and the group's votes cascade with it.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	group, err := getGroup(h.db, groupID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("failed to load group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !isAdmin(user, group) {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not admin")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM lunch_groups WHERE id = $1`, groupID); err != nil {
		slog.Error("failed to delete group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete group")
		return
	}

	slog.Info("group deleted", "groupID", groupID)
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /groups/{id}/members for members of the group.
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := getGroup(h.db, groupID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	} else if err != nil {
		slog.Error("failed to load group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	member, err := isMember(h.db, user.Username, groupID)
	if err != nil {
		slog.Error("failed to check membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !member {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not member of this group")
		return
	}

	rows, err := h.db.Query(`
		SELECT u.username, u.full_name
		FROM users u
		JOIN group_members m ON m.username = u.username
		WHERE m.group_id = $1
		ORDER BY u.username
	`, groupID)
	if err != nil {
		slog.Error("failed to list members", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.MemberInfo{}
	for rows.Next() {
		var m models.MemberInfo
		if err := rows.Scan(&m.Username, &m.FullName); err != nil {
			slog.Error("failed to scan member row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		users = append(users, m)
	}

	middleware.JSONResponse(w, http.StatusOK, models.MemberListResponse{Users: users})
}

// AddMembers handles PUT /groups/{id}/members. The whole add list is
// checked before anything is written; usernames already on the member
// list are skipped rather than rejected.
func (h *GroupHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	group, err := getGroup(h.db, groupID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("failed to load group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !isAdmin(user, group) {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not admin")
		return
	}

	var req models.AddMembersRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if len(req.Usernames) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "usernames is required")
		return
	}

	for _, username := range req.Usernames {
		exists, err := userExists(h.db, username)
		if err != nil {
			slog.Error("failed to check user", "username", username, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "Some users in the add list do not exist")
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add members")
		return
	}
	defer tx.Rollback()

	for _, username := range req.Usernames {
		if _, err := tx.Exec(`
			INSERT INTO group_members (group_id, username) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, groupID, username); err != nil {
			slog.Error("failed to add member", "username", username, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add members")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit members", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add members")
		return
	}

	slog.Info("members added", "groupID", groupID, "count", len(req.Usernames))
	w.WriteHeader(http.StatusNoContent)
}

// ListPlaces handles GET /groups/{id}/places for members of the group.
func (h *GroupHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := getGroup(h.db, groupID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	} else if err != nil {
		slog.Error("failed to load group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	member, err := isMember(h.db, user.Username, groupID)
	if err != nil {
		slog.Error("failed to check membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !member {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not member of this group")
		return
	}

	rows, err := h.db.Query(`
		SELECT p.id, p.name, p.owner
		FROM places p
		JOIN group_places gp ON gp.place_id = p.id
		WHERE gp.group_id = $1
		ORDER BY p.id
	`, groupID)
	if err != nil {
		slog.Error("failed to list group places", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	places := []models.PlaceInfo{}
	for rows.Next() {
		var p models.PlaceInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.Maintainer); err != nil {
			slog.Error("failed to scan place row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		places = append(places, p)
	}

	middleware.JSONResponse(w, http.StatusOK, models.PlaceListResponse{Places: places})
}

// AttachPlaces handles PUT /groups/{id}/places. Same all-or-nothing
// shape as AddMembers: every id must resolve before any row is written.
func (h *GroupHandler) AttachPlaces(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	group, err := getGroup(h.db, groupID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("failed to load group", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !isAdmin(user, group) {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not admin")
		return
	}

	var req models.AttachPlacesRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if len(req.Places) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "places is required")
		return
	}

	for _, placeID := range req.Places {
		if _, err := getPlace(h.db, placeID); err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Some places in the add list do not exist")
			return
		} else if err != nil {
			slog.Error("failed to check place", "placeID", placeID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to attach places")
		return
	}
	defer tx.Rollback()

	for _, placeID := range req.Places {
		if _, err := tx.Exec(`
			INSERT INTO group_places (group_id, place_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, groupID, placeID); err != nil {
			slog.Error("failed to attach place", "placeID", placeID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to attach places")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit places", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to attach places")
		return
	}

	slog.Info("places attached", "groupID", groupID, "count", len(req.Places))
	w.WriteHeader(http.StatusNoContent)
}
