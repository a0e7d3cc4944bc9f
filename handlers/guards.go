// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tablevote/server/auth"
	"github.com/tablevote/server/middleware"
	"github.com/tablevote/server/models"
)

// requireUser resolves the bearer token on a request to a user record.
// The token is looked up against the cached token column, then revalidated
// against today's derivation, so yesterday's token resolves the user but
// still fails as expired. On failure an error response has already been
// written and ok is false.
func requireUser(db *sql.DB, w http.ResponseWriter, r *http.Request, today string) (*models.User, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authorization required")
		return nil, false
	}
	token := strings.TrimPrefix(header, "Bearer ")

	var user models.User
	err := db.QueryRow(`
		SELECT username, full_name, passhash, token, token_issued_on, verified, created_at
		FROM users WHERE token = $1
	`, token).Scan(
		&user.Username, &user.FullName, &user.Passhash,
		&user.Token, &user.TokenIssuedOn, &user.Verified, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found (via token)")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to resolve token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}

	if err := auth.ValidateToken(token, user.Username, user.CreatedAt, today); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid token")
		return nil, false
	}

	return &user, true
}

// requireVerified gates mutating operations on the verified flag. On
// failure a 412 has already been written and the return is false.
func requireVerified(w http.ResponseWriter, user *models.User) bool {
	if !user.Verified {
		middleware.ErrorResponse(w, http.StatusPreconditionFailed, "Account not verified")
		return false
	}
	return true
}

// getGroup loads a group by id. Returns sql.ErrNoRows when absent.
func getGroup(db *sql.DB, groupID int64) (*models.Group, error) {
	var g models.Group
	err := db.QueryRow(`
		SELECT id, name, owner FROM lunch_groups WHERE id = $1
	`, groupID).Scan(&g.ID, &g.Name, &g.Owner)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// getPlace loads a place by id. Returns sql.ErrNoRows when absent.
func getPlace(db *sql.DB, placeID int64) (*models.Place, error) {
	var p models.Place
	err := db.QueryRow(`
		SELECT id, name, owner FROM places WHERE id = $1
	`, placeID).Scan(&p.ID, &p.Name, &p.Owner)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// isMember reports whether the user belongs to the group.
func isMember(db *sql.DB, username string, groupID int64) (bool, error) {
	var member bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND username = $2
		)
	`, groupID, username).Scan(&member)
	return member, err
}

// isAdmin reports whether the user owns the group.
func isAdmin(user *models.User, group *models.Group) bool {
	return group.Owner == user.Username
}

// placeInGroup reports whether the place belongs to the group's place set.
func placeInGroup(db *sql.DB, placeID, groupID int64) (bool, error) {
	var in bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM group_places
			WHERE group_id = $1 AND place_id = $2
		)
	`, groupID, placeID).Scan(&in)
	return in, err
}

// userExists reports whether the username resolves to an account.
func userExists(db *sql.DB, username string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	return exists, err
}

// pathID parses the {id} segment of a route. On failure a 400 has
// already been written and ok is false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// isUniqueViolation detects a uniqueness-constraint failure from either
// supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || // lib/pq
		strings.Contains(msg, "UNIQUE constraint failed") // modernc sqlite
}
