// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/tablevote/server/auth"
	"github.com/tablevote/server/cliparse"
	"github.com/tablevote/server/middleware"
	"github.com/tablevote/server/models"
)

// AccountHandler serves account registration, profile updates, deletion,
// and session token issuance.
type AccountHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewAccountHandler(db *sql.DB, cfg cliparse.Config) *AccountHandler {
	return &AccountHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *AccountHandler) today() string {
	return h.now().UTC().Format(models.DateLayout)
}

// Register handles POST /users. New accounts start unverified; an
// operator flips the verified flag out of band before the account can
// act on groups or votes.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.FullName == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username, full_name and password are required")
		return
	}

	passhash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	createdAt := h.now().UTC().Format(time.RFC3339)
	_, err = h.db.Exec(`
		INSERT INTO users (username, full_name, passhash, verified, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, req.Username, req.FullName, passhash, createdAt)
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "username", req.Username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	slog.Info("user registered", "username", req.Username)
	middleware.JSONResponse(w, http.StatusCreated, models.User{
		Username:  req.Username,
		FullName:  req.FullName,
		Verified:  false,
		CreatedAt: createdAt,
	})
}

// Update handles PUT /users/me. Fields absent from the body are left
// unchanged.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.FullName == nil && req.Password == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if req.FullName != nil {
		if _, err := h.db.Exec(`UPDATE users SET full_name = $1 WHERE username = $2`, *req.FullName, user.Username); err != nil {
			slog.Error("failed to update full name", "username", user.Username, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		passhash, err := auth.HashPassword(*req.Password)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		if _, err := h.db.Exec(`UPDATE users SET passhash = $1 WHERE username = $2`, passhash, user.Username); err != nil {
			slog.Error("failed to update password", "username", user.Username, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /users/me. Owned groups and places go with the
// account via the schema's cascade rules.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}

	if _, err := h.db.Exec(`DELETE FROM users WHERE username = $1`, user.Username); err != nil {
		slog.Error("failed to delete user", "username", user.Username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	slog.Info("user deleted", "username", user.Username)
	w.WriteHeader(http.StatusNoContent)
}
