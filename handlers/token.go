// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/tablevote/server/auth"
	"github.com/tablevote/server/middleware"
	"github.com/tablevote/server/models"
)

// IssueToken handles POST /token. Tokens are deterministic per user and
// day, so asking twice on the same day returns the same string, and the
// stored copy is simply refreshed.
func (h *AccountHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var passhash, createdAt string
	err := h.db.QueryRow(`
		SELECT passhash, created_at FROM users WHERE username = $1
	`, req.Username).Scan(&passhash, &createdAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User does not exist")
		return
	}
	if err != nil {
		slog.Error("failed to load user", "username", req.Username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !auth.VerifyPassword(passhash, req.Password) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	day := h.today()
	token := auth.DailyToken(req.Username, createdAt, day)
	if _, err := h.db.Exec(`
		UPDATE users SET token = $1, token_issued_on = $2 WHERE username = $3
	`, token, day, req.Username); err != nil {
		slog.Error("failed to store token", "username", req.Username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	slog.Info("token issued", "username", req.Username, "day", day)
	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{Token: token})
}
