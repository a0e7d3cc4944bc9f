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

// PlaceHandler serves the place catalog. Places are owned by the user
// who created them (their maintainer) and can be attached to any number
// of groups.
type PlaceHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewPlaceHandler(db *sql.DB, cfg cliparse.Config) *PlaceHandler {
	return &PlaceHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *PlaceHandler) today() string {
	return h.now().UTC().Format(models.DateLayout)
}

// List handles GET /places, returning places the caller maintains plus
// places attached to any group they belong to.
func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, name, owner FROM places WHERE owner = $1
		UNION
		SELECT p.id, p.name, p.owner
		FROM places p
		JOIN group_places gp ON gp.place_id = p.id
		JOIN group_members m ON m.group_id = gp.group_id
		WHERE m.username = $1
		ORDER BY id
	`, user.Username)
	if err != nil {
		slog.Error("failed to list places", "username", user.Username, "error", err)
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

// Create handles POST /places.
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}

	var req models.CreatePlaceRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	var placeID int64
	err := h.db.QueryRow(`
		INSERT INTO places (name, owner) VALUES ($1, $2) RETURNING id
	`, req.Name, user.Username).Scan(&placeID)
	if err != nil {
		slog.Error("failed to insert place", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create place")
		return
	}

	slog.Info("place created", "placeID", placeID, "maintainer", user.Username)
	middleware.JSONResponse(w, http.StatusCreated, models.CreatePlaceResponse{ID: placeID})
}

// Update handles PUT /places/{id}. Maintainer only.
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}
	placeID, ok := pathID(w, r)
	if !ok {
		return
	}

	place, err := getPlace(h.db, placeID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Place not found")
		return
	}
	if err != nil {
		slog.Error("failed to load place", "placeID", placeID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if place.Owner != user.Username {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not maintainer of this place")
		return
	}

	var req models.UpdatePlaceRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.Name == nil && req.Maintainer == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if req.Name != nil {
		if _, err := h.db.Exec(`UPDATE places SET name = $1 WHERE id = $2`, *req.Name, placeID); err != nil {
			slog.Error("failed to update place", "placeID", placeID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update place")
			return
		}
		place.Name = *req.Name
	}
	if req.Maintainer != nil {
		exists, err := userExists(h.db, *req.Maintainer)
		if err != nil {
			slog.Error("failed to check new maintainer", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "New maintainer not found")
			return
		}
		if _, err := h.db.Exec(`UPDATE places SET owner = $1 WHERE id = $2`, *req.Maintainer, placeID); err != nil {
			slog.Error("failed to transfer place", "placeID", placeID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update place")
			return
		}
		place.Owner = *req.Maintainer
	}

	middleware.JSONResponse(w, http.StatusOK, place)
}

// Delete handles DELETE /places/{id}. Maintainer only; attachments and
// ballot lines referencing the place cascade away with it.
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, w, r, h.today())
	if !ok {
		return
	}
	if !requireVerified(w, user) {
		return
	}
	placeID, ok := pathID(w, r)
	if !ok {
		return
	}

	place, err := getPlace(h.db, placeID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Place not found")
		return
	}
	if err != nil {
		slog.Error("failed to load place", "placeID", placeID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if place.Owner != user.Username {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not maintainer of this place")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM places WHERE id = $1`, placeID); err != nil {
		slog.Error("failed to delete place", "placeID", placeID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete place")
		return
	}

	slog.Info("place deleted", "placeID", placeID)
	w.WriteHeader(http.StatusNoContent)
}
