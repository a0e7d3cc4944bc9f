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

// VotingHandler serves ballot casting. A user gets one ballot per day
// across all groups, enforced both by an explicit check and by the
// votes table's uniqueness constraint so a race between two casts still
// yields exactly one row.
type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *VotingHandler) today() string {
	return h.now().UTC().Format(models.DateLayout)
}

// CastVote handles POST /groups/{id}/vote. Validation runs in a fixed
// order: group, membership, one-per-day, ballot size and duplicates,
// place existence, place attachment. The ballot must list exactly
// min(configured ballot size, group place count) places; a group with
// no places takes an empty ballot, which still burns the day's vote.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	day := h.today()
	user, ok := requireUser(h.db, w, r, day)
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

	var voted bool
	err = h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM votes WHERE username = $1 AND cast_on = $2)
	`, user.Username, day).Scan(&voted)
	if err != nil {
		slog.Error("failed to check prior vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if voted {
		middleware.ErrorResponse(w, http.StatusNotAcceptable, "User already voted today")
		return
	}

	var req models.CastVoteRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}
	if req.Choices == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choices is required")
		return
	}

	var placeCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM group_places WHERE group_id = $1
	`, groupID).Scan(&placeCount)
	if err != nil {
		slog.Error("failed to count group places", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	required := h.cfg.PlacesPerVote
	if placeCount < required {
		required = placeCount
	}

	if dups := duplicateIDs(req.Choices); len(dups) > 0 {
		middleware.ErrorDetails(w, http.StatusNotAcceptable, models.ErrorResponse{
			Message:    "Duplicate places in the vote",
			Duplicates: dups,
		})
		return
	}
	if len(req.Choices) != required {
		middleware.ErrorDetails(w, http.StatusNotAcceptable, models.ErrorResponse{
			Message:  "The vote must list the required number of places",
			Required: &required,
		})
		return
	}

	// Choices are checked in ballot order; the first offender is the one
	// reported.
	for _, placeID := range req.Choices {
		if _, err := getPlace(h.db, placeID); err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Place not found")
			return
		} else if err != nil {
			slog.Error("failed to check place", "placeID", placeID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		in, err := placeInGroup(h.db, placeID, groupID)
		if err != nil {
			slog.Error("failed to check place attachment", "placeID", placeID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !in {
			middleware.ErrorDetails(w, http.StatusNotFound, models.ErrorResponse{
				Message: "Places are not part of this group",
				Places:  []int64{placeID},
			})
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}
	defer tx.Rollback()

	var voteID int64
	err = tx.QueryRow(`
		INSERT INTO votes (username, group_id, cast_on) VALUES ($1, $2, $3) RETURNING id
	`, user.Username, groupID, day).Scan(&voteID)
	if isUniqueViolation(err) {
		// Lost a race with a concurrent cast by the same user.
		middleware.ErrorResponse(w, http.StatusNotAcceptable, "User already voted today")
		return
	}
	if err != nil {
		slog.Error("failed to insert vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}
	for position, placeID := range req.Choices {
		if _, err := tx.Exec(`
			INSERT INTO casted_votes (vote_id, position, place_id) VALUES ($1, $2, $3)
		`, voteID, position, placeID); err != nil {
			slog.Error("failed to insert ballot line", "voteID", voteID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit vote", "voteID", voteID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}

	slog.Info("vote cast", "username", user.Username, "groupID", groupID, "day", day)
	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{Message: "Vote cast"})
}

// duplicateIDs returns each id that appears more than once, listed once.
func duplicateIDs(ids []int64) []int64 {
	seen := make(map[int64]int, len(ids))
	for _, id := range ids {
		seen[id]++
	}
	dups := []int64{}
	for _, id := range ids {
		if seen[id] > 1 {
			dups = append(dups, id)
			seen[id] = 0
		}
	}
	if len(dups) == 0 {
		return nil
	}
	return dups
}
