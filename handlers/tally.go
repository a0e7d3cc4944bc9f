// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/tablevote/server/cliparse"
	"github.com/tablevote/server/middleware"
	"github.com/tablevote/server/models"
)

// TallyHandler serves the day's standings for a group.
type TallyHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewTallyHandler(db *sql.DB, cfg cliparse.Config) *TallyHandler {
	return &TallyHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *TallyHandler) today() string {
	return h.now().UTC().Format(models.DateLayout)
}

// GetTally handles GET /groups/{id}/tally. Any authenticated user may
// read a group's standings.
func (h *TallyHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	day := h.today()
	if _, ok := requireUser(h.db, w, r, day); !ok {
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

	tally, err := computeTally(h.db, groupID, day, h.cfg.PlacesPerVote)
	if err != nil {
		slog.Error("failed to compute tally", "groupID", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tally)
}

// computeTally scores today's ballots for a group. A ballot's first
// choice is worth 1.0 and each later position drops by 1/ballot-size,
// both rounded to one decimal. Results carry only places that received
// points, worst first; the tally is closed once every member has voted.
func computeTally(db *sql.DB, groupID int64, day string, ballotCap int) (models.TallyResponse, error) {
	var placeCount int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM group_places WHERE group_id = $1
	`, groupID).Scan(&placeCount); err != nil {
		return models.TallyResponse{}, err
	}
	if placeCount == 0 {
		return models.TallyResponse{Closed: true, Results: []models.PlaceScore{}}, nil
	}

	ballotSize := ballotCap
	if placeCount < ballotSize {
		ballotSize = placeCount
	}
	decrement := round1(1.0 / float64(ballotSize))

	rows, err := db.Query(`
		SELECT cv.place_id, cv.position, p.name
		FROM casted_votes cv
		JOIN votes v ON v.id = cv.vote_id
		JOIN places p ON p.id = cv.place_id
		WHERE v.group_id = $1 AND v.cast_on = $2
	`, groupID, day)
	if err != nil {
		return models.TallyResponse{}, err
	}
	defer rows.Close()

	points := map[int64]float64{}
	names := map[int64]string{}
	for rows.Next() {
		var placeID int64
		var position int
		var name string
		if err := rows.Scan(&placeID, &position, &name); err != nil {
			return models.TallyResponse{}, err
		}
		points[placeID] += round1(1.0 - float64(position)*decrement)
		names[placeID] = name
	}
	if err := rows.Err(); err != nil {
		return models.TallyResponse{}, err
	}

	results := make([]models.PlaceScore, 0, len(points))
	for placeID, pts := range points {
		results = append(results, models.PlaceScore{
			ID:     placeID,
			Name:   names[placeID],
			Points: round1(pts),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Points != results[j].Points {
			return results[i].Points < results[j].Points
		}
		return results[i].ID < results[j].ID
	})

	var votesToday, memberCount int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM votes WHERE group_id = $1 AND cast_on = $2
	`, groupID, day).Scan(&votesToday); err != nil {
		return models.TallyResponse{}, err
	}
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM group_members WHERE group_id = $1
	`, groupID).Scan(&memberCount); err != nil {
		return models.TallyResponse{}, err
	}

	return models.TallyResponse{
		Closed:  votesToday == memberCount,
		Results: results,
	}, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
