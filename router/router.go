// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/tablevote/server/cliparse"
	"github.com/tablevote/server/handlers"
	"github.com/tablevote/server/middleware"
)

// apiIndex is the static route list served at the root.
var apiIndex = map[string]interface{}{
	"service": "tablevote",
	"version": "v1",
	"routes": []string{
		"GET /health",
		"POST /users",
		"PUT /users/me",
		"DELETE /users/me",
		"POST /token",
		"GET /groups",
		"POST /groups",
		"PUT /groups/{id}",
		"DELETE /groups/{id}",
		"GET /groups/{id}/members",
		"PUT /groups/{id}/members",
		"GET /groups/{id}/places",
		"PUT /groups/{id}/places",
		"GET /places",
		"POST /places",
		"PUT /places/{id}",
		"DELETE /places/{id}",
		"POST /groups/{id}/vote",
		"GET /groups/{id}/tally",
	},
}

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(db, cfg)
	groupHandler := handlers.NewGroupHandler(db, cfg)
	placeHandler := handlers.NewPlaceHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	tallyHandler := handlers.NewTallyHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Accounts and sessions
	mux.HandleFunc("POST /users", middleware.WithLogging(accountHandler.Register))
	mux.HandleFunc("PUT /users/me", middleware.WithLogging(accountHandler.Update))
	mux.HandleFunc("DELETE /users/me", middleware.WithLogging(accountHandler.Delete))
	mux.HandleFunc("POST /token", middleware.WithLogging(accountHandler.IssueToken))

	// Groups
	mux.HandleFunc("GET /groups", middleware.WithLogging(groupHandler.List))
	mux.HandleFunc("POST /groups", middleware.WithLogging(groupHandler.Create))
	mux.HandleFunc("PUT /groups/{id}", middleware.WithLogging(groupHandler.Update))
	mux.HandleFunc("DELETE /groups/{id}", middleware.WithLogging(groupHandler.Delete))
	mux.HandleFunc("GET /groups/{id}/members", middleware.WithLogging(groupHandler.ListMembers))
	mux.HandleFunc("PUT /groups/{id}/members", middleware.WithLogging(groupHandler.AddMembers))
	mux.HandleFunc("GET /groups/{id}/places", middleware.WithLogging(groupHandler.ListPlaces))
	mux.HandleFunc("PUT /groups/{id}/places", middleware.WithLogging(groupHandler.AttachPlaces))

	// Places
	mux.HandleFunc("GET /places", middleware.WithLogging(placeHandler.List))
	mux.HandleFunc("POST /places", middleware.WithLogging(placeHandler.Create))
	mux.HandleFunc("PUT /places/{id}", middleware.WithLogging(placeHandler.Update))
	mux.HandleFunc("DELETE /places/{id}", middleware.WithLogging(placeHandler.Delete))

	// Voting and standings
	mux.HandleFunc("POST /groups/{id}/vote", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /groups/{id}/tally", middleware.WithLogging(tallyHandler.GetTally))

	// Root endpoint: static API index
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, apiIndex)
	})

	return mux
}
