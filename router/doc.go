// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the TableVote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Accounts and sessions:

	POST   /users    - Register account
	PUT    /users/me - Update profile (token)
	DELETE /users/me - Delete account (token)
	POST   /token    - Issue today's session token

Groups (token; admin operations require group ownership):

	GET    /groups               - List caller's groups
	POST   /groups               - Create group
	PUT    /groups/{id}          - Rename or transfer (admin)
	DELETE /groups/{id}          - Delete group (admin)
	GET    /groups/{id}/members  - List members (member)
	PUT    /groups/{id}/members  - Add members (admin)
	GET    /groups/{id}/places   - List attached places (member)
	PUT    /groups/{id}/places   - Attach places (admin)

Places (token; updates require maintainership):

	GET    /places      - List visible places
	POST   /places      - Create place
	PUT    /places/{id} - Rename or transfer (maintainer)
	DELETE /places/{id} - Delete place (maintainer)

Voting (token, member):

	POST /groups/{id}/vote  - Cast today's ballot
	GET  /groups/{id}/tally - Today's standings

# Handler Initialization

The router creates handler instances with dependency injection:

	accountHandler := handlers.NewAccountHandler(db, cfg)
	groupHandler := handlers.NewGroupHandler(db, cfg)
	placeHandler := handlers.NewPlaceHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	tallyHandler := handlers.NewTallyHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
