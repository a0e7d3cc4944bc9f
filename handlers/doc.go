// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the TableVote API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AccountHandler: Registration, profile updates, deletion, token issuance
  - GroupHandler: Group lifecycle, membership, place attachment
  - PlaceHandler: Place catalog (create, update, delete, list)
  - VotingHandler: Daily ballot casting
  - TallyHandler: Daily standings per group

Handlers are created via constructor functions that accept *sql.DB and Config:

	groupHandler := handlers.NewGroupHandler(db, cfg)

Each handler also carries a clock function (time.Now by default) so tests
can pin the current day.

# Authentication

Most endpoints require a daily session token in the Authorization header:

	Authorization: Bearer <token>

Tokens are obtained from POST /token with username and password, and are
only valid on the day they were derived for. requireUser in guards.go
resolves the token to a user or writes the appropriate error: 401 with
no bearer token, 404 when the token matches no account, 400 when it
matches an account but is stale.

Group and place mutations additionally require a verified account (412
otherwise); ballot casting does not.

# Voting Flow

A user casts at most one ballot per day, across all of their groups.
CastVote validates in a fixed order:

 1. Group exists (404)
 2. Caller is a member (403)
 3. Caller has not voted today in any group (406)
 4. Ballot has no duplicates and exactly the required number of places (406)
 5. Every listed place exists and is attached to the group, checked in
    ballot order with the first offender reported (404)

The required ballot size is min(configured ballot size, number of places
attached to the group).

# Tally

The scoring lives in tally.go:

	tally, err := computeTally(db, groupID, day, ballotCap)

A ballot's first choice scores 1.0 and each later position drops by
1/ballot-size, rounded to one decimal. The tally reports only places
that received points, worst first, and is closed once every member of
the group has voted today.
*/
package handlers
