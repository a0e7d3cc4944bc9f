// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the TableVote API server.

TableVote is a daily lunch-voting service for groups: each member ranks
a short list of places once per day, and the group's tally closes when
everyone has voted.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=lunch.db go run main.go

Or with flags:

	go run main.go -p 3542 -d "postgres://..." -t postgres

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string (postgres) or file path (sqlite)

Optional settings:

  - PORT (-p): Server port (default: 3542)
  - DATABASE_TYPE (-t): "postgres" or "sqlite" (default: sqlite)
  - PLACES_PER_VOTE (-places): Maximum ballot size (default: 3)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (accounts, groups, places, voting, tally)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Daily token derivation and password hashing
  - db: Schema creation for both supported dialects
*/
package main
