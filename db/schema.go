// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS. The dialect must be
// "postgres" or "sqlite"; the schemas differ only in how generated ids
// are declared.
func CreateSchema(db *sql.DB, dialect string) error {
	var schema string
	switch dialect {
	case "postgres":
		schema = schemaPostgres
	case "sqlite":
		schema = schemaSQLite
	default:
		return fmt.Errorf("unknown database dialect %q", dialect)
	}

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schemaPostgres = `
-- Users
CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    passhash TEXT NOT NULL,
    token TEXT,
    token_issued_on TEXT,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_token ON users(token);

-- Groups
CREATE TABLE IF NOT EXISTS lunch_groups (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE
);

-- Places
CREATE TABLE IF NOT EXISTS places (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE
);

-- Group membership (user <-> group)
CREATE TABLE IF NOT EXISTS group_members (
    group_id BIGINT NOT NULL REFERENCES lunch_groups(id) ON DELETE CASCADE,
    username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    PRIMARY KEY (group_id, username)
);

-- Place set per group (group <-> place)
CREATE TABLE IF NOT EXISTS group_places (
    group_id BIGINT NOT NULL REFERENCES lunch_groups(id) ON DELETE CASCADE,
    place_id BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
    PRIMARY KEY (group_id, place_id)
);

-- Votes: one ballot per user per calendar day, across all groups
CREATE TABLE IF NOT EXISTS votes (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    group_id BIGINT NOT NULL REFERENCES lunch_groups(id) ON DELETE CASCADE,
    cast_on TEXT NOT NULL,
    UNIQUE (username, cast_on)
);

CREATE INDEX IF NOT EXISTS idx_votes_group_day ON votes(group_id, cast_on);

-- Ranked choices inside a vote
CREATE TABLE IF NOT EXISTS casted_votes (
    vote_id BIGINT NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    place_id BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
    PRIMARY KEY (vote_id, position)
);
`

const schemaSQLite = `
-- Users
CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    passhash TEXT NOT NULL,
    token TEXT,
    token_issued_on TEXT,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_token ON users(token);

-- Groups
CREATE TABLE IF NOT EXISTS lunch_groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE
);

-- Places
CREATE TABLE IF NOT EXISTS places (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE
);

-- Group membership (user <-> group)
CREATE TABLE IF NOT EXISTS group_members (
    group_id INTEGER NOT NULL REFERENCES lunch_groups(id) ON DELETE CASCADE,
    username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    PRIMARY KEY (group_id, username)
);

-- Place set per group (group <-> place)
CREATE TABLE IF NOT EXISTS group_places (
    group_id INTEGER NOT NULL REFERENCES lunch_groups(id) ON DELETE CASCADE,
    place_id INTEGER NOT NULL REFERENCES places(id) ON DELETE CASCADE,
    PRIMARY KEY (group_id, place_id)
);

-- Votes: one ballot per user per calendar day, across all groups
CREATE TABLE IF NOT EXISTS votes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    group_id INTEGER NOT NULL REFERENCES lunch_groups(id) ON DELETE CASCADE,
    cast_on TEXT NOT NULL,
    UNIQUE (username, cast_on)
);

CREATE INDEX IF NOT EXISTS idx_votes_group_day ON votes(group_id, cast_on);

-- Ranked choices inside a vote
CREATE TABLE IF NOT EXISTS casted_votes (
    vote_id INTEGER NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    place_id INTEGER NOT NULL REFERENCES places(id) ON DELETE CASCADE,
    PRIMARY KEY (vote_id, position)
);
`
