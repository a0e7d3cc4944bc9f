// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables for the given dialect
("postgres" or "sqlite"):

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes.

# Tables

The schema includes:

  - users: Accounts, cached daily token, verified flag
  - lunch_groups: Groups and their admin (owner)
  - places: Place catalog with maintainer (owner)
  - group_members: Group membership
  - group_places: Places attached to a group
  - votes: One ballot per user per day
  - casted_votes: Ordered ballot lines (position, place)

# Relationships

	users 1──* lunch_groups (owner)
	users 1──* places (owner)
	lunch_groups *──* users (via group_members)
	lunch_groups *──* places (via group_places)
	votes 1──* casted_votes

All foreign keys use ON DELETE CASCADE.

# Constraints

The one-ballot-per-day rule is backed by UNIQUE(username, cast_on) on
votes, so concurrent casts by the same user cannot both land.

# Indexes

Performance indexes on:

  - users.token
  - votes.(group_id, cast_on)
*/
package db
