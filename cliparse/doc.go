// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3542)
  - DatabaseURL: Connection string or sqlite path (required)
  - DatabaseType: "postgres" or "sqlite" (default: sqlite)
  - PlacesPerVote: Maximum ballot size (default: 3)

# CLI Flags

	-p       Server port
	-d       Database URL
	-t       Database type
	-places  Places per vote

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	PLACES_PER_VOTE → -places

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if values are missing or out of range:

  - DATABASE_URL must be provided
  - DATABASE_TYPE must be "postgres" or "sqlite"
  - PLACES_PER_VOTE must be at least 1
*/
package cliparse
