package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	PlacesPerVote int
}

// DefaultPlacesPerVote caps how many ranked choices a ballot may carry
// when a group has at least that many places.
const DefaultPlacesPerVote = 3

// ParseFlags validates flags and fills in environment fallbacks
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("tablevote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (postgres DSN or sqlite path)")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Voting config
	fs.IntVar(&cfg.PlacesPerVote, "places", 0, "Ranked choices per ballot")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3542 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.PlacesPerVote == 0 {
		if placesStr := os.Getenv("PLACES_PER_VOTE"); placesStr != "" {
			places, err := strconv.Atoi(placesStr)
			if err != nil {
				return Config{}, errors.New("invalid PLACES_PER_VOTE env variable")
			}
			cfg.PlacesPerVote = places
		} else {
			cfg.PlacesPerVote = DefaultPlacesPerVote
		}
	}
	if cfg.PlacesPerVote < 1 {
		return Config{}, errors.New("places per vote must be at least 1")
	}

	return cfg, nil
}
