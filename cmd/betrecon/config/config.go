// Package config assembles runtime configuration for the betrecon CLI from
// viper-bound flags, environment variables, and an optional config file.
package config

import (
	"encoding/json"
	"os"

	"github.com/spf13/viper"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/pkg/errors"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBDriver string
	DBDSN    string

	LogLevel  string
	LogFormat string

	// TeamConfidenceThreshold gates game-matching queries; 0.7 by default.
	TeamConfidenceThreshold float64
	// OddsDriftPoints is informational-flag threshold for locked-odds drift.
	OddsDriftPoints int

	// Teams and TeamAliases configure the static team resolver. When both
	// are empty the CLI trusts spreadsheet names as-is.
	Teams       []string
	TeamAliases map[string]string

	// GamesFile points at a JSON fixture of game results served by the
	// static provider, for offline reconciliation runs.
	GamesFile string

	// Actor is recorded on audit entries for correct/import/rollback.
	Actor string
}

// SetDefaults registers defaults on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "betrecon.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("matching.team_confidence_threshold", 0.7)
	v.SetDefault("matching.odds_drift_points", 30)
	v.SetDefault("actor", "cli")
}

// Load materializes a Config from the viper instance and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBDriver:                v.GetString("db.driver"),
		DBDSN:                   v.GetString("db.dsn"),
		LogLevel:                v.GetString("log.level"),
		LogFormat:               v.GetString("log.format"),
		TeamConfidenceThreshold: v.GetFloat64("matching.team_confidence_threshold"),
		OddsDriftPoints:         v.GetInt("matching.odds_drift_points"),
		Teams:                   v.GetStringSlice("teams"),
		TeamAliases:             v.GetStringMapString("team_aliases"),
		GamesFile:               v.GetString("games_file"),
		Actor:                   v.GetString("actor"),
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "db.driver", nil).
			WithSuggestion("use postgres, sqlite, or memory").
			WithContext("driver", cfg.DBDriver)
	}
	if cfg.DBDriver != "memory" && cfg.DBDSN == "" {
		return nil, errors.ConfigError(errors.CodeMissingConfig, "db.dsn", nil)
	}
	if cfg.TeamConfidenceThreshold <= 0 || cfg.TeamConfidenceThreshold > 1 {
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "matching.team_confidence_threshold", nil).
			WithSuggestion("use a value in (0, 1]")
	}
	return cfg, nil
}

// LoadGames reads a JSON array of game records for the static results
// provider. An empty path yields no games.
func LoadGames(path string) ([]*models.Game, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileUnreadable, path, err)
	}
	var games []*models.Game
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, path, "malformed games fixture", err)
	}
	return games, nil
}
