package database

import (
	"context"
	"fmt"

	"github.com/yourusername/race-scanner/internal/config"
)

// schema holds the statements that bring an empty database up to date.
// Re-running them is harmless.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS races (
		id            TEXT PRIMARY KEY,
		course        TEXT NOT NULL,
		country       TEXT,
		discipline    TEXT,
		race_date     DATE NOT NULL,
		race_time     TEXT NOT NULL,
		timezone      TEXT,
		utc_datetime  TIMESTAMPTZ,
		race_number   INTEGER,
		field_size    INTEGER,
		value_score   DOUBLE PRECISION,
		race_url      TEXT,
		form_url      TEXT,
		sources       JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS runners (
		id          BIGSERIAL PRIMARY KEY,
		race_id     TEXT NOT NULL REFERENCES races(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		odds_text   TEXT,
		odds        DOUBLE PRECISION,
		trainer     TEXT,
		jockey      TEXT,
		UNIQUE (race_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS odds_snapshots (
		id           BIGSERIAL PRIMARY KEY,
		race_id      TEXT NOT NULL,
		runner_name  TEXT NOT NULL,
		odds         NUMERIC(10, 3) NOT NULL,
		taken_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_odds_snapshots_race
		ON odds_snapshots (race_id, runner_name, taken_at)`,
	`CREATE TABLE IF NOT EXISTS market_events (
		id           BIGSERIAL PRIMARY KEY,
		race_id      TEXT NOT NULL,
		runner_name  TEXT NOT NULL,
		kind         TEXT NOT NULL,
		odds_from    NUMERIC(10, 3) NOT NULL,
		odds_to      NUMERIC(10, 3) NOT NULL,
		detected_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_races_date ON races (race_date)`,
}

// Initialize creates a database connection pool and applies the schema.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return db, nil
}
