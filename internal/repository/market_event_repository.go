package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/race-scanner/internal/database"
	"github.com/yourusername/race-scanner/internal/models"
)

// PostgresMarketEventRepository implements MarketEventRepository for PostgreSQL
type PostgresMarketEventRepository struct {
	db *database.DB
}

// NewPostgresMarketEventRepository creates a new market event repository
func NewPostgresMarketEventRepository(db *database.DB) MarketEventRepository {
	return &PostgresMarketEventRepository{db: db}
}

// Insert records one detected movement event.
func (r *PostgresMarketEventRepository) Insert(ctx context.Context, event *models.MarketEvent) error {
	query := `
		INSERT INTO market_events (race_id, runner_name, kind, odds_from, odds_to, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		event.RaceID, event.RunnerName, string(event.Kind),
		event.FromOdds, event.ToOdds, event.Time,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert market event: %w", err)
	}
	return nil
}

// ForRace returns all movement events detected for a race, oldest first.
func (r *PostgresMarketEventRepository) ForRace(ctx context.Context, raceID string) ([]*models.MarketEvent, error) {
	query := `
		SELECT id, race_id, runner_name, kind, odds_from, odds_to, detected_at
		FROM market_events
		WHERE race_id = $1
		ORDER BY detected_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query market events: %w", err)
	}
	defer rows.Close()

	var events []*models.MarketEvent
	for rows.Next() {
		event := &models.MarketEvent{}
		var kind string
		err := rows.Scan(&event.ID, &event.RaceID, &event.RunnerName, &kind,
			&event.FromOdds, &event.ToOdds, &event.Time)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market event: %w", err)
		}
		event.Kind = models.MarketEventKind(kind)
		events = append(events, event)
	}

	return events, rows.Err()
}
