package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/race-scanner/internal/database"
	"github.com/yourusername/race-scanner/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds snapshot repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// Insert records one odds snapshot.
func (r *PostgresOddsRepository) Insert(ctx context.Context, snapshot *models.OddsSnapshot) error {
	query := `
		INSERT INTO odds_snapshots (race_id, runner_name, odds, taken_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		snapshot.RaceID, snapshot.RunnerName, snapshot.Odds, snapshot.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to insert odds snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for a runner.
func (r *PostgresOddsRepository) Latest(ctx context.Context, raceID, runnerName string) (*models.OddsSnapshot, error) {
	query := `
		SELECT race_id, runner_name, odds, taken_at
		FROM odds_snapshots
		WHERE race_id = $1 AND runner_name = $2
		ORDER BY taken_at DESC
		LIMIT 1
	`

	snapshot := &models.OddsSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, raceID, runnerName).Scan(
		&snapshot.RaceID, &snapshot.RunnerName, &snapshot.Odds, &snapshot.Time,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snapshot, nil
}

// History returns a runner's snapshots since the given time, oldest first.
func (r *PostgresOddsRepository) History(ctx context.Context, raceID, runnerName string, since time.Time) ([]*models.OddsSnapshot, error) {
	query := `
		SELECT race_id, runner_name, odds, taken_at
		FROM odds_snapshots
		WHERE race_id = $1 AND runner_name = $2 AND taken_at >= $3
		ORDER BY taken_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID, runnerName, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.OddsSnapshot
	for rows.Next() {
		snapshot := &models.OddsSnapshot{}
		err := rows.Scan(&snapshot.RaceID, &snapshot.RunnerName, &snapshot.Odds, &snapshot.Time)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}
