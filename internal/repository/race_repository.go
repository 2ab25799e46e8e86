package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/race-scanner/internal/database"
	"github.com/yourusername/race-scanner/internal/models"
)

const errScanRace = "failed to scan race: %w"

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db *database.DB
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB) RaceRepository {
	return &PostgresRaceRepository{db: db}
}

// Upsert inserts or refreshes a race and replaces its runner rows.
func (r *PostgresRaceRepository) Upsert(ctx context.Context, race *models.Race) error {
	return upsertRace(ctx, r.db.GetPool(), race)
}

// upsertRace issues every statement on q so callers decide whether the
// write is standalone or part of a transaction.
func upsertRace(ctx context.Context, q database.Querier, race *models.Race) error {
	sources, err := json.Marshal(race.DataSources)
	if err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}

	query := `
		INSERT INTO races (id, course, country, discipline, race_date, race_time,
		                   timezone, utc_datetime, race_number, field_size,
		                   value_score, race_url, form_url, sources)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			field_size = EXCLUDED.field_size,
			value_score = EXCLUDED.value_score,
			race_url = EXCLUDED.race_url,
			form_url = EXCLUDED.form_url,
			sources = EXCLUDED.sources,
			updated_at = NOW()
	`

	_, err = q.Exec(ctx, query,
		race.ID, race.Course, race.Country, string(race.Discipline),
		race.LocalDate(), race.TimeLocal, race.TimezoneName, race.UTCDateTime,
		race.RaceNumber, race.FieldSize, race.ValueScore, race.RaceURL,
		race.FormGuideURL, sources,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert race: %w", err)
	}

	if _, err := q.Exec(ctx, "DELETE FROM runners WHERE race_id = $1", race.ID); err != nil {
		return fmt.Errorf("failed to clear runners: %w", err)
	}
	for _, rn := range race.AllRunners {
		_, err := q.Exec(ctx, `
			INSERT INTO runners (race_id, name, odds_text, trainer, jockey)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (race_id, name) DO UPDATE SET odds_text = EXCLUDED.odds_text
		`, race.ID, rn.Name, rn.OddsString, rn.Trainer, rn.Jockey)
		if err != nil {
			return fmt.Errorf("failed to upsert runner: %w", err)
		}
	}

	return nil
}

// UpsertAll writes a full scan result in one transaction; a failure on
// any race rolls back every write of the batch.
func (r *PostgresRaceRepository) UpsertAll(ctx context.Context, races []models.Race) error {
	return r.db.WithTransaction(ctx, func(q database.Querier) error {
		for i := range races {
			if err := upsertRace(ctx, q, &races[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a race by ID, without its runner list.
func (r *PostgresRaceRepository) GetByID(ctx context.Context, id string) (*models.Race, error) {
	query := `
		SELECT id, course, country, discipline, race_time, timezone,
		       utc_datetime, race_number, field_size, value_score,
		       race_url, form_url, sources
		FROM races WHERE id = $1
	`

	race, err := scanRace(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, nil
}

// GetByDate retrieves the races of one local calendar day ordered by
// start time.
func (r *PostgresRaceRepository) GetByDate(ctx context.Context, date string) ([]*models.Race, error) {
	query := `
		SELECT id, course, country, discipline, race_time, timezone,
		       utc_datetime, race_number, field_size, value_score,
		       race_url, form_url, sources
		FROM races
		WHERE race_date = $1
		ORDER BY utc_datetime ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query races by date: %w", err)
	}
	defer rows.Close()

	var races []*models.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		races = append(races, race)
	}

	return races, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRace(row rowScanner) (*models.Race, error) {
	race := &models.Race{}
	var discipline string
	var sources []byte

	err := row.Scan(
		&race.ID, &race.Course, &race.Country, &discipline, &race.TimeLocal,
		&race.TimezoneName, &race.UTCDateTime, &race.RaceNumber,
		&race.FieldSize, &race.ValueScore, &race.RaceURL, &race.FormGuideURL,
		&sources,
	)
	if err != nil {
		return nil, err
	}

	race.Discipline = models.Discipline(discipline)
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &race.DataSources); err != nil {
			return nil, fmt.Errorf("failed to decode sources: %w", err)
		}
	}
	return race, nil
}
