// Package repository provides PostgreSQL persistence for scan output and
// market watch history.
package repository

import (
	"context"
	"time"

	"github.com/yourusername/race-scanner/internal/models"
)

// RaceRepository persists merged races and their runners.
type RaceRepository interface {
	Upsert(ctx context.Context, race *models.Race) error
	UpsertAll(ctx context.Context, races []models.Race) error
	GetByID(ctx context.Context, id string) (*models.Race, error)
	GetByDate(ctx context.Context, date string) ([]*models.Race, error)
}

// OddsRepository persists per-runner odds snapshots.
type OddsRepository interface {
	Insert(ctx context.Context, snapshot *models.OddsSnapshot) error
	Latest(ctx context.Context, raceID, runnerName string) (*models.OddsSnapshot, error)
	History(ctx context.Context, raceID, runnerName string, since time.Time) ([]*models.OddsSnapshot, error)
}

// MarketEventRepository persists detected steamer and drifter events.
type MarketEventRepository interface {
	Insert(ctx context.Context, event *models.MarketEvent) error
	ForRace(ctx context.Context, raceID string) ([]*models.MarketEvent, error)
}
