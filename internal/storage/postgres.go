package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"wanderlog/internal/models"
	"wanderlog/pkg/logger"
)

const placesTable = "wanderlog_places"

var placeColumns = []string{
	"place_key", "latitude", "longitude", "visit_date", "source_type",
	"display_label", "alias", "description", "archived", "exported_at",
}

// PlaceExporter replaces the contents of a Postgres table with a snapshot of
// the place store, for ad-hoc SQL reporting.
type PlaceExporter struct {
	pool *pgxpool.Pool
	log  *zap.Logger
	now  func() time.Time
}

func NewPlaceExporter(ctx context.Context, databaseURL string, log *zap.Logger) (*PlaceExporter, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PlaceExporter{pool: pool, log: logger.OrNop(log), now: time.Now}, nil
}

func (e *PlaceExporter) Close() {
	e.pool.Close()
}

// Export truncates the table and copies places into it in one transaction.
// It returns the number of rows written.
func (e *PlaceExporter) Export(ctx context.Context, places []models.Place) (int64, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS `+placesTable+` (
		place_key     TEXT PRIMARY KEY,
		latitude      DOUBLE PRECISION NOT NULL,
		longitude     DOUBLE PRECISION NOT NULL,
		visit_date    DATE,
		source_type   TEXT NOT NULL DEFAULT '',
		display_label TEXT NOT NULL DEFAULT '',
		alias         TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		archived      BOOLEAN NOT NULL DEFAULT FALSE,
		exported_at   TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}
	if _, err := tx.Exec(ctx, `TRUNCATE `+placesTable); err != nil {
		return 0, fmt.Errorf("truncate: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{placesTable}, placeColumns, pgx.CopyFromRows(placeRows(places, e.now().UTC())))
	if err != nil {
		return 0, fmt.Errorf("copy places: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	e.log.Info("Exported places to postgres", zap.Int64("rows", n), zap.String("table", placesTable))
	return n, nil
}

// placeRows lays places out in placeColumns order. Unparseable visit dates
// become NULL.
func placeRows(places []models.Place, exportedAt time.Time) [][]any {
	rows := make([][]any, 0, len(places))
	for _, p := range places {
		var visit any
		if len(p.VisitDate) >= 10 {
			if d, err := time.Parse("2006-01-02", p.VisitDate[:10]); err == nil {
				visit = d
			}
		}
		rows = append(rows, []any{
			p.Key, p.Latitude, p.Longitude, visit, p.SourceType,
			p.DisplayLabel, p.Alias, p.Description, p.Archived, exportedAt,
		})
	}
	return rows
}
