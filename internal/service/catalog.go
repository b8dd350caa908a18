package service

import (
	"context"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"wanderlog/internal/extract"
	"wanderlog/internal/merge"
	"wanderlog/internal/models"
	"wanderlog/internal/store"
	"wanderlog/internal/trips"
	"wanderlog/pkg/logger"
)

// Catalog is the single entry point to the place and trip stores. Every
// operation holds the catalog lock, so at most one mutation is in flight.
type Catalog struct {
	mu        sync.Mutex
	places    *store.PlaceStore
	trips     *trips.TripStore
	extractor *extract.Extractor
	merger    *merge.Engine
	log       *zap.Logger
}

func NewCatalog(places *store.PlaceStore, tripStore *trips.TripStore, extractor *extract.Extractor, merger *merge.Engine, log *zap.Logger) *Catalog {
	return &Catalog{
		places:    places,
		trips:     tripStore,
		extractor: extractor,
		merger:    merger,
		log:       logger.OrNop(log),
	}
}

// Load reads both stores from disk.
func (c *Catalog) Load() (places, tripCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.places.Load(), c.trips.Load()
}

// IngestReport summarises one import. Skipped is Malformed plus Duplicates.
type IngestReport struct {
	Added      int `json:"added"`
	Skipped    int `json:"skipped"`
	Malformed  int `json:"malformed"`
	Duplicates int `json:"duplicates"`
}

// IngestReader decodes an export from r and ingests it.
func (c *Catalog) IngestReader(ctx context.Context, r io.Reader, sourceType string) (IngestReport, error) {
	export, err := extract.Decode(r)
	if err != nil {
		return IngestReport{}, err
	}
	return c.Ingest(ctx, export, sourceType)
}

// Ingest merges the export's net-new places into the store. Enrichment runs
// without the catalog lock; records that were stored concurrently in the
// meantime are counted as duplicates. The store is saved only when
// something was added.
func (c *Catalog) Ingest(ctx context.Context, export *extract.Export, sourceType string) (IngestReport, error) {
	extracted := c.extractor.Extract(export)
	known := c.keySnapshot()

	merged := c.merger.Merge(ctx, known, extracted.Candidates, sourceType)
	if err := ctx.Err(); err != nil {
		return IngestReport{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	report := IngestReport{Malformed: extracted.Malformed, Duplicates: merged.Duplicates()}
	fresh := make([]models.Place, 0, len(merged.Added))
	for _, p := range merged.Added {
		if c.places.Has(p.Key) {
			report.Duplicates++
			continue
		}
		fresh = append(fresh, p)
	}
	report.Added = len(fresh)
	report.Skipped = report.Malformed + report.Duplicates

	if len(fresh) > 0 {
		if err := c.places.Append(fresh); err != nil {
			return IngestReport{}, err
		}
		if err := c.places.Save(); err != nil {
			return report, err
		}
	}

	c.log.Info("Ingested export",
		zap.String("source_type", sourceType),
		zap.Int("added", report.Added),
		zap.Int("malformed", report.Malformed),
		zap.Int("duplicates", report.Duplicates))
	return report, nil
}

type keySet map[string]struct{}

func (k keySet) Has(key string) bool {
	_, ok := k[key]
	return ok
}

func (c *Catalog) keySnapshot() keySet {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.places.Keys()
	set := make(keySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// AddManual stores a hand-entered place and saves.
func (c *Catalog) AddManual(in store.ManualPlace) (models.Place, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.places.AddManual(in)
	if err != nil {
		return models.Place{}, err
	}
	return p, c.places.Save()
}

func (c *Catalog) GetPlace(key string) (models.Place, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.places.Get(key)
}

func (c *Catalog) Query(f store.Filter) []models.Place {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.places.Query(f)
}

// Places returns every stored place, archived ones included.
func (c *Catalog) Places() []models.Place {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.places.All()
}

func (c *Catalog) SetArchived(key string, archived bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.places.SetArchived(key, archived); err != nil {
		return err
	}
	return c.places.Save()
}

func (c *Catalog) BulkSetArchived(keys []string, archived bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.places.BulkSetArchived(keys, archived)
	if err != nil {
		return 0, err
	}
	return n, c.places.Save()
}

func (c *Catalog) SetAlias(key, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.places.SetAlias(key, alias); err != nil {
		return err
	}
	return c.places.Save()
}

func (c *Catalog) SetDescription(key, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.places.SetDescription(key, text); err != nil {
		return err
	}
	return c.places.Save()
}

// DeleteReport describes a place deletion. Cascade is nil unless trip
// cleanup was requested.
type DeleteReport struct {
	Deleted int                  `json:"deleted"`
	Cascade *trips.CascadeResult `json:"cascade,omitempty"`
}

// DeletePlaces removes the given places. With cascade, the keys that were
// deleted are also stripped from every trip; otherwise trips keep dangling
// references, which read back as missing members.
func (c *Catalog) DeletePlaces(keys []string, cascade bool) (DeleteReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deleted []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); c.places.Has(k) {
			deleted = append(deleted, k)
		}
	}

	var (
		report DeleteReport
		err    error
	)
	if len(keys) == 1 {
		err = c.places.Delete(keys[0])
		if err == nil {
			report.Deleted = 1
		}
	} else {
		report.Deleted, err = c.places.BulkDelete(keys)
	}
	if err != nil {
		return DeleteReport{}, err
	}
	saveErr := c.places.Save()

	if cascade {
		res, cascadeErr := c.trips.RemovePlacesEverywhere(deleted)
		report.Cascade = &res
		if saveErr == nil {
			saveErr = cascadeErr
		}
	}
	return report, saveErr
}

func (c *Catalog) Backup(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.places.Backup(ctx)
}

// Reset empties the place store. Trips are left alone.
func (c *Catalog) Reset(ctx context.Context, backupFirst bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.places.Reset(ctx, backupFirst)
}
