// Package app wires configuration into the components shared by the
// wanderlog binaries.
package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"wanderlog/internal/config"
	"wanderlog/internal/enrich"
	"wanderlog/internal/extract"
	"wanderlog/internal/merge"
	"wanderlog/internal/service"
	"wanderlog/internal/storage"
	"wanderlog/internal/store"
	"wanderlog/internal/trips"
	"wanderlog/pkg/location"
	"wanderlog/pkg/logger"
)

// App holds the long-lived components of a process.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Catalog *service.Catalog
	// S3 is nil when MinIO is not configured.
	S3 *storage.S3Service

	logCloser io.Closer
}

// New loads configuration, builds the logger and the catalog, and loads both
// stores from disk.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.New(logger.Options{
		Level:      cfg.LoggerLevel,
		Format:     cfg.LoggerFormat,
		OutputPath: cfg.LoggerOutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &App{Config: cfg, Log: log, logCloser: closer}
	if err := cfg.DotEnvErr(); err != nil {
		log.Info("No .env file found, assuming environment variables are set directly.", zap.Error(err))
	}

	var placeOpts []store.Option
	placeOpts = append(placeOpts, store.WithLogger(log.Named("places")), store.WithBackupDir(cfg.BackupPath()))
	if cfg.MinioConfigured() {
		a.S3, err = storage.NewS3Service(storage.S3Config{
			Endpoint:     cfg.MinioEndpoint,
			AccessKey:    cfg.MinioAccessKey,
			SecretKey:    cfg.MinioSecretKey,
			UseSSL:       cfg.MinioUseSSL,
			BackupBucket: cfg.BackupBucket,
		}, log.Named("s3"))
		if err != nil {
			return nil, err
		}
		if cfg.BackupBucket != "" {
			placeOpts = append(placeOpts, store.WithBackupSink(a.S3))
		}
	}

	enricher := enrich.NewEnricher(NewGeocoder(cfg),
		enrich.WithTimeout(cfg.GeocodeTimeout),
		enrich.WithRateLimit(cfg.GeocodeRatePerSec),
		enrich.WithLogger(log.Named("enrich")))
	pipeline := enrich.NewPipeline(log.Named("pipeline"), enrich.NewStage(enricher.LabelStep()))

	a.Catalog = service.NewCatalog(
		store.NewPlaceStore(cfg.PlacesPath(), placeOpts...),
		trips.NewTripStore(cfg.TripsPath(), trips.WithLogger(log.Named("trips"))),
		extract.NewExtractor(log.Named("extract")),
		merge.NewEngine(log.Named("merge"), pipeline),
		log,
	)
	places, tripCount := a.Catalog.Load()
	log.Info("Catalog ready", zap.Int("places", places), zap.Int("trips", tripCount))
	return a, nil
}

// NewGeocoder returns the reverse geocoder selected by cfg.
func NewGeocoder(cfg *config.Config) location.ReverseGeocoder {
	if cfg.Geocoder == "nominatim" {
		return location.NewNominatimClient(
			location.WithBaseURL(cfg.NominatimBaseURL),
			location.WithTimeout(cfg.GeocodeTimeout))
	}
	return location.NewMapboxClient(cfg.MapboxToken,
		location.WithBaseURL(cfg.MapboxBaseURL),
		location.WithTimeout(cfg.GeocodeTimeout))
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.Log.Sync()
	_ = a.logCloser.Close()
}
