package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Storage
	DataDir    string `env:"DATA_DIR" envDefault:"data"`
	PlacesFile string `env:"PLACES_FILE" envDefault:"master_timeline_data.csv"`
	TripsFile  string `env:"TRIPS_FILE" envDefault:"trips.json"`
	BackupDir  string `env:"BACKUP_DIR"`

	// Reverse geocoding
	Geocoder          string        `env:"GEOCODER" envDefault:"mapbox"` // mapbox, nominatim
	MapboxToken       string        `env:"MAPBOX_ACCESS_TOKEN"`
	MapboxBaseURL     string        `env:"MAPBOX_BASE_URL" envDefault:"https://api.mapbox.com"`
	NominatimBaseURL  string        `env:"NOMINATIM_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
	GeocodeTimeout    time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"10s"`
	GeocodeRatePerSec float64       `env:"GEOCODE_RATE_PER_SEC" envDefault:"5"`

	// Object storage
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	ExportBucket   string `env:"EXPORT_BUCKET" envDefault:"timeline-exports"`
	BackupBucket   string `env:"BACKUP_BUCKET"`

	// Bucket notifications
	KafkaBroker  string `env:"KAFKA_BROKER"`
	KafkaTopic   string `env:"KAFKA_TOPIC"`
	KafkaGroupID string `env:"KAFKA_GROUP_ID" envDefault:"wanderlog-watcher"`

	PostgresURL string `env:"POSTGRES_URL"`

	// Logging
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	dotEnvErr error
}

// LoadEnv reads a .env file when present. Missing files are expected outside
// development; the error is returned so it can be logged once a logger exists.
func LoadEnv() error {
	return godotenv.Load()
}

// Load reads the environment (after an optional .env file) into a Config.
func Load() (*Config, error) {
	cfg := &Config{dotEnvErr: LoadEnv()}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every process needs. Geocoder credentials are
// checked separately by ValidateGeocoder, so commands that never geocode run
// without them.
func (c *Config) Validate() error {
	switch c.Geocoder {
	case "mapbox", "nominatim":
	default:
		return fmt.Errorf("unknown GEOCODER %q (want mapbox or nominatim)", c.Geocoder)
	}
	if c.GeocodeTimeout <= 0 {
		return fmt.Errorf("GEOCODE_TIMEOUT must be positive")
	}
	return nil
}

// ValidateGeocoder checks the credentials of the selected geocoder. Callers
// run it before ingesting.
func (c *Config) ValidateGeocoder() error {
	if c.Geocoder == "mapbox" && c.MapboxToken == "" {
		return fmt.Errorf("MAPBOX_ACCESS_TOKEN is required when GEOCODER=mapbox")
	}
	return nil
}

// DotEnvErr is the error from reading the .env file, nil when one was loaded.
func (c *Config) DotEnvErr() error {
	return c.dotEnvErr
}

func (c *Config) PlacesPath() string {
	return filepath.Join(c.DataDir, c.PlacesFile)
}

func (c *Config) TripsPath() string {
	return filepath.Join(c.DataDir, c.TripsFile)
}

// BackupPath is the directory timestamped snapshots are written to.
func (c *Config) BackupPath() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return c.DataDir
}

func (c *Config) MinioConfigured() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}
