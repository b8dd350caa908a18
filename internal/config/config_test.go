package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEOCODER", "nominatim")
	t.Setenv("DATA_DIR", "/tmp/wanderlog")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.PlacesPath(), filepath.Join("/tmp/wanderlog", "master_timeline_data.csv"); got != want {
		t.Errorf("PlacesPath() = %q; want %q", got, want)
	}
	if got, want := cfg.TripsPath(), filepath.Join("/tmp/wanderlog", "trips.json"); got != want {
		t.Errorf("TripsPath() = %q; want %q", got, want)
	}
	if cfg.BackupPath() != "/tmp/wanderlog" {
		t.Errorf("BackupPath() = %q; want data dir", cfg.BackupPath())
	}
	if cfg.GeocodeTimeout != 10*time.Second {
		t.Errorf("GeocodeTimeout = %v; want 10s", cfg.GeocodeTimeout)
	}
	if cfg.MinioConfigured() {
		t.Errorf("MinioConfigured() = true with no endpoint")
	}
	if cfg.DotEnvErr() == nil {
		t.Errorf("DotEnvErr() = nil without a .env file")
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PLACES_FILE=from_dotenv.csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("GEOCODER", "nominatim")
	t.Cleanup(func() { os.Unsetenv("PLACES_FILE") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DotEnvErr() != nil {
		t.Errorf("DotEnvErr() = %v; want nil", cfg.DotEnvErr())
	}
	if cfg.PlacesFile != "from_dotenv.csv" {
		t.Errorf("PlacesFile = %q; want value from .env", cfg.PlacesFile)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"mapbox with token", Config{Geocoder: "mapbox", MapboxToken: "tok", GeocodeTimeout: time.Second}, false},
		{"mapbox without token", Config{Geocoder: "mapbox", GeocodeTimeout: time.Second}, false},
		{"nominatim", Config{Geocoder: "nominatim", GeocodeTimeout: time.Second}, false},
		{"unknown geocoder", Config{Geocoder: "bing", GeocodeTimeout: time.Second}, true},
		{"zero timeout", Config{Geocoder: "nominatim"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v; wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateGeocoder(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"mapbox with token", Config{Geocoder: "mapbox", MapboxToken: "tok"}, false},
		{"mapbox without token", Config{Geocoder: "mapbox"}, true},
		{"nominatim", Config{Geocoder: "nominatim"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.ValidateGeocoder()
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateGeocoder() error = %v; wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_WithoutMapboxToken(t *testing.T) {
	t.Setenv("GEOCODER", "mapbox")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error without token: %v", err)
	}
	if err := cfg.ValidateGeocoder(); err == nil {
		t.Error("ValidateGeocoder() = nil without a Mapbox token")
	}
}
