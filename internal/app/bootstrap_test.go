package app

import (
	"testing"

	"wanderlog/internal/config"
	"wanderlog/pkg/location"
)

func TestNewGeocoder(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"mapbox", config.Config{Geocoder: "mapbox", MapboxToken: "tok"}, "mapbox"},
		{"nominatim", config.Config{Geocoder: "nominatim"}, "nominatim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGeocoder(&tt.cfg)
			switch g.(type) {
			case *location.MapboxClient:
				if tt.want != "mapbox" {
					t.Errorf("got Mapbox client for %s", tt.name)
				}
			case *location.NominatimClient:
				if tt.want != "nominatim" {
					t.Errorf("got Nominatim client for %s", tt.name)
				}
			default:
				t.Errorf("unexpected geocoder %T", g)
			}
		})
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("GEOCODER", "nominatim")
	t.Setenv("LOGGER_LEVEL", "ERROR")
	t.Setenv("MINIO_ENDPOINT", "")

	a, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if a.S3 != nil {
		t.Errorf("S3 configured without an endpoint")
	}
	if n := len(a.Catalog.Places()); n != 0 {
		t.Errorf("fresh data dir has %d places", n)
	}
}

func TestNew_MapboxWithoutToken(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("GEOCODER", "mapbox")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
	t.Setenv("LOGGER_LEVEL", "ERROR")
	t.Setenv("MINIO_ENDPOINT", "")

	a, err := New()
	if err != nil {
		t.Fatalf("New() without a Mapbox token: %v", err)
	}
	defer a.Close()

	if err := a.Config.ValidateGeocoder(); err == nil {
		t.Error("ValidateGeocoder() = nil without a Mapbox token")
	}
	if got := len(a.Catalog.ListTrips()); got != 0 {
		t.Errorf("ListTrips() = %d trips; want 0", got)
	}
}
