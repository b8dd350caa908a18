package trips

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_TolerantFormats(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, s *TripStore)
	}{
		{
			name: "wrapped document with legacy keys",
			body: `{"trips":[{"trip_id":"t1","name":"  ","place_ids":["A"," ","A",42],
				"photos_url":"https://photos.example/x","created":"2024-03-01T10:00:00+00:00",
				"photos":["https://lh3.example/a",{"baseUrl":"https://lh3.example/b","mimeType":"image/jpeg","mediaMetadata":{}},{"url":"file:///etc/passwd"},7]}]}`,
			check: func(t *testing.T, s *TripStore) {
				trip, err := s.Get("t1")
				if err != nil {
					t.Fatalf("Get(t1) error: %v", err)
				}
				if trip.Name != untitledTrip {
					t.Errorf("Name = %q; want %q", trip.Name, untitledTrip)
				}
				if strings.Join(trip.PlaceIDs, ",") != "A,42" {
					t.Errorf("PlaceIDs = %v", trip.PlaceIDs)
				}
				if trip.PhotosURL != "https://photos.example/x" {
					t.Errorf("PhotosURL = %q", trip.PhotosURL)
				}
				if len(trip.Photos) != 2 || trip.Photos[1].MimeType != "image/jpeg" {
					t.Errorf("Photos = %+v", trip.Photos)
				}
				wantCreated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
				if !trip.CreatedAt.Equal(wantCreated) || !trip.UpdatedAt.Equal(wantCreated) {
					t.Errorf("CreatedAt = %v, UpdatedAt = %v; want both %v", trip.CreatedAt, trip.UpdatedAt, wantCreated)
				}
			},
		},
		{
			name: "bare list without ids",
			body: `[{"name":"One"},{"name":"Two","updated_at":"2024-05-01T00:00:00.123456"}]`,
			check: func(t *testing.T, s *TripStore) {
				list := s.List()
				if len(list) != 2 {
					t.Fatalf("List() has %d trips; want 2", len(list))
				}
				if list[0].ID == "" || list[0].ID == list[1].ID {
					t.Errorf("generated ids %q and %q", list[0].ID, list[1].ID)
				}
			},
		},
		{
			name: "not json",
			body: `trips: none`,
			check: func(t *testing.T, s *TripStore) {
				if len(s.List()) != 0 {
					t.Errorf("expected an empty store")
				}
			},
		},
		{
			name: "empty file",
			body: "",
			check: func(t *testing.T, s *TripStore) {
				if len(s.List()) != 0 {
					t.Errorf("expected an empty store")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "trips.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			s := NewTripStore(path)
			s.Load()
			tt.check(t, s)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-03-01T10:00:00Z", true, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01T12:00:00+02:00", true, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01T10:00:00.5", true, time.Date(2024, 3, 1, 10, 0, 0, 500_000_000, time.UTC)},
		{"yesterday", false, time.Time{}},
		{"", false, time.Time{}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := parseTimestamp(tc.in)
			if ok != tc.ok || !got.Equal(tc.want) {
				t.Errorf("parseTimestamp(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}
