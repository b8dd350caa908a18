package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wanderlog/internal/apperr"
	"wanderlog/internal/models"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.New(apperr.AliasTooLong, "x"), exitValidation},
		{"invalid input", apperr.Wrap(apperr.ExportDecodeFailed, errors.New("eof")), exitValidation},
		{"not found", fmt.Errorf("lookup: %w", apperr.PlaceNotFound), exitNotFound},
		{"persistence", apperr.Wrap(apperr.PersistenceFailed, errors.New("disk")), exitFailure},
		{"plain", errors.New("boom"), exitFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Errorf("exitCode(%v) = %d; want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestParseDateFlag(t *testing.T) {
	if d, err := parseDateFlag("from", ""); err != nil || !d.IsZero() {
		t.Errorf("empty flag = %v, %v; want zero time", d, err)
	}
	d, err := parseDateFlag("from", " 2024-03-05 ")
	if err != nil {
		t.Fatalf("parseDateFlag error: %v", err)
	}
	if d.Format("2006-01-02") != "2024-03-05" {
		t.Errorf("parseDateFlag = %v", d)
	}
	if _, err := parseDateFlag("to", "05/03/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func execute(args ...string) ([]byte, error) {
	rt := &runtime{}
	defer rt.close()

	root := newRootCmd(rt)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.Bytes(), err
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("wanderlog %v: %v", args, err)
	}
	return out
}

func TestCommands_ManualPlaceInTrip(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("GEOCODER", "nominatim")
	t.Setenv("LOGGER_LEVEL", "ERROR")

	var place models.Place
	if err := json.Unmarshal(run(t, "add", "--lat", "48.8584", "--lon", "2.2945", "--label", "Eiffel Tower"), &place); err != nil {
		t.Fatalf("decode add output: %v", err)
	}
	if place.DisplayLabel != "Eiffel Tower" {
		t.Fatalf("DisplayLabel = %q", place.DisplayLabel)
	}

	var trip models.Trip
	if err := json.Unmarshal(run(t, "trip", "create", "Paris"), &trip); err != nil {
		t.Fatalf("decode trip output: %v", err)
	}
	run(t, "trip", "add", trip.ID, place.Key)

	var members []memberView
	if err := json.Unmarshal(run(t, "trip", "members", trip.ID), &members); err != nil {
		t.Fatalf("decode members output: %v", err)
	}
	if len(members) != 1 || members[0].Key != place.Key || members[0].Missing {
		t.Fatalf("members = %+v", members)
	}

	run(t, "delete", "--cascade", place.Key)

	var listed []models.Place
	if err := json.Unmarshal(run(t, "list", "--all"), &listed); err != nil {
		t.Fatalf("decode list output: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("list after delete = %d places; want 0", len(listed))
	}
	if err := json.Unmarshal(run(t, "trip", "members", trip.ID), &members); err != nil {
		t.Fatalf("decode members output: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("members after cascade = %+v; want none", members)
	}
}

func TestCommands_WithoutGeocoderToken(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("GEOCODER", "mapbox")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
	t.Setenv("LOGGER_LEVEL", "ERROR")

	var place models.Place
	if err := json.Unmarshal(run(t, "add", "--lat", "40.0", "--lon", "-73.0", "--label", "Park"), &place); err != nil {
		t.Fatalf("decode add output: %v", err)
	}
	run(t, "archive", place.Key)
	run(t, "trip", "list")
	run(t, "backup")
	run(t, "delete", place.Key)

	export := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(export, []byte(`{"semanticSegments":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute("ingest", export)
	if err == nil || !strings.Contains(err.Error(), "MAPBOX_ACCESS_TOKEN") {
		t.Errorf("ingest without token: err = %v; want missing token error", err)
	}
}

func TestCommands_FailingCommandClosesLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "wanderlog.log")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("GEOCODER", "nominatim")
	t.Setenv("LOGGER_LEVEL", "INFO")
	t.Setenv("LOGGER_OUTPUT_PATH", logPath)

	rt := &runtime{}
	root := newRootCmd(rt)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"alias", "missing-key", "x"})
	err := root.ExecuteContext(context.Background())
	if exitCode(err) != exitNotFound {
		t.Fatalf("alias on unknown key: err = %v; want not found", err)
	}
	if rt.app == nil {
		t.Fatal("app was not loaded")
	}

	rt.close()
	if rt.app != nil {
		t.Error("close left the app loaded")
	}
	data, readErr := os.ReadFile(logPath)
	if readErr != nil {
		t.Fatalf("read log: %v", readErr)
	}
	if !strings.Contains(string(data), "Catalog ready") {
		t.Errorf("log file missing startup entry: %q", data)
	}
}
