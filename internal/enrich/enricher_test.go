package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wanderlog/internal/models"
	"wanderlog/pkg/location"
)

type mockGeocoder struct {
	label string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, _, _ float64) (string, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.label, m.err
}

func TestEnricher_LabelFor(t *testing.T) {
	tests := []struct {
		name     string
		geocoder *mockGeocoder
		timeout  time.Duration
		want     string
	}{
		{"resolved", &mockGeocoder{label: "Ferry Building"}, time.Second, "Ferry Building"},
		{"no result", &mockGeocoder{err: location.ErrNoResult}, time.Second, LabelNoResult},
		{"http status", &mockGeocoder{err: &location.StatusError{StatusCode: http.StatusForbidden, Status: "403 Forbidden"}}, time.Second, "Error 403"},
		{"timeout", &mockGeocoder{label: "late", delay: 200 * time.Millisecond}, 10 * time.Millisecond, LabelTimeout},
		{"transport", &mockGeocoder{err: errors.New("dial tcp: connection refused")}, time.Second, LabelRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEnricher(tt.geocoder, WithTimeout(tt.timeout))
			if got := e.LabelFor(context.Background(), 37.79, -122.39); got != tt.want {
				t.Errorf("LabelFor() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestEnricher_LabelStepThroughPipeline(t *testing.T) {
	geo := &mockGeocoder{label: "Dolores Park"}
	e := NewEnricher(geo, WithRateLimit(1000))
	p := NewPipeline(nil, NewStage(e.LabelStep()))

	fresh := &models.Place{Key: "a", Latitude: 37.75, Longitude: -122.42}
	labelled := &models.Place{Key: "b", DisplayLabel: "Home"}

	in := make(chan *models.Place, 2)
	in <- fresh
	in <- labelled
	close(in)
	p.Process(context.Background(), in)

	if fresh.DisplayLabel != "Dolores Park" {
		t.Errorf("fresh label = %q", fresh.DisplayLabel)
	}
	if labelled.DisplayLabel != "Home" {
		t.Errorf("existing label overwritten: %q", labelled.DisplayLabel)
	}
	if n := geo.calls.Load(); n != 1 {
		t.Errorf("geocoder called %d times; want 1", n)
	}
}

func TestEnricher_TransportFailureLabelOmitsAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	geocoder := location.NewMapboxClient("pk.SECRET123", location.WithBaseURL(baseURL))
	e := NewEnricher(geocoder, WithTimeout(time.Second))
	p := NewPipeline(nil, NewStage(e.LabelStep()))

	place := &models.Place{Key: "a", Latitude: 40, Longitude: -73}
	p.Apply(context.Background(), place)

	if strings.Contains(place.DisplayLabel, "SECRET123") {
		t.Fatalf("DisplayLabel leaks the access token: %q", place.DisplayLabel)
	}
	if place.DisplayLabel != LabelRequestFailed {
		t.Errorf("DisplayLabel = %q; want %q", place.DisplayLabel, LabelRequestFailed)
	}
}
