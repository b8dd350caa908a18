package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wanderlog/internal/models"
	"wanderlog/pkg/location"
	"wanderlog/pkg/logger"
)

// Labels stored when reverse geocoding did not produce a name. They are kept
// as data so later runs can tell an unresolved place from a resolved one.
const (
	LabelNoResult      = "No result"
	LabelTimeout       = "Error timeout"
	LabelRequestFailed = "Error request failed"
)

// Enricher resolves coordinates into display labels. It never fails: every
// error is folded into a fixed "Error ..." label. Error text is never stored,
// since it may quote the request URL.
type Enricher struct {
	geocoder location.ReverseGeocoder
	timeout  time.Duration
	limiter  *rate.Limiter
	log      *zap.Logger
}

type EnricherOption func(*Enricher)

// WithTimeout bounds a single lookup.
func WithTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) { e.timeout = d }
}

// WithRateLimit paces lookups to perSecond requests. Zero or less disables pacing.
func WithRateLimit(perSecond float64) EnricherOption {
	return func(e *Enricher) {
		if perSecond <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithLogger(log *zap.Logger) EnricherOption {
	return func(e *Enricher) { e.log = logger.OrNop(log) }
}

func NewEnricher(geocoder location.ReverseGeocoder, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		geocoder: geocoder,
		timeout:  10 * time.Second,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LabelFor returns a label for the coordinates, or a sentinel label
// describing why none could be obtained.
func (e *Enricher) LabelFor(ctx context.Context, lat, lon float64) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			e.log.Warn("Geocode pacing aborted", zap.Error(err))
			return sentinelFor(err)
		}
	}

	label, err := e.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		e.log.Warn("Reverse geocode failed",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return sentinelFor(err)
	}
	return label
}

func sentinelFor(err error) string {
	var se *location.StatusError
	var te interface{ Timeout() bool }
	switch {
	case errors.Is(err, location.ErrNoResult):
		return LabelNoResult
	case errors.As(err, &se):
		return fmt.Sprintf("Error %d", se.StatusCode)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &te) && te.Timeout():
		return LabelTimeout
	default:
		return LabelRequestFailed
	}
}

// LabelStep fills in DisplayLabel for places that have none.
func (e *Enricher) LabelStep() Step[models.Place] {
	return func(ctx context.Context, p *models.Place) error {
		if p.DisplayLabel != "" {
			return nil
		}
		p.DisplayLabel = e.LabelFor(ctx, p.Latitude, p.Longitude)
		return nil
	}
}
