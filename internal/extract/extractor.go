// Package extract flattens a location-history export into place candidates.
package extract

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"wanderlog/pkg/geo"
	"wanderlog/pkg/logger"
)

// Candidate is a possible place match pulled out of one visit segment,
// before any deduplication.
type Candidate struct {
	Key       string
	Latitude  float64
	Longitude float64
	VisitDate string
}

// Result holds the usable candidates in first-seen order and the number of
// malformed candidates that were dropped.
type Result struct {
	Candidates []Candidate
	Malformed  int
}

type Extractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: logger.OrNop(log)}
}

// Extract walks every segment of export. Candidates missing a place key or a
// parseable coordinate string are skipped and counted; they never fail the
// batch. An unparseable start time only leaves the visit date empty.
func (e *Extractor) Extract(export *Export) Result {
	var res Result
	if export == nil {
		return res
	}

	for i, segment := range export.SemanticSegments {
		if segment.Visit == nil {
			continue
		}
		visitDate := ParseVisitDate(segment.StartTime)

		for _, raw := range segment.Visit.candidates() {
			key := strings.TrimSpace(raw.PlaceID)
			if key == "" {
				res.Malformed++
				e.log.Debug("Skipping candidate without place ID", zap.Int("segment", i))
				continue
			}
			if raw.PlaceLocation.LatLng == "" {
				res.Malformed++
				e.log.Debug("Skipping candidate without coordinates", zap.Int("segment", i), zap.String("place_key", key))
				continue
			}
			lat, lon, err := geo.ParseLatLng(raw.PlaceLocation.LatLng)
			if err != nil {
				res.Malformed++
				e.log.Debug("Skipping candidate with invalid coordinates",
					zap.Int("segment", i), zap.String("place_key", key), zap.Error(err))
				continue
			}

			res.Candidates = append(res.Candidates, Candidate{
				Key:       key,
				Latitude:  lat,
				Longitude: lon,
				VisitDate: visitDate,
			})
		}
	}
	return res
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	time.DateOnly,
}

// ParseVisitDate turns an export timestamp into a YYYY-MM-DD date in the
// timestamp's own offset. It returns "" when the value cannot be parsed.
func ParseVisitDate(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Format(time.DateOnly)
	}
	trimmed := strings.TrimSuffix(ts, "Z")
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ""
}
