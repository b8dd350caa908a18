package store

import (
	"strings"
	"time"

	"wanderlog/internal/models"
)

const dateLayout = "2006-01-02"

// Filter narrows a Query. Zero values disable each condition.
type Filter struct {
	SourceTypes     []string
	From, To        time.Time // inclusive, compared by calendar day
	IncludeArchived bool
}

func (f Filter) hasRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// Query returns the records matching f in insertion order. When a date range
// is set, records whose visit date cannot be parsed are excluded.
func (s *PlaceStore) Query(f Filter) []models.Place {
	var sources map[string]struct{}
	if len(f.SourceTypes) > 0 {
		sources = make(map[string]struct{}, len(f.SourceTypes))
		for _, st := range f.SourceTypes {
			sources[strings.TrimSpace(st)] = struct{}{}
		}
	}
	from, to := truncateDay(f.From), truncateDay(f.To)

	var out []models.Place
	for _, p := range s.places {
		if p.Archived && !f.IncludeArchived {
			continue
		}
		if sources != nil {
			if _, ok := sources[p.SourceType]; !ok {
				continue
			}
		}
		if f.hasRange() {
			d, ok := ParseVisitDate(p.VisitDate)
			if !ok {
				continue
			}
			if !from.IsZero() && d.Before(from) {
				continue
			}
			if !to.IsZero() && d.After(to) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// ParseVisitDate reads the calendar day of a stored visit date. Values with
// a time part are accepted; only the leading YYYY-MM-DD is used.
func ParseVisitDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
