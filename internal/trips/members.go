package trips

import (
	"time"

	"wanderlog/internal/models"
	"wanderlog/internal/store"
)

// PlaceLookup is the read side of the place store used by trip projections.
type PlaceLookup interface {
	Has(key string) bool
	Get(key string) (models.Place, error)
}

// VisitDates resolves the stored visit date of a place key.
type VisitDates interface {
	VisitDate(key string) (string, bool)
}

// Member is one trip entry resolved against the place store. Missing is set
// when the key no longer names a stored place.
type Member struct {
	Key     string
	Place   models.Place
	Missing bool
}

// Members resolves every key of the trip, keeping trip order.
func (s *TripStore) Members(id string, places PlaceLookup) ([]Member, error) {
	t, _, err := s.find(id)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(t.PlaceIDs))
	for _, key := range t.PlaceIDs {
		m := Member{Key: key, Missing: true}
		if places != nil && places.Has(key) {
			if p, err := places.Get(key); err == nil {
				m.Place, m.Missing = p, false
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// LatestActivityDate returns the latest parseable visit date among the
// trip's members. ok is false when no member has one.
func (s *TripStore) LatestActivityDate(id string, dates VisitDates) (latest time.Time, ok bool, err error) {
	t, _, err := s.find(id)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, key := range t.PlaceIDs {
		raw, found := dates.VisitDate(key)
		if !found {
			continue
		}
		d, parsed := store.ParseVisitDate(raw)
		if !parsed {
			continue
		}
		if !ok || d.After(latest) {
			latest, ok = d, true
		}
	}
	return latest, ok, nil
}
