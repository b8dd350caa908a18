// Package trips keeps user-defined groupings of place keys and persists them
// as a JSON document. Trips reference places weakly: a member key may name a
// place that no longer exists. A TripStore is not safe for concurrent use.
package trips

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"wanderlog/internal/apperr"
	"wanderlog/internal/models"
	"wanderlog/pkg/logger"
)

const (
	MaxNameLength        = 120
	MaxDescriptionLength = 2000
)

type TripStore struct {
	path  string
	log   *zap.Logger
	now   func() time.Time
	trips []*models.Trip
}

type Option func(*TripStore)

func WithLogger(log *zap.Logger) Option {
	return func(s *TripStore) { s.log = logger.OrNop(log) }
}

func WithClock(now func() time.Time) Option {
	return func(s *TripStore) { s.now = now }
}

func NewTripStore(path string, opts ...Option) *TripStore {
	s := &TripStore{path: path, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory trips with the file contents. Missing or
// unreadable files leave the store empty and are logged, not returned.
func (s *TripStore) Load() int {
	s.trips = nil

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("Trip file not found, starting empty", zap.String("path", s.path))
		return 0
	}
	if err != nil {
		s.log.Error("Failed to read trips", zap.String("path", s.path), zap.Error(err))
		return 0
	}

	trips, err := decodeTrips(data, s.now().UTC())
	if err != nil {
		s.log.Error("Failed to parse trips", zap.String("path", s.path), zap.Error(err))
		return 0
	}
	s.trips = trips
	s.log.Info("Loaded trips", zap.Int("count", len(trips)), zap.String("path", s.path))
	return len(trips)
}

// Save writes every trip to disk.
func (s *TripStore) Save() error {
	doc := document{Trips: make([]models.Trip, 0, len(s.trips))}
	for _, t := range s.trips {
		doc.Trips = append(doc.Trips, *t)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.PersistenceFailed, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		s.log.Error("Failed to save trips", zap.String("path", s.path), zap.Error(err))
		return apperr.Wrap(apperr.PersistenceFailed, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".trips-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// List returns a copy of every trip in creation order.
func (s *TripStore) List() []models.Trip {
	out := make([]models.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		out = append(out, cloneTrip(t))
	}
	return out
}

func (s *TripStore) Get(id string) (models.Trip, error) {
	t, _, err := s.find(id)
	if err != nil {
		return models.Trip{}, err
	}
	return cloneTrip(t), nil
}

func (s *TripStore) find(id string) (*models.Trip, int, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, -1, apperr.TripIDRequired
	}
	for i, t := range s.trips {
		if t.ID == id {
			return t, i, nil
		}
	}
	return nil, -1, apperr.New(apperr.TripNotFound, "%q", id)
}

// touch advances UpdatedAt without ever moving it backwards.
func (s *TripStore) touch(t *models.Trip) {
	now := s.now().UTC()
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
}

// commit persists after a mutation. The in-memory change is kept even when
// the write fails.
func (s *TripStore) commit(t *models.Trip) (models.Trip, error) {
	err := s.Save()
	if t == nil {
		return models.Trip{}, err
	}
	return cloneTrip(t), err
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.TripNameRequired
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", apperr.New(apperr.TripNameTooLong, "%d characters, maximum is %d", n, MaxNameLength)
	}
	return name, nil
}

func validateDescription(desc string) (string, error) {
	desc = blankToEmpty(desc)
	if n := utf8.RuneCountInString(desc); n > MaxDescriptionLength {
		return "", apperr.New(apperr.DescriptionTooLong, "%d characters, maximum is %d", n, MaxDescriptionLength)
	}
	return desc, nil
}

// NewTrip holds the fields accepted when creating a trip.
type NewTrip struct {
	Name        string
	Description string
	PhotosURL   string
}

// Create adds a trip with no members.
func (s *TripStore) Create(in NewTrip) (models.Trip, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return models.Trip{}, err
	}
	desc, err := validateDescription(in.Description)
	if err != nil {
		return models.Trip{}, err
	}

	now := s.now().UTC()
	t := &models.Trip{
		ID:          newTripID(),
		Name:        name,
		Description: desc,
		PhotosURL:   strings.TrimSpace(in.PhotosURL),
		Photos:      []models.Photo{},
		PlaceIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.trips = append(s.trips, t)
	s.log.Info("Created trip", zap.String("trip_id", t.ID), zap.String("name", t.Name))
	return s.commit(t)
}

// AddPlaces appends keys not yet in the trip and reports how many were new.
// Blank keys are ignored.
func (s *TripStore) AddPlaces(id string, keys []string) (models.Trip, int, error) {
	t, _, err := s.find(id)
	if err != nil {
		return models.Trip{}, 0, err
	}

	added := 0
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" || t.HasPlace(key) {
			continue
		}
		t.PlaceIDs = append(t.PlaceIDs, key)
		added++
	}
	if added == 0 {
		return cloneTrip(t), 0, nil
	}

	s.touch(t)
	trip, err := s.commit(t)
	return trip, added, err
}

// RemovePlace drops key from the trip. A key that is not a member is a
// validation error, distinct from an unknown trip.
func (s *TripStore) RemovePlace(id, key string) (models.Trip, error) {
	t, _, err := s.find(id)
	if err != nil {
		return models.Trip{}, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Trip{}, apperr.PlaceIDRequired
	}

	i := slices.Index(t.PlaceIDs, key)
	if i < 0 {
		return models.Trip{}, apperr.New(apperr.NotTripMember, "%q", key)
	}
	t.PlaceIDs = slices.Delete(t.PlaceIDs, i, i+1)
	s.touch(t)
	return s.commit(t)
}

// TripUpdate is a partial update; nil fields are left alone.
type TripUpdate struct {
	Name        *string
	Description *string
	PhotosURL   *string
}

// UpdateMetadata applies the supplied fields. UpdatedAt moves only when a
// value actually changes.
func (s *TripStore) UpdateMetadata(id string, u TripUpdate) (models.Trip, error) {
	t, _, err := s.find(id)
	if err != nil {
		return models.Trip{}, err
	}
	if u.Name == nil && u.Description == nil && u.PhotosURL == nil {
		return models.Trip{}, apperr.NoFieldsToUpdate
	}

	name, desc, photos := t.Name, t.Description, t.PhotosURL
	if u.Name != nil {
		if name, err = validateName(*u.Name); err != nil {
			return models.Trip{}, err
		}
	}
	if u.Description != nil {
		if desc, err = validateDescription(*u.Description); err != nil {
			return models.Trip{}, err
		}
	}
	if u.PhotosURL != nil {
		photos = strings.TrimSpace(*u.PhotosURL)
	}

	if name == t.Name && desc == t.Description && photos == t.PhotosURL {
		return cloneTrip(t), nil
	}
	t.Name, t.Description, t.PhotosURL = name, desc, photos
	s.touch(t)
	return s.commit(t)
}

// Delete removes the trip and returns it.
func (s *TripStore) Delete(id string) (models.Trip, error) {
	t, i, err := s.find(id)
	if err != nil {
		return models.Trip{}, err
	}
	s.trips = slices.Delete(s.trips, i, i+1)
	s.log.Info("Deleted trip", zap.String("trip_id", t.ID))
	_, err = s.commit(nil)
	return cloneTrip(t), err
}

// CascadeResult summarises RemovePlacesEverywhere.
type CascadeResult struct {
	RemovedMemberships int
	UpdatedTrips       int
	ProcessedIDs       []string
}

// RemovePlacesEverywhere strips keys from every trip in one pass.
func (s *TripStore) RemovePlacesEverywhere(keys []string) (CascadeResult, error) {
	res := CascadeResult{ProcessedIDs: []string{}}
	targets := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			res.ProcessedIDs = append(res.ProcessedIDs, key)
			targets[key] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return res, nil
	}

	for _, t := range s.trips {
		before := len(t.PlaceIDs)
		t.PlaceIDs = slices.DeleteFunc(t.PlaceIDs, func(id string) bool {
			_, drop := targets[id]
			return drop
		})
		if removed := before - len(t.PlaceIDs); removed > 0 {
			res.RemovedMemberships += removed
			res.UpdatedTrips++
			s.touch(t)
		}
	}
	if res.UpdatedTrips == 0 {
		return res, nil
	}
	s.log.Info("Removed places from trips",
		zap.Int("removed_memberships", res.RemovedMemberships),
		zap.Int("updated_trips", res.UpdatedTrips))
	_, err := s.commit(nil)
	return res, err
}

// SetPhotos replaces the trip's photos with the usable entries of photos.
// It fails when entries were supplied but none could be used.
func (s *TripStore) SetPhotos(id string, photos []models.Photo) (models.Trip, error) {
	t, _, err := s.find(id)
	if err != nil {
		return models.Trip{}, err
	}
	kept, dropped := normalizePhotos(photos)
	if len(photos) > 0 && len(kept) == 0 {
		s.log.Warn("Rejected every photo", zap.String("trip_id", t.ID), zap.Int("provided", len(photos)))
		return models.Trip{}, apperr.New(apperr.PhotosRejected, "%d entries without a usable URL", dropped)
	}
	t.Photos = kept
	s.touch(t)
	return s.commit(t)
}

func (s *TripStore) RemovePhoto(id string, index int) (models.Trip, error) {
	t, _, err := s.find(id)
	if err != nil {
		return models.Trip{}, err
	}
	if index < 0 || index >= len(t.Photos) {
		return models.Trip{}, apperr.New(apperr.PhotoNotFound, "index %d", index)
	}
	t.Photos = slices.Delete(t.Photos, index, index+1)
	s.touch(t)
	return s.commit(t)
}

func cloneTrip(t *models.Trip) models.Trip {
	c := *t
	c.PlaceIDs = slices.Clone(t.PlaceIDs)
	c.Photos = slices.Clone(t.Photos)
	if c.PlaceIDs == nil {
		c.PlaceIDs = []string{}
	}
	if c.Photos == nil {
		c.Photos = []models.Photo{}
	}
	return c
}
