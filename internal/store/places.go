// Package store holds the canonical set of visited places and its CSV
// persistence. A PlaceStore is not safe for concurrent use; callers
// serialise access.
package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wanderlog/internal/apperr"
	"wanderlog/internal/models"
	"wanderlog/pkg/geo"
	"wanderlog/pkg/logger"
)

const (
	MaxAliasLength       = 120
	MaxDescriptionLength = 2000
)

// BackupSink receives a copy of every local backup file.
type BackupSink interface {
	MirrorBackup(ctx context.Context, localPath string) error
}

type PlaceStore struct {
	path      string
	backupDir string
	sink      BackupSink
	log       *zap.Logger
	now       func() time.Time

	places []models.Place
	index  map[string]int
	// hasData is set once the store has held records, so that saving an
	// emptied store still truncates the file on disk.
	hasData bool
}

type Option func(*PlaceStore)

// WithBackupDir sets where Backup writes snapshots. Defaults to the
// directory of the store file.
func WithBackupDir(dir string) Option {
	return func(s *PlaceStore) { s.backupDir = dir }
}

func WithBackupSink(sink BackupSink) Option {
	return func(s *PlaceStore) { s.sink = sink }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *PlaceStore) { s.log = logger.OrNop(log) }
}

func WithClock(now func() time.Time) Option {
	return func(s *PlaceStore) { s.now = now }
}

func NewPlaceStore(path string, opts ...Option) *PlaceStore {
	s := &PlaceStore{
		path:      path,
		backupDir: filepath.Dir(path),
		log:       zap.NewNop(),
		now:       time.Now,
		index:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory records with the contents of the store file.
// A missing or unreadable file leaves the store empty; the error is logged,
// not returned. It returns the number of records loaded.
func (s *PlaceStore) Load() int {
	s.reset(nil)

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("Place store file not found, starting empty", zap.String("path", s.path))
		return 0
	}
	if err != nil {
		s.log.Error("Failed to open place store", zap.String("path", s.path), zap.Error(err))
		return 0
	}
	defer f.Close()

	places, dropped, err := decodeCSV(f)
	if err != nil {
		s.log.Error("Failed to parse place store", zap.String("path", s.path), zap.Error(err))
		return 0
	}
	if dropped > 0 {
		s.log.Warn("Dropped invalid place rows", zap.Int("dropped", dropped), zap.String("path", s.path))
	}

	s.reset(places)
	s.hasData = len(places) > 0
	s.log.Info("Loaded places", zap.Int("count", len(places)), zap.String("path", s.path))
	return len(places)
}

// Save writes every record to the store file. Saving a store that never
// held data is a no-op.
func (s *PlaceStore) Save() error {
	if len(s.places) == 0 && !s.hasData {
		s.log.Info("No place data to save", zap.String("path", s.path))
		return nil
	}
	if err := s.writeFile(s.path); err != nil {
		s.log.Error("Failed to save place store", zap.String("path", s.path), zap.Error(err))
		return apperr.Wrap(apperr.PersistenceFailed, err)
	}
	s.log.Info("Saved places", zap.Int("count", len(s.places)), zap.String("path", s.path))
	return nil
}

// Backup writes a timestamped snapshot next to the store and returns its
// path, or "" when there is nothing to back up. A configured BackupSink
// receives a copy; mirroring failures are logged only.
func (s *PlaceStore) Backup(ctx context.Context) (string, error) {
	if len(s.places) == 0 {
		s.log.Info("No place data to back up")
		return "", nil
	}

	path := s.backupPath()
	if err := s.writeFile(path); err != nil {
		s.log.Error("Failed to write backup", zap.String("path", path), zap.Error(err))
		return "", apperr.Wrap(apperr.PersistenceFailed, err)
	}
	s.log.Info("Created backup", zap.Int("count", len(s.places)), zap.String("path", path))

	if s.sink != nil {
		if err := s.sink.MirrorBackup(ctx, path); err != nil {
			s.log.Warn("Failed to mirror backup", zap.String("path", path), zap.Error(err))
		}
	}
	return path, nil
}

// Reset empties the store and persists the empty state. With backupFirst a
// snapshot is taken beforehand, and a failed snapshot aborts the reset.
func (s *PlaceStore) Reset(ctx context.Context, backupFirst bool) (string, error) {
	var backup string
	if backupFirst {
		var err error
		if backup, err = s.Backup(ctx); err != nil {
			return "", err
		}
	}
	s.reset(nil)
	s.hasData = true
	return backup, s.Save()
}

func (s *PlaceStore) backupPath() string {
	stem := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	ts := s.now().Format("20060102_150405")
	path := filepath.Join(s.backupDir, fmt.Sprintf("%s_backup_%s.csv", stem, ts))
	for i := 1; fileExists(path); i++ {
		path = filepath.Join(s.backupDir, fmt.Sprintf("%s_backup_%s_%d.csv", stem, ts, i))
	}
	return path
}

// writeFile replaces path atomically with the current records.
func (s *PlaceStore) writeFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".places-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encodeCSV(tmp, s.places); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *PlaceStore) reset(places []models.Place) {
	s.places = places
	s.reindex()
}

func (s *PlaceStore) reindex() {
	s.index = make(map[string]int, len(s.places))
	for i, p := range s.places {
		s.index[p.Key] = i
	}
}

// Append adds records whose keys are not yet stored. The batch is rejected
// as a whole when any key is blank or already present.
func (s *PlaceStore) Append(records []models.Place) error {
	batch := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Key == "" {
			return apperr.PlaceIDRequired
		}
		if _, ok := s.index[r.Key]; ok {
			return fmt.Errorf("place %q already stored", r.Key)
		}
		if _, ok := batch[r.Key]; ok {
			return fmt.Errorf("place %q repeated in batch", r.Key)
		}
		batch[r.Key] = struct{}{}
	}
	for _, r := range records {
		s.index[r.Key] = len(s.places)
		s.places = append(s.places, r)
	}
	if len(records) > 0 {
		s.hasData = true
	}
	return nil
}

// ManualPlace is the input for a hand-entered place. Coordinates arrive as
// text and are validated here.
type ManualPlace struct {
	Latitude    string
	Longitude   string
	Label       string
	VisitDate   string
	SourceType  string
	Alias       string
	Description string
}

// AddManual stores a single place under a freshly generated key.
func (s *PlaceStore) AddManual(in ManualPlace) (models.Place, error) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(in.Latitude), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(in.Longitude), 64)
	if latErr != nil || lonErr != nil || !geo.Valid(lat, lon) {
		return models.Place{}, apperr.New(apperr.InvalidCoordinates, "lat=%q lon=%q", in.Latitude, in.Longitude)
	}
	alias := strings.TrimSpace(in.Alias)
	if err := checkLength(apperr.AliasTooLong, alias, MaxAliasLength); err != nil {
		return models.Place{}, err
	}
	desc := strings.TrimSpace(in.Description)
	if err := checkLength(apperr.DescriptionTooLong, desc, MaxDescriptionLength); err != nil {
		return models.Place{}, err
	}

	source := strings.TrimSpace(in.SourceType)
	if source == "" {
		source = models.SourceManual
	}

	key := newPlaceKey()
	for s.Has(key) {
		key = newPlaceKey()
	}
	p := models.Place{
		Key:          key,
		Latitude:     lat,
		Longitude:    lon,
		VisitDate:    strings.TrimSpace(in.VisitDate),
		SourceType:   source,
		DisplayLabel: strings.TrimSpace(in.Label),
		Alias:        alias,
		Description:  desc,
	}
	if err := s.Append([]models.Place{p}); err != nil {
		return models.Place{}, err
	}
	return p, nil
}

func newPlaceKey() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

func checkLength(def apperr.Definition, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return apperr.New(def, "%d characters, maximum is %d", n, max)
	}
	return nil
}

// lookup returns the position of key, or a not-found error.
func (s *PlaceStore) lookup(key string) (int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, apperr.PlaceIDRequired
	}
	i, ok := s.index[key]
	if !ok {
		return 0, apperr.New(apperr.PlaceNotFound, "%q", key)
	}
	return i, nil
}

func (s *PlaceStore) SetArchived(key string, archived bool) error {
	i, err := s.lookup(key)
	if err != nil {
		return err
	}
	s.places[i].Archived = archived
	s.hasData = true
	return nil
}

// BulkSetArchived updates every stored key in keys and returns how many
// matched. Unknown keys are ignored; it fails only when none match.
func (s *PlaceStore) BulkSetArchived(keys []string, archived bool) (int, error) {
	matched := 0
	for _, key := range normalizeKeys(keys) {
		if i, ok := s.index[key]; ok {
			s.places[i].Archived = archived
			matched++
		}
	}
	if matched == 0 {
		return 0, apperr.NoMatchingPlaces
	}
	s.hasData = true
	return matched, nil
}

// Delete removes a single record. Trip memberships are not touched.
func (s *PlaceStore) Delete(key string) error {
	if _, err := s.lookup(key); err != nil {
		return err
	}
	s.removeKeys(map[string]struct{}{strings.TrimSpace(key): {}})
	return nil
}

// BulkDelete removes every stored key in keys and returns how many were
// removed. It fails only when none match.
func (s *PlaceStore) BulkDelete(keys []string) (int, error) {
	targets := make(map[string]struct{})
	for _, key := range normalizeKeys(keys) {
		if _, ok := s.index[key]; ok {
			targets[key] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return 0, apperr.NoMatchingPlaces
	}
	s.removeKeys(targets)
	return len(targets), nil
}

func (s *PlaceStore) removeKeys(targets map[string]struct{}) {
	kept := s.places[:0]
	for _, p := range s.places {
		if _, drop := targets[p.Key]; !drop {
			kept = append(kept, p)
		}
	}
	clear(s.places[len(kept):])
	s.places = kept
	s.hasData = true
	s.reindex()
}

// SetAlias sets or, with an empty alias, clears the user label.
func (s *PlaceStore) SetAlias(key, alias string) error {
	alias = strings.TrimSpace(alias)
	if err := checkLength(apperr.AliasTooLong, alias, MaxAliasLength); err != nil {
		return err
	}
	i, err := s.lookup(key)
	if err != nil {
		return err
	}
	s.places[i].Alias = alias
	s.hasData = true
	return nil
}

func (s *PlaceStore) SetDescription(key, text string) error {
	text = strings.TrimSpace(text)
	if err := checkLength(apperr.DescriptionTooLong, text, MaxDescriptionLength); err != nil {
		return err
	}
	i, err := s.lookup(key)
	if err != nil {
		return err
	}
	s.places[i].Description = text
	s.hasData = true
	return nil
}

func (s *PlaceStore) Get(key string) (models.Place, error) {
	i, err := s.lookup(key)
	if err != nil {
		return models.Place{}, err
	}
	return s.places[i], nil
}

func (s *PlaceStore) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// VisitDate returns the stored visit date of key.
func (s *PlaceStore) VisitDate(key string) (string, bool) {
	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.places[i].VisitDate, true
}

func (s *PlaceStore) Len() int { return len(s.places) }

// All returns a copy of every record in insertion order.
func (s *PlaceStore) All() []models.Place {
	out := make([]models.Place, len(s.places))
	copy(out, s.places)
	return out
}

func (s *PlaceStore) Keys() []string {
	keys := make([]string, len(s.places))
	for i, p := range s.places {
		keys[i] = p.Key
	}
	return keys
}

// normalizeKeys trims keys and drops blanks and repeats.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
