package trips

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wanderlog/internal/models"
)

const untitledTrip = "Untitled Trip"

// document is the on-disk layout of the trip file.
type document struct {
	Trips []models.Trip `json:"trips"`
}

// rawTrip accepts the field names written by older versions of the file.
type rawTrip struct {
	ID              string            `json:"id"`
	TripID          string            `json:"trip_id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	GooglePhotosURL string            `json:"google_photos_url"`
	PhotosURL       string            `json:"photos_url"`
	Photos          []rawPhoto        `json:"photos"`
	PlaceIDs        []json.RawMessage `json:"place_ids"`
	CreatedAt       string            `json:"created_at"`
	Created         string            `json:"created"`
	UpdatedAt       string            `json:"updated_at"`
	Updated         string            `json:"updated"`
}

// rawPhoto is either a bare URL string or an object using snake_case or
// camelCase keys.
type rawPhoto struct {
	models.Photo
}

func (p *rawPhoto) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		p.Photo = models.Photo{BaseURL: url}
		return nil
	}

	var obj struct {
		ID          string `json:"id"`
		BaseURL     string `json:"base_url"`
		BaseURLAlt  string `json:"baseUrl"`
		URL         string `json:"url"`
		ProductURL  string `json:"product_url"`
		ProductAlt  string `json:"productUrl"`
		Filename    string `json:"filename"`
		MimeType    string `json:"mime_type"`
		MimeTypeAlt string `json:"mimeType"`
		DownloadURL string `json:"download_url"`
		DownloadAlt string `json:"downloadUrl"`
		Width       any    `json:"width"`
		Height      any    `json:"height"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// Unknown shapes are dropped by normalisation rather than failing the file.
		p.Photo = models.Photo{}
		return nil
	}
	p.Photo = models.Photo{
		ID:          obj.ID,
		BaseURL:     firstNonBlank(obj.BaseURL, obj.BaseURLAlt, obj.URL),
		ProductURL:  firstNonBlank(obj.ProductURL, obj.ProductAlt),
		Filename:    obj.Filename,
		MimeType:    firstNonBlank(obj.MimeType, obj.MimeTypeAlt),
		DownloadURL: firstNonBlank(obj.DownloadURL, obj.DownloadAlt),
		Width:       stringify(obj.Width),
		Height:      stringify(obj.Height),
	}
	return nil
}

// decodeTrips reads either {"trips": [...]} or a bare list.
func decodeTrips(data []byte, now time.Time) ([]*models.Trip, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raws []rawTrip
	switch data[0] {
	case '{':
		var doc struct {
			Trips []rawTrip `json:"trips"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		raws = doc.Trips
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unexpected trip document starting with %q", data[0])
	}

	trips := make([]*models.Trip, 0, len(raws))
	seenIDs := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		t := raw.normalize(now)
		if _, dup := seenIDs[t.ID]; dup {
			t.ID = newTripID()
		}
		seenIDs[t.ID] = struct{}{}
		trips = append(trips, t)
	}
	return trips, nil
}

func (r rawTrip) normalize(now time.Time) *models.Trip {
	t := &models.Trip{
		ID:          firstNonBlank(r.ID, r.TripID),
		Name:        strings.TrimSpace(r.Name),
		Description: blankToEmpty(r.Description),
		PhotosURL:   firstNonBlank(r.GooglePhotosURL, r.PhotosURL),
		PlaceIDs:    []string{},
	}
	if t.ID == "" {
		t.ID = newTripID()
	}
	if t.Name == "" {
		t.Name = untitledTrip
	}

	seen := make(map[string]struct{}, len(r.PlaceIDs))
	for _, rawID := range r.PlaceIDs {
		id := strings.TrimSpace(stringifyRaw(rawID))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t.PlaceIDs = append(t.PlaceIDs, id)
	}

	photos := make([]models.Photo, 0, len(r.Photos))
	for _, p := range r.Photos {
		photos = append(photos, p.Photo)
	}
	t.Photos, _ = normalizePhotos(photos)

	created, ok := parseTimestamp(firstNonBlank(r.CreatedAt, r.Created))
	if !ok {
		created = now
	}
	t.CreatedAt = created
	updated, ok := parseTimestamp(firstNonBlank(r.UpdatedAt, r.Updated))
	if !ok || updated.Before(created) {
		updated = created
	}
	t.UpdatedAt = updated
	return t
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func newTripID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// blankToEmpty keeps a description verbatim unless it is only whitespace.
func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// stringifyRaw turns a JSON string or number into its text form.
func stringifyRaw(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
