package models

import "time"

// Trip is a user-defined, ordered grouping of place keys. PlaceIDs reference
// the place store weakly: a key may outlive the record it points at.
type Trip struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotosURL   string    `json:"google_photos_url"`
	Photos      []Photo   `json:"photos"`
	PlaceIDs    []string  `json:"place_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPlace reports whether key is already a member of the trip.
func (t *Trip) HasPlace(key string) bool {
	for _, id := range t.PlaceIDs {
		if id == key {
			return true
		}
	}
	return false
}

// Photo is an entry from an external photo album attached to a trip.
type Photo struct {
	ID          string `json:"id"`
	BaseURL     string `json:"base_url"`
	ProductURL  string `json:"product_url"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mime_type"`
	DownloadURL string `json:"download_url,omitempty"`
	Width       string `json:"width,omitempty"`
	Height      string `json:"height,omitempty"`
}
