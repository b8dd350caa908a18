package trips

import (
	"strings"

	"wanderlog/internal/models"
)

var allowedPhotoPrefixes = []string{"http://", "https://", "data:"}

// normalizePhotos trims every entry, drops entries without a usable base URL
// and removes repeats by id, falling back to base URL. It returns the kept
// entries and the number dropped.
func normalizePhotos(in []models.Photo) ([]models.Photo, int) {
	out := make([]models.Photo, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	dropped := 0

	for _, p := range in {
		p = models.Photo{
			ID:          strings.TrimSpace(p.ID),
			BaseURL:     strings.TrimSpace(p.BaseURL),
			ProductURL:  strings.TrimSpace(p.ProductURL),
			Filename:    strings.TrimSpace(p.Filename),
			MimeType:    strings.TrimSpace(p.MimeType),
			DownloadURL: strings.TrimSpace(p.DownloadURL),
			Width:       strings.TrimSpace(p.Width),
			Height:      strings.TrimSpace(p.Height),
		}
		if !allowedPhotoURL(p.BaseURL) {
			dropped++
			continue
		}
		dedupeKey := p.ID
		if dedupeKey == "" {
			dedupeKey = p.BaseURL
		}
		if _, dup := seen[dedupeKey]; dup {
			dropped++
			continue
		}
		seen[dedupeKey] = struct{}{}
		out = append(out, p)
	}
	return out, dropped
}

func allowedPhotoURL(u string) bool {
	lower := strings.ToLower(u)
	for _, prefix := range allowedPhotoPrefixes {
		if strings.HasPrefix(lower, prefix) && len(u) > len(prefix) {
			return true
		}
	}
	return false
}
