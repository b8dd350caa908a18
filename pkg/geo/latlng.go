// Package geo parses and validates the coordinate strings found in
// location-history exports.
package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// degreeMarkers are stripped before splitting. The mojibake form shows up
// when a UTF-8 export has been re-encoded as Latin-1 somewhere upstream.
var degreeMarkers = []string{"Â°", "°"}

// ParseLatLng parses strings such as "40.7484°, -73.9857°" into a
// latitude/longitude pair.
func ParseLatLng(s string) (lat, lon float64, err error) {
	cleaned := s
	for _, m := range degreeMarkers {
		cleaned = strings.ReplaceAll(cleaned, m, "")
	}

	parts := strings.Split(cleaned, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma separated values in %q", s)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	if !Valid(lat, lon) {
		return 0, 0, fmt.Errorf("coordinates out of range in %q", s)
	}
	return lat, lon, nil
}

// Valid reports whether lat is within [-90,90] and lon within [-180,180].
func Valid(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
