package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"wanderlog/internal/models"
	"wanderlog/pkg/geo"
)

const (
	colKey          = "place_key"
	colLatitude     = "latitude"
	colLongitude    = "longitude"
	colVisitDate    = "visit_date"
	colSourceType   = "source_type"
	colDisplayLabel = "display_label"
	colAlias        = "alias"
	colArchived     = "archived"
	colDescription  = "description"
)

// columns is the order records are written in.
var columns = []string{
	colKey, colLatitude, colLongitude, colVisitDate, colSourceType,
	colDisplayLabel, colAlias, colArchived, colDescription,
}

// legacyHeaders maps column titles written by older versions of the store.
var legacyHeaders = map[string]string{
	"place id":    colKey,
	"latitude":    colLatitude,
	"longitude":   colLongitude,
	"start date":  colVisitDate,
	"source type": colSourceType,
	"place name":  colDisplayLabel,
	"alias":       colAlias,
	"archived":    colArchived,
	"description": colDescription,
}

func canonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	if c, ok := legacyHeaders[h]; ok {
		return c
	}
	return h
}

// decodeCSV reads records from r. Rows without a key, with unusable
// coordinates, or repeating an earlier key are dropped and counted.
// Missing optional columns leave their fields at the zero value.
func decodeCSV(r io.Reader) ([]models.Place, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[canonicalColumn(h)]; !dup {
			idx[canonicalColumn(h)] = i
		}
	}
	for _, required := range []string{colKey, colLatitude, colLongitude} {
		if _, ok := idx[required]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		places  []models.Place
		dropped int
		seen    = make(map[string]struct{})
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		key := field(row, colKey)
		lat, latErr := strconv.ParseFloat(field(row, colLatitude), 64)
		lon, lonErr := strconv.ParseFloat(field(row, colLongitude), 64)
		if key == "" || latErr != nil || lonErr != nil || !geo.Valid(lat, lon) {
			dropped++
			continue
		}
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}

		places = append(places, models.Place{
			Key:          key,
			Latitude:     lat,
			Longitude:    lon,
			VisitDate:    field(row, colVisitDate),
			SourceType:   field(row, colSourceType),
			DisplayLabel: field(row, colDisplayLabel),
			Alias:        nanToEmpty(field(row, colAlias)),
			Archived:     parseArchived(field(row, colArchived)),
			Description:  nanToEmpty(field(row, colDescription)),
		})
	}
	return places, dropped, nil
}

func encodeCSV(w io.Writer, places []models.Place) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, p := range places {
		row := []string{
			p.Key,
			strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			strconv.FormatFloat(p.Longitude, 'f', -1, 64),
			p.VisitDate,
			p.SourceType,
			p.DisplayLabel,
			p.Alias,
			strconv.FormatBool(p.Archived),
			p.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseArchived treats anything that is not a recognisable true value as
// false, including blanks and NaN markers from older files.
func parseArchived(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func nanToEmpty(s string) string {
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}
