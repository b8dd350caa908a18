package models

// SourceManual tags records created by hand rather than by an import.
const SourceManual = "manual"

// Place is one row of the visited-places store.
type Place struct {
	Key          string  `json:"place_key"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	VisitDate    string  `json:"visit_date"` // YYYY-MM-DD or empty
	SourceType   string  `json:"source_type"`
	DisplayLabel string  `json:"display_label"`
	Alias        string  `json:"alias"`
	Description  string  `json:"description"`
	Archived     bool    `json:"archived"`
}

// DisplayName prefers the user alias over the geocoded label.
func (p Place) DisplayName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.DisplayLabel
}
