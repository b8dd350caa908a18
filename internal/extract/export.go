package extract

import (
	"encoding/json"
	"io"

	"wanderlog/internal/apperr"
)

// Export is the subset of a location-history export the extractor reads.
type Export struct {
	SemanticSegments []Segment `json:"semanticSegments"`
}

// Segment is one time-bounded span of the timeline. Only visit segments
// carry place candidates; activity and path segments leave Visit nil.
type Segment struct {
	StartTime string        `json:"startTime"`
	EndTime   string        `json:"endTime"`
	Visit     *SegmentVisit `json:"visit,omitempty"`
}

type SegmentVisit struct {
	TopCandidate    *RawCandidate  `json:"topCandidate,omitempty"`
	CandidatePlaces []RawCandidate `json:"candidatePlaces,omitempty"`
}

type RawCandidate struct {
	PlaceID       string        `json:"placeId"`
	SemanticType  string        `json:"semanticType,omitempty"`
	PlaceLocation PlaceLocation `json:"placeLocation"`
}

type PlaceLocation struct {
	LatLng string `json:"latLng"`
}

// candidates returns the top candidate followed by the alternates.
func (v *SegmentVisit) candidates() []RawCandidate {
	out := make([]RawCandidate, 0, len(v.CandidatePlaces)+1)
	if v.TopCandidate != nil {
		out = append(out, *v.TopCandidate)
	}
	return append(out, v.CandidatePlaces...)
}

// Decode reads a JSON export from r.
func Decode(r io.Reader) (*Export, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, apperr.Wrap(apperr.ExportDecodeFailed, err)
	}
	return &export, nil
}
