package extract

import "time"

const unknown = "Unknown"

// RawVisit is a troubleshooting view of a top-candidate visit.
type RawVisit struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	PlaceID     string `json:"place_id"`
	Coordinates string `json:"coordinates"`
}

func rawVisit(segment Segment, top *RawCandidate) RawVisit {
	v := RawVisit{
		Start:       segment.StartTime,
		End:         segment.EndTime,
		PlaceID:     top.PlaceID,
		Coordinates: top.PlaceLocation.LatLng,
	}
	if v.PlaceID == "" {
		v.PlaceID = unknown
	}
	if v.Coordinates == "" {
		v.Coordinates = unknown
	}
	return v
}

// ByDateRange lists top-candidate visits whose start date falls within
// [from, to]. Segments with an unparseable start time are skipped.
func ByDateRange(export *Export, from, to time.Time) []RawVisit {
	var visits []RawVisit
	if export == nil {
		return visits
	}
	fromDay := from.Format(time.DateOnly)
	toDay := to.Format(time.DateOnly)

	for _, segment := range export.SemanticSegments {
		if segment.Visit == nil || segment.Visit.TopCandidate == nil {
			continue
		}
		day := ParseVisitDate(segment.StartTime)
		if day == "" {
			continue
		}
		if day < fromDay || day > toDay {
			continue
		}
		visits = append(visits, rawVisit(segment, segment.Visit.TopCandidate))
	}
	return visits
}

// ByPlaceID lists every top-candidate visit to placeID.
func ByPlaceID(export *Export, placeID string) []RawVisit {
	var visits []RawVisit
	if export == nil {
		return visits
	}
	for _, segment := range export.SemanticSegments {
		if segment.Visit == nil || segment.Visit.TopCandidate == nil {
			continue
		}
		if segment.Visit.TopCandidate.PlaceID != placeID {
			continue
		}
		visits = append(visits, rawVisit(segment, segment.Visit.TopCandidate))
	}
	return visits
}
