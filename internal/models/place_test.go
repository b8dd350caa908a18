package models

import "testing"

func TestPlace_DisplayName(t *testing.T) {
	cases := []struct {
		name  string
		place Place
		want  string
	}{
		{"label only", Place{DisplayLabel: "Central Park"}, "Central Park"},
		{"alias wins", Place{DisplayLabel: "Central Park", Alias: "Picnic spot"}, "Picnic spot"},
		{"both empty", Place{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.place.DisplayName(); got != tc.want {
				t.Fatalf("DisplayName() = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestTrip_HasPlace(t *testing.T) {
	trip := &Trip{PlaceIDs: []string{"a", "b"}}
	if !trip.HasPlace("b") {
		t.Error("HasPlace(b) = false")
	}
	if trip.HasPlace("c") {
		t.Error("HasPlace(c) = true")
	}
}
