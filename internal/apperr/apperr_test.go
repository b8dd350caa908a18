package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatching(t *testing.T) {
	cause := errors.New("disk full")
	cases := []struct {
		name           string
		err            error
		target         Definition
		wantNotFound   bool
		wantValidation bool
	}{
		{"not found with detail", New(PlaceNotFound, "key %q", "abc"), PlaceNotFound, true, false},
		{"validation", New(AliasTooLong, "max %d", 120), AliasTooLong, false, true},
		{"wrapped persistence", Wrap(PersistenceFailed, cause), PersistenceFailed, false, false},
		{"bare definition", TripNotFound, TripNotFound, true, false},
		{"wrapped twice", fmt.Errorf("saving: %w", New(NotTripMember, "x")), NotTripMember, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.target) {
				t.Fatalf("errors.Is(%v, %s) = false", tc.err, tc.target.Code)
			}
			if got := IsNotFound(tc.err); got != tc.wantNotFound {
				t.Errorf("IsNotFound = %v; want %v", got, tc.wantNotFound)
			}
			if got := IsValidation(tc.err); got != tc.wantValidation {
				t.Errorf("IsValidation = %v; want %v", got, tc.wantValidation)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(PersistenceFailed, cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable from %v", err)
	}
	if got, want := err.Error(), "Failed to persist data: permission denied"; got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
}

func TestGet(t *testing.T) {
	if got := Get(PlaceNotFound.Code); got != PlaceNotFound {
		t.Errorf("Get(%q) = %+v", PlaceNotFound.Code, got)
	}
	if got := Get("NOPE"); got.Message != "Unexpected error" {
		t.Errorf("Get(unknown).Message = %q", got.Message)
	}
}
