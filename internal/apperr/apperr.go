// Package apperr is the error catalogue shared by the place and trip stores.
// Each Definition is a comparable sentinel, so callers match with errors.Is
// and map the Kind onto whatever status space their transport uses.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindPersistence  Kind = "persistence"
	KindInvalidInput Kind = "invalid_input"
)

// Definition is a business error code with its default message.
type Definition struct {
	Code    string
	Message string
	Kind    Kind
}

func (d Definition) Error() string {
	return d.Message
}

// Place store errors.
var (
	PlaceNotFound      = Definition{Code: "PLACE_NOT_FOUND", Message: "Place not found", Kind: KindNotFound}
	PlaceIDRequired    = Definition{Code: "PLACE_ID_REQUIRED", Message: "A valid place ID is required", Kind: KindValidation}
	NoMatchingPlaces   = Definition{Code: "NO_MATCHING_PLACES", Message: "None of the requested places exist", Kind: KindNotFound}
	InvalidCoordinates = Definition{Code: "INVALID_COORDINATES", Message: "Latitude and longitude must be valid numbers", Kind: KindValidation}
	AliasTooLong       = Definition{Code: "ALIAS_TOO_LONG", Message: "Alias is too long", Kind: KindValidation}
	DescriptionTooLong = Definition{Code: "DESCRIPTION_TOO_LONG", Message: "Description is too long", Kind: KindValidation}
)

// Trip store errors.
var (
	TripNotFound     = Definition{Code: "TRIP_NOT_FOUND", Message: "Trip not found", Kind: KindNotFound}
	TripIDRequired   = Definition{Code: "TRIP_ID_REQUIRED", Message: "A valid trip ID is required", Kind: KindValidation}
	TripNameRequired = Definition{Code: "TRIP_NAME_REQUIRED", Message: "Trip name is required", Kind: KindValidation}
	TripNameTooLong  = Definition{Code: "TRIP_NAME_TOO_LONG", Message: "Trip name is too long", Kind: KindValidation}
	NotTripMember    = Definition{Code: "NOT_TRIP_MEMBER", Message: "This trip does not contain the specified location", Kind: KindValidation}
	NoFieldsToUpdate = Definition{Code: "NO_FIELDS_TO_UPDATE", Message: "At least one field must be provided", Kind: KindValidation}
	PhotoNotFound    = Definition{Code: "PHOTO_NOT_FOUND", Message: "Photo not found", Kind: KindNotFound}
	PhotosRejected   = Definition{Code: "PHOTOS_REJECTED", Message: "Unable to import the selected photos", Kind: KindValidation}
)

// Persistence and input errors.
var (
	PersistenceFailed  = Definition{Code: "PERSISTENCE_FAILED", Message: "Failed to persist data", Kind: KindPersistence}
	ExportDecodeFailed = Definition{Code: "EXPORT_DECODE_FAILED", Message: "Failed to parse the timeline export", Kind: KindInvalidInput}
)

// Lookup maps codes back to their definitions.
var Lookup = map[string]Definition{
	PlaceNotFound.Code:      PlaceNotFound,
	PlaceIDRequired.Code:    PlaceIDRequired,
	NoMatchingPlaces.Code:   NoMatchingPlaces,
	InvalidCoordinates.Code: InvalidCoordinates,
	AliasTooLong.Code:       AliasTooLong,
	DescriptionTooLong.Code: DescriptionTooLong,
	TripNotFound.Code:       TripNotFound,
	TripIDRequired.Code:     TripIDRequired,
	TripNameRequired.Code:   TripNameRequired,
	TripNameTooLong.Code:    TripNameTooLong,
	NotTripMember.Code:      NotTripMember,
	NoFieldsToUpdate.Code:   NoFieldsToUpdate,
	PhotoNotFound.Code:      PhotoNotFound,
	PhotosRejected.Code:     PhotosRejected,
	PersistenceFailed.Code:  PersistenceFailed,
	ExportDecodeFailed.Code: ExportDecodeFailed,
}

// Get returns the definition for code, or a generic one when unknown.
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// Error pairs a Definition with request-specific detail and an optional cause.
type Error struct {
	Def    Definition
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Def.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Def}
	}
	return []error{e.Def, e.Cause}
}

// New returns def annotated with a formatted detail.
func New(def Definition, format string, args ...any) error {
	return &Error{Def: def, Detail: fmt.Sprintf(format, args...)}
}

// Wrap returns def caused by err.
func Wrap(def Definition, err error) error {
	return &Error{Def: def, Cause: err}
}

// KindOf reports the Kind of the first Definition found in err's chain.
func KindOf(err error) (Kind, bool) {
	var def Definition
	if errors.As(err, &def) {
		return def.Kind, true
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Def.Kind, true
	}
	return "", false
}

func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}
