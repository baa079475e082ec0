package riskerr

import (
	"errors"
	"fmt"
)

// UnknownCropError is returned when a crop type is not in the profile store.
type UnknownCropError struct {
	Crop string
}

func (e *UnknownCropError) Error() string {
	return fmt.Sprintf("unknown crop type %q", e.Crop)
}

// ModelUnavailableError is returned when a predictive model fails to
// produce a usable output for a waypoint.
type ModelUnavailableError struct {
	Model string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model %s unavailable", e.Model)
	}
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// InvalidWaypointSequenceError reports a route that breaks the ordering or
// range invariants of its waypoints.
type InvalidWaypointSequenceError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidWaypointSequenceError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid waypoint sequence: %s", e.Reason)
	}
	return fmt.Sprintf("invalid waypoint sequence at index %d (%s): %s", e.Index, e.Field, e.Reason)
}

// Kind groups errors by the corrective action a caller should take.
type Kind string

const (
	KindUnsupportedCrop Kind = "unsupported_crop"
	KindInvalidRoute    Kind = "invalid_route"
	KindModelFailure    Kind = "model_unavailable"
	KindInternal        Kind = "internal"
)

// KindOf classifies err. Nil errors are reported as KindInternal.
func KindOf(err error) Kind {
	var crop *UnknownCropError
	var seq *InvalidWaypointSequenceError
	var model *ModelUnavailableError
	switch {
	case errors.As(err, &crop):
		return KindUnsupportedCrop
	case errors.As(err, &seq):
		return KindInvalidRoute
	case errors.As(err, &model):
		return KindModelFailure
	default:
		return KindInternal
	}
}
