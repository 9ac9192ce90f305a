package forecast

import "errors"

var (
	// ErrInvalidPayload wraps every load-time validation failure
	ErrInvalidPayload = errors.New("invalid forecast payload")

	// ErrUnknownHorizon is returned for codes outside 1M, 3M, 6M, 12M
	ErrUnknownHorizon = errors.New("unknown horizon")

	// ErrMissingHorizon is returned when a valid horizon has no forecast
	ErrMissingHorizon = errors.New("missing horizon data")

	// ErrUnknownModel is returned for model codes not present in the payload
	ErrUnknownModel = errors.New("unknown model")
)
