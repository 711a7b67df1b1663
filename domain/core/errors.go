package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error kinds for the risk engine
var (
	// ErrDataLoad marks an unreadable source or a source with no valid rows.
	ErrDataLoad = errors.New("dataset load failed")

	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrStateNotFound    = fmt.Errorf("%w: state", ErrNotFound)
	ErrDistrictNotFound = fmt.Errorf("%w: district", ErrNotFound)
	ErrHistoryNotFound  = fmt.Errorf("%w: history", ErrNotFound)

	// Caller input errors
	ErrEmptyPopulation = errors.New("empty comparison population")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidScore    = errors.New("invalid score")

	// ErrScoring marks an observation that cannot be scored.
	ErrScoring = errors.New("scoring failed")
)

// Error constructors with context
func NewDataLoadError(source string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDataLoad, source)
	}
	return fmt.Errorf("%w: %s: %v", ErrDataLoad, source, err)
}

func NewStateNotFoundError(state string) error {
	return fmt.Errorf("%w %q", ErrStateNotFound, state)
}

func NewDistrictNotFoundError(state, district string) error {
	if state == "" {
		return fmt.Errorf("%w %q", ErrDistrictNotFound, district)
	}
	return fmt.Errorf("%w %q in state %q", ErrDistrictNotFound, district, state)
}

func NewHistoryNotFoundError(state, district string) error {
	return fmt.Errorf("%w for %s/%s", ErrHistoryNotFound, state, district)
}

func NewInvalidArgumentError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, field, reason)
}

func NewScoringError(key string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrScoring, key, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsScoringError(err error) bool {
	return errors.Is(err, ErrScoring)
}

// IsBadRequestError reports whether err was caused by degenerate caller input.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrEmptyPopulation) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidScore)
}

// Kind returns a stable identifier for the error kind, suitable for API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataLoad):
		return "DataLoadError"
	case errors.Is(err, ErrNotFound):
		return "NotFoundError"
	case errors.Is(err, ErrEmptyPopulation):
		return "EmptyPopulationError"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgumentError"
	case errors.Is(err, ErrInvalidScore):
		return "InvalidScoreError"
	case errors.Is(err, ErrScoring):
		return "ScoringError"
	default:
		return "InternalError"
	}
}
