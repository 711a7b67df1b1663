package ports

import (
	"context"

	"districtrisk/domain/observation"
)

// ObservationSource provides the raw district×date table.
// Validation into typed observations happens in the dataset loader, so every
// source is held to the same row policy.
type ObservationSource interface {
	ReadTable(ctx context.Context) (*observation.RawTable, error)
	Describe() string
}
