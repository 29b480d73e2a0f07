package store

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrEmptyDataset indicates the raw dataset had no nodes.
	ErrEmptyDataset = errors.New("dataset contains no nodes")
	// ErrNoNodesSampled indicates the sampling fraction selected zero nodes
	// from a non-empty dataset.
	ErrNoNodesSampled = errors.New("node sampling selected zero nodes")
)

// DataLoadError is returned when a dataset cannot be turned into buffers.
// Load failures never publish partial buffers: a store that returned a
// DataLoadError holds nothing and must not be rendered.
type DataLoadError struct {
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data load failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("data load failed: %s", e.Reason)
}

func (e *DataLoadError) Unwrap() error { return e.Err }
