package tracking

import "errors"

var (
	// ErrNotFound is returned when an experiment, run, artifact or model version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidMaxResults is returned when a run query asks for fewer than one run.
	ErrInvalidMaxResults = errors.New("max results must be at least 1")

	// ErrRunClosed is returned when writing to a run that already reached a terminal status.
	ErrRunClosed = errors.New("run is closed")
)
