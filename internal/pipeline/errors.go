package pipeline

import (
	"errors"

	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

var (
	// ErrNotFound is returned when an experiment or the evaluated runs cannot be found.
	ErrNotFound = tracking.ErrNotFound

	// ErrSelectionRange is returned when fewer runs than requested come back from the search.
	ErrSelectionRange = errors.New("not enough runs to select from")

	// ErrNoCandidates is returned when no candidate survived collection or evaluation.
	ErrNoCandidates = errors.New("no candidates")
)
