package cmd

import (
	"fmt"

	"github.com/imishinist/mlops-pipeline/internal/config"
	"github.com/imishinist/mlops-pipeline/internal/memtracker"
	"github.com/imishinist/mlops-pipeline/internal/mlflow"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// backend is a tracker that is also a model registry.
type backend interface {
	tracking.Tracker
	tracking.Registry
}

// newBackend picks the tracker for cfg.TrackingURI: memory://, file://<dir> or an MLflow server.
func newBackend(cfg *config.Config) (backend, error) {
	switch {
	case cfg.IsInMemory():
		return memtracker.New(), nil
	case cfg.IsLocal():
		t, err := memtracker.Open(cfg.LocalDir())
		if err != nil {
			return nil, fmt.Errorf("failed to open local tracker: %w", err)
		}
		return t, nil
	default:
		client, err := mlflow.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create MLflow client: %w", err)
		}
		return client, nil
	}
}
