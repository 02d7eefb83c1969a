//go:generate mockgen -destination ../pipeline/mocks/tracking_mock.go -package mocks -source tracking.go

// Package tracking defines the experiment tracker and model registry boundaries shared by the
// MLflow client, the in-process tracker, the promotion pipeline and the prediction service.
package tracking

import (
	"context"
	"io"
	"time"

	"github.com/imishinist/mlops-pipeline/internal/models"
)

// Tracker queries and records runs.
type Tracker interface {
	// GetExperimentByName resolves an experiment, failing with ErrNotFound when it does not exist.
	GetExperimentByName(ctx context.Context, name string) (*models.Experiment, error)

	// EnsureExperiment returns the id of the named experiment, creating it when missing.
	EnsureExperiment(ctx context.Context, name string) (string, error)

	// FindRuns returns at most query.MaxResults runs in the requested order.
	FindRuns(ctx context.Context, query models.RunQuery) ([]models.Run, error)

	CreateRun(ctx context.Context, config *models.RunConfig) (*models.RunInfo, error)
	UpdateRun(ctx context.Context, runID string, status models.RunStatus) error
	LogParam(ctx context.Context, runID string, key string, value string) error
	LogMetric(ctx context.Context, runID string, key string, value float64, timestamp *time.Time, step *int64) error

	// LogArtifact stores data under artifactPath relative to the run's artifact root.
	LogArtifact(ctx context.Context, runID string, artifactPath string, data []byte) error

	// OpenArtifact reads an artifact previously logged to a run.
	OpenArtifact(ctx context.Context, runID string, artifactPath string) (io.ReadCloser, error)
}

// Registry maps a model name to versioned artifact references.
type Registry interface {
	// RegisterModel appends a new version of name pointing at source.
	RegisterModel(ctx context.Context, source string, name string) (*models.ModelVersion, error)

	GetModelVersion(ctx context.Context, name string, version string) (*models.ModelVersion, error)
}
