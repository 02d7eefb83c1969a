package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// Trained is the output of a training stage handed to exporters.
type Trained struct {
	Model      regressor.Regressor
	Vectorizer *dataset.DictVectorizer
	Params     map[string]string
	Metrics    map[string]float64
}

// ExportFunc publishes a trained model and returns where it went.
type ExportFunc func(ctx context.Context, trained *Trained) (string, error)

// Export runs every exporter in order and stops at the first failure.
func Export(ctx context.Context, trained *Trained, exporters ...ExportFunc) ([]string, error) {
	locations := make([]string, 0, len(exporters))
	for _, export := range exporters {
		location, err := export(ctx, trained)
		if err != nil {
			return locations, err
		}
		logger.Infof("exported %s model to %s", trained.Model.Kind(), location)
		locations = append(locations, location)
	}
	return locations, nil
}

// TrackingExporter logs the model and vectorizer to a new run of experiment and returns the model URI.
func TrackingExporter(tracker tracking.Tracker, experiment string) ExportFunc {
	return func(ctx context.Context, trained *Trained) (string, error) {
		experimentID, err := tracker.EnsureExperiment(ctx, experiment)
		if err != nil {
			return "", fmt.Errorf("failed to ensure experiment %q: %w", experiment, err)
		}

		info, err := tracker.CreateRun(ctx, &models.RunConfig{
			ExperimentID: &experimentID,
			Tags:         map[string]string{"model_type": trained.Model.Kind()},
		})
		if err != nil {
			return "", fmt.Errorf("failed to create run: %w", err)
		}

		if err := logTrained(ctx, tracker, info.RunID, trained); err != nil {
			if uerr := tracker.UpdateRun(context.WithoutCancel(ctx), info.RunID, models.RunStatusFailed); uerr != nil {
				logger.Errorf("failed to mark run %s failed: %v", info.RunID, uerr)
			}
			return "", err
		}

		if err := tracker.UpdateRun(ctx, info.RunID, models.RunStatusFinished); err != nil {
			return "", err
		}
		return tracking.RunURI(info.RunID, tracking.ModelArtifactPath), nil
	}
}

func logTrained(ctx context.Context, tracker tracking.Tracker, runID string, trained *Trained) error {
	for k, v := range trained.Params {
		if err := tracker.LogParam(ctx, runID, k, v); err != nil {
			return err
		}
	}
	for k, v := range trained.Metrics {
		if err := tracker.LogMetric(ctx, runID, k, v, nil, nil); err != nil {
			return err
		}
	}

	model, dv, err := encodeTrained(trained)
	if err != nil {
		return err
	}
	if err := tracker.LogArtifact(ctx, runID, tracking.ModelFile(), model); err != nil {
		return fmt.Errorf("failed to log model: %w", err)
	}
	if err := tracker.LogArtifact(ctx, runID, dataset.VectorizerArtifactPath, dv); err != nil {
		return fmt.Errorf("failed to log vectorizer: %w", err)
	}
	return nil
}

// LocalExporter writes model.json and dv.json into dir.
func LocalExporter(dir string) ExportFunc {
	return func(_ context.Context, trained *Trained) (string, error) {
		model, dv, err := encodeTrained(trained)
		if err != nil {
			return "", err
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, tracking.ModelFileName), model, 0644); err != nil {
			return "", fmt.Errorf("failed to write model: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, dataset.VectorizerFile), dv, 0644); err != nil {
			return "", fmt.Errorf("failed to write vectorizer: %w", err)
		}
		return dir, nil
	}
}

func encodeTrained(trained *Trained) ([]byte, []byte, error) {
	var model, dv bytes.Buffer
	if err := regressor.Save(&model, trained.Model); err != nil {
		return nil, nil, err
	}
	if trained.Vectorizer == nil {
		return nil, nil, dataset.ErrNotFitted
	}
	if err := trained.Vectorizer.Save(&dv); err != nil {
		return nil, nil, err
	}
	return model.Bytes(), dv.Bytes(), nil
}
