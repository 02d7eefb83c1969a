package pipeline

import (
	"context"
	"fmt"

	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// Selector ranks evaluated runs and registers the chosen one.
type Selector struct {
	tracker  tracking.Tracker
	registry tracking.Registry
}

func NewSelector(tracker tracking.Tracker, registry tracking.Registry) *Selector {
	return &Selector{
		tracker:  tracker,
		registry: registry,
	}
}

// Select searches the finished runs of experiment by ascending TestMetric and returns the run at
// index topN-1 of that ordering, i.e. the last of the topN best, not the best. A non-empty round
// restricts the search to runs tagged with it.
func (s *Selector) Select(ctx context.Context, experiment string, topN int, round string) (*models.Run, error) {
	filter := models.RunFilter{Status: models.RunStatusFinished}
	if round != "" {
		filter.Tags = map[string]string{PromotionRoundTag: round}
	}

	runs, err := s.tracker.FindRuns(ctx, models.RunQuery{
		ExperimentName: experiment,
		Filter:         filter,
		MaxResults:     topN,
		OrderBy:        &models.OrderBy{Metric: TestMetric, Ascending: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find evaluated runs: %w", err)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("no evaluated runs in experiment %q: %w", experiment, ErrNotFound)
	}
	if len(runs) < topN {
		return nil, fmt.Errorf("%w: want index %d, got %d runs", ErrSelectionRange, topN-1, len(runs))
	}

	run := runs[topN-1]
	return &run, nil
}

// SelectAndRegister selects a run with Select and registers its model under modelName.
func (s *Selector) SelectAndRegister(ctx context.Context, experiment string, topN int, round string, modelName string) (*models.ModelVersion, error) {
	run, err := s.Select(ctx, experiment, topN, round)
	if err != nil {
		return nil, err
	}

	source := tracking.RunURI(run.RunID, tracking.ModelArtifactPath)
	mv, err := s.registry.RegisterModel(ctx, source, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", source, err)
	}

	logger.Infof("registered model %s version %s from run %s (test_rmse=%v)", mv.Name, mv.Version, run.RunID, run.Metrics[TestMetric])
	return mv, nil
}
