package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/metrics"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/params"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// SearchMetric is the metric the hyperparameter search logs and candidates are ranked by.
const SearchMetric = "rmse"

// Candidate is a search run selected for re-evaluation together with its normalized parameters.
type Candidate struct {
	Run    models.Run
	Params params.Params
}

// CollectCandidates fetches the topN search runs with the lowest SearchMetric and normalizes their
// parameters. Runs whose parameters do not parse are skipped; an unusable schema fails the whole call.
func CollectCandidates(ctx context.Context, tracker tracking.Tracker, experiment string, topN int, schema params.Schema) ([]Candidate, error) {
	runs, err := tracker.FindRuns(ctx, models.RunQuery{
		ExperimentName: experiment,
		MaxResults:     topN,
		OrderBy:        &models.OrderBy{Metric: SearchMetric, Ascending: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find search runs: %w", err)
	}

	var skipped *multierror.Error
	candidates := make([]Candidate, 0, len(runs))
	for _, run := range runs {
		p, err := params.Normalize(run.Params, schema)
		if errors.Is(err, params.ErrUnsupportedParameterType) {
			return nil, err
		}
		if err != nil {
			logger.Warnf("skipping run %s: %v", run.RunID, err)
			metrics.CandidateCount.WithLabelValues(metrics.ResultSkipped).Inc()
			skipped = multierror.Append(skipped, fmt.Errorf("run %s: %w", run.RunID, err))
			continue
		}
		candidates = append(candidates, Candidate{Run: run, Params: p})
	}

	if len(candidates) == 0 && skipped != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCandidates, skipped.ErrorOrNil())
	}
	return candidates, nil
}
