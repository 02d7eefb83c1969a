package pipeline

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/params"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// IntRange is an inclusive integer interval.
type IntRange struct {
	Min int
	Max int
}

func (r IntRange) sample(rng *rand.Rand) int {
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// SearchSpace bounds the random forest hyperparameters sampled by HyperoptSearch.
type SearchSpace struct {
	MaxDepth        IntRange
	NEstimators     IntRange
	MinSamplesSplit IntRange
	MinSamplesLeaf  IntRange
}

var DefaultSearchSpace = SearchSpace{
	MaxDepth:        IntRange{Min: 1, Max: 20},
	NEstimators:     IntRange{Min: 10, Max: 50},
	MinSamplesSplit: IntRange{Min: 2, Max: 10},
	MinSamplesLeaf:  IntRange{Min: 1, Max: 4},
}

// baseParams is the full random forest parameter set logged with every trial.
var baseParams = params.Params{
	"bootstrap":                params.BoolValue(true),
	"ccp_alpha":                params.FloatValue(0),
	"criterion":                params.StringValue("squared_error"),
	"max_features":             params.FloatValue(1),
	"max_leaf_nodes":           params.NullValue(params.KindInteger),
	"max_samples":              params.NullValue(params.KindFloat),
	"min_impurity_decrease":    params.FloatValue(0),
	"min_weight_fraction_leaf": params.FloatValue(0),
	"monotonic_cst":            params.NullValue(params.KindNull),
	"n_jobs":                   params.IntValue(-1),
	"oob_score":                params.BoolValue(false),
	"random_state":             params.IntValue(42),
	"verbose":                  params.IntValue(0),
	"warm_start":               params.BoolValue(false),
}

// SearchConfig configures HyperoptSearch.
type SearchConfig struct {
	Experiment string
	Trials     int
	Seed       int64
	Space      SearchSpace
	Factory    regressor.Factory
}

// Trial is one logged search run.
type Trial struct {
	RunID  string
	Params map[string]string
	RMSE   float64
}

// HyperoptSearch samples random forest parameters, fits each sample on the training split and logs
// it with its validation SearchMetric as a run of the search experiment.
func HyperoptSearch(ctx context.Context, tracker tracking.Tracker, splits *dataset.Splits, cfg SearchConfig) ([]Trial, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("invalid number of trials: %d", cfg.Trials)
	}
	if cfg.Factory == nil {
		cfg.Factory = regressor.New
	}

	experimentID, err := tracker.EnsureExperiment(ctx, cfg.Experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure experiment %q: %w", cfg.Experiment, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trials := make([]Trial, 0, cfg.Trials)
	for i := 0; i < cfg.Trials; i++ {
		p := make(params.Params, len(baseParams)+4)
		for k, v := range baseParams {
			p[k] = v
		}
		p["max_depth"] = params.IntValue(int64(cfg.Space.MaxDepth.sample(rng)))
		p["n_estimators"] = params.IntValue(int64(cfg.Space.NEstimators.sample(rng)))
		p["min_samples_split"] = params.IntValue(int64(cfg.Space.MinSamplesSplit.sample(rng)))
		p["min_samples_leaf"] = params.IntValue(int64(cfg.Space.MinSamplesLeaf.sample(rng)))

		trial, err := runTrial(ctx, tracker, experimentID, cfg.Factory, p, splits)
		if err != nil {
			return trials, fmt.Errorf("trial %d: %w", i, err)
		}
		logger.Infof("trial %d: run %s rmse=%.4f", i, trial.RunID, trial.RMSE)
		trials = append(trials, *trial)
	}
	return trials, nil
}

func runTrial(ctx context.Context, tracker tracking.Tracker, experimentID string, factory regressor.Factory, p params.Params, splits *dataset.Splits) (*Trial, error) {
	model, err := factory(p.Map())
	if err != nil {
		return nil, err
	}

	info, err := tracker.CreateRun(ctx, &models.RunConfig{ExperimentID: &experimentID})
	if err != nil {
		return nil, err
	}

	fail := func(err error) (*Trial, error) {
		if uerr := tracker.UpdateRun(context.WithoutCancel(ctx), info.RunID, models.RunStatusFailed); uerr != nil {
			logger.Errorf("failed to mark run %s failed: %v", info.RunID, uerr)
		}
		return nil, err
	}

	logged := p.Strings()
	for k, v := range logged {
		if err := tracker.LogParam(ctx, info.RunID, k, v); err != nil {
			return fail(err)
		}
	}

	if err := model.Fit(splits.Train); err != nil {
		return fail(err)
	}
	rmse, err := regressor.Score(model, splits.Val)
	if err != nil {
		return fail(err)
	}
	if err := tracker.LogMetric(ctx, info.RunID, SearchMetric, rmse, nil, nil); err != nil {
		return fail(err)
	}

	if err := tracker.UpdateRun(ctx, info.RunID, models.RunStatusFinished); err != nil {
		return nil, err
	}
	return &Trial{RunID: info.RunID, Params: logged, RMSE: rmse}, nil
}
