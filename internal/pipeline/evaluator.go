package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/metrics"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

const (
	ValMetric  = "val_rmse"
	TestMetric = "test_rmse"

	SourceRunTag      = "source_run_id"
	PromotionRoundTag = "promotion_round"
)

// IntegerParams are coerced to integers before a candidate is refitted.
var IntegerParams = []string{"max_depth", "n_estimators", "min_samples_split", "min_samples_leaf", "random_state"}

// Evaluation is the outcome of re-evaluating one candidate.
type Evaluation struct {
	RunID       string
	SourceRunID string
	ValRMSE     float64
	TestRMSE    float64
}

// Evaluator refits candidates and records each attempt as a new run.
type Evaluator struct {
	tracker      tracking.Tracker
	factory      regressor.Factory
	experimentID string
	round        string
	vectorizer   *dataset.DictVectorizer
}

type EvaluatorOption func(*Evaluator)

// WithVectorizer logs dv at dataset.VectorizerArtifactPath of every evaluated run. A nil dv is ignored.
func WithVectorizer(dv *dataset.DictVectorizer) EvaluatorOption {
	return func(e *Evaluator) {
		e.vectorizer = dv
	}
}

// NewEvaluator returns an Evaluator logging to experimentID. A non-empty round is tagged on every run
// so a later search can tell the runs of this promotion cycle apart.
func NewEvaluator(tracker tracking.Tracker, factory regressor.Factory, experimentID, round string, opts ...EvaluatorOption) *Evaluator {
	if factory == nil {
		factory = regressor.New
	}
	e := &Evaluator{
		tracker:      tracker,
		factory:      factory,
		experimentID: experimentID,
		round:        round,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate fits the candidate on the training split and scores it on the validation and test splits.
func (e *Evaluator) Evaluate(ctx context.Context, c Candidate, splits *dataset.Splits) (*Evaluation, error) {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	p, err := c.Params.CoerceIntegers(IntegerParams...)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", c.Run.RunID, err)
	}

	model, err := e.factory(p.Map())
	if err != nil {
		return nil, fmt.Errorf("candidate %s: failed to build model: %w", c.Run.RunID, err)
	}

	runName := "candidate-" + shortID(c.Run.RunID)
	tags := map[string]string{SourceRunTag: c.Run.RunID}
	if e.round != "" {
		tags[PromotionRoundTag] = e.round
	}

	info, err := e.tracker.CreateRun(ctx, &models.RunConfig{
		ExperimentID: &e.experimentID,
		RunName:      &runName,
		Tags:         tags,
	})
	if err != nil {
		return nil, fmt.Errorf("candidate %s: failed to create run: %w", c.Run.RunID, err)
	}

	log := logger.With("run", info.RunID, "source", c.Run.RunID)

	eval, err := e.train(ctx, info.RunID, p.Strings(), model, splits)
	if err != nil {
		// The run must not stay RUNNING; a canceled ctx must not prevent closing it.
		if uerr := e.tracker.UpdateRun(context.WithoutCancel(ctx), info.RunID, models.RunStatusFailed); uerr != nil {
			log.Errorf("failed to mark run failed: %v", uerr)
		}
		return nil, fmt.Errorf("candidate %s: %w", c.Run.RunID, err)
	}
	eval.SourceRunID = c.Run.RunID

	if err := e.tracker.UpdateRun(ctx, info.RunID, models.RunStatusFinished); err != nil {
		return nil, fmt.Errorf("candidate %s: failed to finish run: %w", c.Run.RunID, err)
	}

	log.Infof("evaluated candidate: val_rmse=%.4f test_rmse=%.4f", eval.ValRMSE, eval.TestRMSE)
	return eval, nil
}

func (e *Evaluator) train(ctx context.Context, runID string, params map[string]string, model regressor.Regressor, splits *dataset.Splits) (*Evaluation, error) {
	for k, v := range params {
		if err := e.tracker.LogParam(ctx, runID, k, v); err != nil {
			return nil, err
		}
	}

	if err := model.Fit(splits.Train); err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	valRMSE, err := regressor.Score(model, splits.Val)
	if err != nil {
		return nil, fmt.Errorf("failed to score validation split: %w", err)
	}
	testRMSE, err := regressor.Score(model, splits.Test)
	if err != nil {
		return nil, fmt.Errorf("failed to score test split: %w", err)
	}

	now := time.Now()
	for _, m := range []models.Metric{
		{Key: ValMetric, Value: valRMSE, Timestamp: now},
		{Key: TestMetric, Value: testRMSE, Timestamp: now},
	} {
		if err := e.tracker.LogMetric(ctx, runID, m.Key, m.Value, &m.Timestamp, &m.Step); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := regressor.Save(&buf, model); err != nil {
		return nil, err
	}
	if err := e.tracker.LogArtifact(ctx, runID, tracking.ModelFile(), buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to log model: %w", err)
	}

	if e.vectorizer != nil {
		buf.Reset()
		if err := e.vectorizer.Save(&buf); err != nil {
			return nil, err
		}
		if err := e.tracker.LogArtifact(ctx, runID, dataset.VectorizerArtifactPath, buf.Bytes()); err != nil {
			return nil, fmt.Errorf("failed to log vectorizer: %w", err)
		}
	}

	return &Evaluation{RunID: runID, ValRMSE: valRMSE, TestRMSE: testRMSE}, nil
}

// EvaluateAll evaluates candidates with at most concurrency evaluations in flight. A failing candidate
// does not stop the others; failures are returned together with the successful evaluations, which
// keep the order of candidates.
func (e *Evaluator) EvaluateAll(ctx context.Context, candidates []Candidate, splits *dataset.Splits, concurrency int) ([]*Evaluation, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		errs    *multierror.Error
		results = make([]*Evaluation, len(candidates))
		eg, _   = errgroup.WithContext(ctx)
		sem     = make(chan struct{}, concurrency)
	)

	for i, c := range candidates {
		i, c := i, c
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			eval, err := e.Evaluate(ctx, c, splits)
			if err != nil {
				logger.Warnf("candidate evaluation failed: %v", err)
				metrics.CandidateCount.WithLabelValues(metrics.ResultFailure).Inc()

				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
				return nil
			}

			metrics.CandidateCount.WithLabelValues(metrics.ResultSuccess).Inc()
			results[i] = eval
			return nil
		})
	}
	_ = eg.Wait()

	evaluations := make([]*Evaluation, 0, len(results))
	for _, r := range results {
		if r != nil {
			evaluations = append(evaluations, r)
		}
	}
	return evaluations, errs.ErrorOrNil()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
