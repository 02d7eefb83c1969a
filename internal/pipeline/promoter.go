package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/metrics"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/params"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

const (
	// StateCollecting is the state while search runs are fetched and normalized.
	StateCollecting = "Collecting"

	// StateEvaluating is the state while candidates are refitted and scored.
	StateEvaluating = "Evaluating"

	// StateRanking is the state while evaluated runs are ranked.
	StateRanking = "Ranking"

	// StateRegistered is the final state of a successful cycle.
	StateRegistered = "Registered"

	// StateAborted is the final state of a cycle that registered nothing.
	StateAborted = "Aborted"
)

const (
	EventEvaluate = "Evaluate"
	EventRank     = "Rank"
	EventRegister = "Register"
	EventAbort    = "Abort"
)

// PromoterConfig names the experiments and model of a promotion cycle.
type PromoterConfig struct {
	HPOExperiment string
	Experiment    string
	ModelName     string
	TopN          int
	Concurrency   int
	Schema        params.Schema
	Factory       regressor.Factory

	// Vectorizer is logged next to every candidate model so registered versions can be served.
	Vectorizer *dataset.DictVectorizer

	// ScopeToRound limits selection to the runs of this cycle instead of the whole experiment.
	ScopeToRound bool
}

// Result summarizes a promotion cycle.
type Result struct {
	Round        string
	Candidates   int
	Evaluations  []*Evaluation
	Failures     error
	ModelVersion *models.ModelVersion
}

// Promoter drives one promotion cycle: collect candidates, evaluate them, rank and register.
type Promoter struct {
	tracker  tracking.Tracker
	registry tracking.Registry
	config   PromoterConfig

	round string
	FSM   *fsm.FSM
}

func NewPromoter(tracker tracking.Tracker, registry tracking.Registry, cfg PromoterConfig) *Promoter {
	if cfg.Schema == nil {
		cfg.Schema = params.DefaultSchema
	}

	p := &Promoter{
		tracker:  tracker,
		registry: registry,
		config:   cfg,
		round:    uuid.NewString(),
	}

	log := logger.With("round", p.round)
	p.FSM = fsm.NewFSM(
		StateCollecting,
		fsm.Events{
			{Name: EventEvaluate, Src: []string{StateCollecting}, Dst: StateEvaluating},
			{Name: EventRank, Src: []string{StateEvaluating}, Dst: StateRanking},
			{Name: EventRegister, Src: []string{StateRanking}, Dst: StateRegistered},
			{Name: EventAbort, Src: []string{StateCollecting, StateEvaluating, StateRanking}, Dst: StateAborted},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				log.Infof("promotion state is %s", e.Dst)
			},
			StateRegistered: func(ctx context.Context, e *fsm.Event) {
				metrics.PromotionCount.WithLabelValues(metrics.PromotionCompleted).Inc()
			},
			StateAborted: func(ctx context.Context, e *fsm.Event) {
				metrics.PromotionCount.WithLabelValues(metrics.PromotionAborted).Inc()
			},
		},
	)

	return p
}

// Round identifies the runs written by this cycle.
func (p *Promoter) Round() string {
	return p.round
}

// Run executes the cycle against splits. It is meant to be called once per Promoter.
func (p *Promoter) Run(ctx context.Context, splits *dataset.Splits) (*Result, error) {
	result := &Result{Round: p.round}

	candidates, err := CollectCandidates(ctx, p.tracker, p.config.HPOExperiment, p.config.TopN, p.config.Schema)
	if err != nil {
		return result, p.abort(ctx, err)
	}
	result.Candidates = len(candidates)

	experimentID, err := p.tracker.EnsureExperiment(ctx, p.config.Experiment)
	if err != nil {
		return result, p.abort(ctx, fmt.Errorf("failed to ensure experiment %q: %w", p.config.Experiment, err))
	}

	if err := p.FSM.Event(ctx, EventEvaluate); err != nil {
		return result, err
	}

	evaluator := NewEvaluator(p.tracker, p.config.Factory, experimentID, p.round, WithVectorizer(p.config.Vectorizer))
	result.Evaluations, result.Failures = evaluator.EvaluateAll(ctx, candidates, splits, p.config.Concurrency)

	if err := p.FSM.Event(ctx, EventRank); err != nil {
		return result, err
	}

	if len(result.Evaluations) == 0 {
		if result.Failures != nil {
			return result, p.abort(ctx, fmt.Errorf("%w: %w", ErrNoCandidates, result.Failures))
		}
		return result, p.abort(ctx, fmt.Errorf("%w in experiment %q", ErrNoCandidates, p.config.HPOExperiment))
	}

	var round string
	if p.config.ScopeToRound {
		round = p.round
	}

	// Failed candidates shrink the selection depth so they never abort their siblings.
	topN := p.config.TopN
	if n := len(result.Evaluations); n < topN {
		logger.Warnf("only %d of %d candidates evaluated, selecting index %d", n, topN, n-1)
		topN = n
	}

	selector := NewSelector(p.tracker, p.registry)
	mv, err := selector.SelectAndRegister(ctx, p.config.Experiment, topN, round, p.config.ModelName)
	if err != nil {
		return result, p.abort(ctx, err)
	}
	result.ModelVersion = mv

	if err := p.FSM.Event(ctx, EventRegister); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Promoter) abort(ctx context.Context, cause error) error {
	if err := p.FSM.Event(ctx, EventAbort); err != nil {
		logger.Errorf("failed to abort promotion %s: %v", p.round, err)
	}
	return cause
}
