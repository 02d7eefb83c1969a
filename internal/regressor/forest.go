package regressor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/sjwhitworth/golearn/base"
	"golang.org/x/sync/errgroup"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
)

// ForestOptions mirrors the hyperparameters a random forest search logs. Fields the model does not act
// on are accepted so that logged parameter sets decode without error.
type ForestOptions struct {
	NEstimators         int      `mapstructure:"n_estimators" json:"n_estimators"`
	MaxDepth            *int     `mapstructure:"max_depth" json:"max_depth,omitempty"`
	MinSamplesSplit     int      `mapstructure:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf      int      `mapstructure:"min_samples_leaf" json:"min_samples_leaf"`
	MaxFeatures         *float64 `mapstructure:"max_features" json:"max_features,omitempty"`
	MinImpurityDecrease float64  `mapstructure:"min_impurity_decrease" json:"min_impurity_decrease"`
	Bootstrap           bool     `mapstructure:"bootstrap" json:"bootstrap"`
	MaxSamples          *float64 `mapstructure:"max_samples" json:"max_samples,omitempty"`
	RandomState         *int     `mapstructure:"random_state" json:"random_state,omitempty"`
	NJobs               *int     `mapstructure:"n_jobs" json:"n_jobs,omitempty"`
	Criterion           string   `mapstructure:"criterion" json:"criterion"`

	// accepted, not used
	CCPAlpha              float64 `mapstructure:"ccp_alpha" json:"-"`
	MaxLeafNodes          *int    `mapstructure:"max_leaf_nodes" json:"-"`
	MinWeightFractionLeaf float64 `mapstructure:"min_weight_fraction_leaf" json:"-"`
	MonotonicCst          any     `mapstructure:"monotonic_cst" json:"-"`
	OOBScore              bool    `mapstructure:"oob_score" json:"-"`
	Verbose               int     `mapstructure:"verbose" json:"-"`
	WarmStart             bool    `mapstructure:"warm_start" json:"-"`
}

func DefaultForestOptions() ForestOptions {
	return ForestOptions{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Criterion:       "squared_error",
	}
}

func (o ForestOptions) validate() error {
	switch {
	case o.NEstimators < 1:
		return fmt.Errorf("%w: n_estimators must be >= 1, got %d", ErrInvalidOpts, o.NEstimators)
	case o.MaxDepth != nil && *o.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth must be >= 1, got %d", ErrInvalidOpts, *o.MaxDepth)
	case o.MinSamplesSplit < 2:
		return fmt.Errorf("%w: min_samples_split must be >= 2, got %d", ErrInvalidOpts, o.MinSamplesSplit)
	case o.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min_samples_leaf must be >= 1, got %d", ErrInvalidOpts, o.MinSamplesLeaf)
	case o.MaxFeatures != nil && (*o.MaxFeatures <= 0 || *o.MaxFeatures > 1):
		return fmt.Errorf("%w: max_features must be in (0, 1], got %v", ErrInvalidOpts, *o.MaxFeatures)
	case o.MaxSamples != nil && (*o.MaxSamples <= 0 || *o.MaxSamples > 1):
		return fmt.Errorf("%w: max_samples must be in (0, 1], got %v", ErrInvalidOpts, *o.MaxSamples)
	case o.Criterion != "squared_error":
		return fmt.Errorf("%w: unsupported criterion %q", ErrInvalidOpts, o.Criterion)
	}
	return nil
}

func (o ForestOptions) jobs() int {
	switch {
	case o.NJobs == nil || *o.NJobs == 0:
		return 1
	case *o.NJobs < 0:
		return runtime.NumCPU()
	default:
		return *o.NJobs
	}
}

// RandomForest averages bagged regression trees.
type RandomForest struct {
	Options  ForestOptions `json:"options"`
	Features []string      `json:"features"`
	Trees    []*tree       `json:"trees"`
}

func NewRandomForest(opts ForestOptions) (*RandomForest, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &RandomForest{Options: opts}, nil
}

func (rf *RandomForest) Kind() string {
	return KindRandomForest
}

func (rf *RandomForest) Fit(train base.FixedDataGrid) error {
	features, X, y, err := dataset.Matrix(train)
	if err != nil {
		return err
	}
	if len(X) == 0 {
		return dataset.ErrEmptyGrid
	}

	o := rf.Options
	params := treeParams{
		minSamplesSplit:     o.MinSamplesSplit,
		minSamplesLeaf:      o.MinSamplesLeaf,
		maxFeatures:         len(features),
		minImpurityDecrease: o.MinImpurityDecrease,
		totalSamples:        len(X),
	}
	if o.MaxDepth != nil {
		params.maxDepth = *o.MaxDepth
	}
	if o.MaxFeatures != nil {
		params.maxFeatures = int(math.Max(1, math.Floor(*o.MaxFeatures*float64(len(features)))))
	}

	nSamples := len(X)
	if o.Bootstrap && o.MaxSamples != nil {
		nSamples = int(math.Max(1, math.Round(*o.MaxSamples*float64(len(X)))))
	}

	seed := time.Now().UnixNano()
	if o.RandomState != nil {
		seed = int64(*o.RandomState)
	}

	trees := make([]*tree, o.NEstimators)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(o.jobs())
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(seed + int64(i)))
			samples := make([]int, nSamples)
			for j := range samples {
				if o.Bootstrap {
					samples[j] = rng.Intn(len(X))
				} else {
					samples[j] = j
				}
			}

			trees[i] = growTree(X, y, samples, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rf.Features = features
	rf.Trees = trees
	logger.Debugf("fitted random forest: %d trees on %d rows x %d features", len(trees), len(X), len(features))
	return nil
}

func (rf *RandomForest) Predict(X base.FixedDataGrid) (base.FixedDataGrid, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}

	return predictRows(X, rf.Features, func(row []float64) float64 {
		var sum float64
		for _, t := range rf.Trees {
			sum += t.predict(row)
		}
		return sum / float64(len(rf.Trees))
	})
}
