package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/sjwhitworth/golearn/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/memtracker"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/params"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/serving"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

var errFit = errors.New("fit failed")

// offsetModel predicts the label plus a constant, so its RMSE on any split is |Offset|.
type offsetModel struct {
	Offset  float64 `json:"offset"`
	FailFit bool    `json:"-"`
}

func (m *offsetModel) Kind() string { return "offset" }

func (m *offsetModel) Fit(base.FixedDataGrid) error {
	if m.FailFit {
		return errFit
	}
	return nil
}

func (m *offsetModel) Predict(X base.FixedDataGrid) (base.FixedDataGrid, error) {
	features, rows, y, err := dataset.Matrix(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] + m.Offset
	}
	return dataset.NewGrid(features, rows, out)
}

// offsetFactory reads the offset from max_depth. A max_depth listed in failing builds a model that cannot be fitted.
func offsetFactory(failing ...int) regressor.Factory {
	return func(p map[string]any) (regressor.Regressor, error) {
		depth, ok := p["max_depth"].(int)
		if !ok {
			return nil, fmt.Errorf("max_depth is %T", p["max_depth"])
		}
		m := &offsetModel{Offset: float64(depth)}
		for _, f := range failing {
			if f == depth {
				m.FailFit = true
			}
		}
		return m, nil
	}
}

func testSplits(t *testing.T) *dataset.Splits {
	t.Helper()

	grid := func(n int) base.FixedDataGrid {
		X := make([][]float64, n)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			X[i] = []float64{float64(i)}
			y[i] = float64(10 + i)
		}
		g, err := dataset.NewGrid([]string{"trip_distance"}, X, y)
		require.NoError(t, err)
		return g
	}
	return &dataset.Splits{Train: grid(8), Val: grid(4), Test: grid(4)}
}

// searchRun logs a finished search run with the given params and rmse.
func searchRun(t *testing.T, tr *memtracker.Tracker, experimentID string, p map[string]string, rmse float64) string {
	t.Helper()
	ctx := context.Background()

	info, err := tr.CreateRun(ctx, &models.RunConfig{ExperimentID: &experimentID})
	require.NoError(t, err)
	for k, v := range p {
		require.NoError(t, tr.LogParam(ctx, info.RunID, k, v))
	}
	require.NoError(t, tr.LogMetric(ctx, info.RunID, SearchMetric, rmse, nil, nil))
	require.NoError(t, tr.UpdateRun(ctx, info.RunID, models.RunStatusFinished))
	return info.RunID
}

func searchParams(depth string) map[string]string {
	return map[string]string{
		"max_depth":    depth,
		"n_estimators": "10",
		"bootstrap":    "True",
		"max_samples":  "None",
		"criterion":    "squared_error",
	}
}

func TestCollectCandidates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		runs   []map[string]string
		schema params.Schema
		expect func(t *testing.T, candidates []Candidate, err error)
	}{
		{
			name:   "ordered by search metric",
			runs:   []map[string]string{searchParams("3"), searchParams("1"), searchParams("2")},
			schema: params.DefaultSchema,
			expect: func(t *testing.T, candidates []Candidate, err error) {
				require.NoError(t, err)
				require.Len(t, candidates, 3)
				for i, depth := range []int{3, 1, 2} {
					c := candidates[i]
					assert.Equal(t, depth, c.Params["max_depth"].Interface())
					assert.Nil(t, c.Params["max_samples"].Interface())
					assert.Equal(t, true, c.Params["bootstrap"].Interface())
				}
			},
		},
		{
			name:   "malformed run is skipped",
			runs:   []map[string]string{searchParams("abc"), searchParams("1"), searchParams("2")},
			schema: params.DefaultSchema,
			expect: func(t *testing.T, candidates []Candidate, err error) {
				require.NoError(t, err)
				require.Len(t, candidates, 2)
				assert.Equal(t, 1, candidates[0].Params["max_depth"].Interface())
			},
		},
		{
			name:   "every run malformed",
			runs:   []map[string]string{searchParams("abc"), searchParams("1.5")},
			schema: params.DefaultSchema,
			expect: func(t *testing.T, candidates []Candidate, err error) {
				assert.ErrorIs(t, err, ErrNoCandidates)
				assert.ErrorIs(t, err, params.ErrParameterFormat)
				assert.Empty(t, candidates)
			},
		},
		{
			name:   "unsupported schema kind",
			runs:   []map[string]string{searchParams("1")},
			schema: params.Schema{"max_depth": params.KindRaw},
			expect: func(t *testing.T, candidates []Candidate, err error) {
				assert.ErrorIs(t, err, params.ErrUnsupportedParameterType)
				assert.Empty(t, candidates)
			},
		},
		{
			name:   "no runs",
			schema: params.DefaultSchema,
			expect: func(t *testing.T, candidates []Candidate, err error) {
				require.NoError(t, err)
				assert.Empty(t, candidates)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := memtracker.New()
			expID, err := tr.EnsureExperiment(ctx, "hpo")
			require.NoError(t, err)
			for i, p := range tc.runs {
				searchRun(t, tr, expID, p, float64(i))
			}

			candidates, err := CollectCandidates(ctx, tr, "hpo", 5, tc.schema)
			tc.expect(t, candidates, err)
		})
	}
}

func TestCollectCandidates_UnknownExperiment(t *testing.T) {
	_, err := CollectCandidates(context.Background(), memtracker.New(), "missing", 5, params.DefaultSchema)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluator_Evaluate(t *testing.T) {
	ctx := context.Background()
	splits := testSplits(t)

	tests := []struct {
		name    string
		depth   params.Value
		factory regressor.Factory
		expect  func(t *testing.T, tr *memtracker.Tracker, eval *Evaluation, err error)
	}{
		{
			name:    "finished run with metrics and model",
			depth:   params.IntValue(4),
			factory: offsetFactory(),
			expect: func(t *testing.T, tr *memtracker.Tracker, eval *Evaluation, err error) {
				require.NoError(t, err)
				assert.InDelta(t, 4, eval.ValRMSE, 1e-9)
				assert.InDelta(t, 4, eval.TestRMSE, 1e-9)

				run, err := tr.GetRun(ctx, eval.RunID)
				require.NoError(t, err)
				assert.Equal(t, models.RunStatusFinished, run.Status)
				assert.Equal(t, eval.SourceRunID, run.Tags[SourceRunTag])
				assert.Equal(t, "round-1", run.Tags[PromotionRoundTag])
				assert.Equal(t, "4", run.Params["max_depth"])
				assert.InDelta(t, 4, run.Metrics[TestMetric], 1e-9)

				rc, err := tr.OpenArtifact(ctx, eval.RunID, tracking.ModelFile())
				require.NoError(t, err)
				rc.Close()
			},
		},
		{
			name:    "integral float params are coerced",
			depth:   params.FloatValue(4),
			factory: offsetFactory(),
			expect: func(t *testing.T, tr *memtracker.Tracker, eval *Evaluation, err error) {
				require.NoError(t, err)
				assert.InDelta(t, 4, eval.TestRMSE, 1e-9)
			},
		},
		{
			name:    "failed fit marks the run failed",
			depth:   params.IntValue(4),
			factory: offsetFactory(4),
			expect: func(t *testing.T, tr *memtracker.Tracker, eval *Evaluation, err error) {
				assert.ErrorIs(t, err, errFit)
				assert.Nil(t, eval)

				runs, err := tr.FindRuns(ctx, models.RunQuery{
					ExperimentName: "eval",
					MaxResults:     10,
					Filter:         models.RunFilter{Status: models.RunStatusFailed},
				})
				require.NoError(t, err)
				assert.Len(t, runs, 1)
			},
		},
		{
			name:  "factory error creates no run",
			depth: params.IntValue(4),
			factory: func(map[string]any) (regressor.Regressor, error) {
				return nil, regressor.ErrInvalidOpts
			},
			expect: func(t *testing.T, tr *memtracker.Tracker, eval *Evaluation, err error) {
				assert.ErrorIs(t, err, regressor.ErrInvalidOpts)

				runs, err := tr.FindRuns(ctx, models.RunQuery{ExperimentName: "eval", MaxResults: 10})
				require.NoError(t, err)
				assert.Empty(t, runs)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := memtracker.New()
			expID, err := tr.EnsureExperiment(ctx, "eval")
			require.NoError(t, err)

			candidate := Candidate{
				Run:    models.Run{RunID: "0123456789abcdef"},
				Params: params.Params{"max_depth": tc.depth},
			}
			eval, err := NewEvaluator(tr, tc.factory, expID, "round-1").Evaluate(ctx, candidate, splits)
			tc.expect(t, tr, eval, err)
		})
	}
}

func TestEvaluator_LogsVectorizer(t *testing.T) {
	ctx := context.Background()
	tr := memtracker.New()
	expID, err := tr.EnsureExperiment(ctx, "eval")
	require.NoError(t, err)

	dv := dataset.NewDictVectorizer()
	require.NoError(t, dv.Fit([]dataset.Features{dataset.RideFeatures("1", "2", 1.5)}))

	candidate := Candidate{
		Run:    models.Run{RunID: "source"},
		Params: params.Params{"max_depth": params.IntValue(2)},
	}
	eval, err := NewEvaluator(tr, offsetFactory(), expID, "", WithVectorizer(dv)).Evaluate(ctx, candidate, testSplits(t))
	require.NoError(t, err)

	rc, err := tr.OpenArtifact(ctx, eval.RunID, dataset.VectorizerArtifactPath)
	require.NoError(t, err)
	defer rc.Close()

	logged, err := dataset.LoadVectorizer(rc)
	require.NoError(t, err)
	assert.Equal(t, dv.FeatureNames, logged.FeatureNames)
}

func TestEvaluator_EvaluateAll(t *testing.T) {
	ctx := context.Background()
	tr := memtracker.New()
	expID, err := tr.EnsureExperiment(ctx, "eval")
	require.NoError(t, err)

	var candidates []Candidate
	for i, depth := range []int64{3, 5, 7, 9} {
		candidates = append(candidates, Candidate{
			Run:    models.Run{RunID: fmt.Sprintf("source-%d", i)},
			Params: params.Params{"max_depth": params.IntValue(depth)},
		})
	}

	evals, err := NewEvaluator(tr, offsetFactory(5, 9), expID, "").EvaluateAll(ctx, candidates, testSplits(t), 2)
	assert.ErrorIs(t, err, errFit)
	require.Len(t, evals, 2)
	assert.Equal(t, "source-0", evals[0].SourceRunID)
	assert.Equal(t, "source-2", evals[1].SourceRunID)
	assert.InDelta(t, 7, evals[1].TestRMSE, 1e-9)
}

func TestPromoter_Run(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		depths  []string
		topN    int
		factory regressor.Factory
		expect  func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error)
	}{
		{
			name:    "registers the run at index top_n-1",
			depths:  []string{"10", "12", "8", "15", "9"},
			topN:    5,
			factory: offsetFactory(),
			expect: func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error) {
				require.NoError(t, err)
				assert.Equal(t, StateRegistered, p.FSM.Current())
				assert.Equal(t, 5, result.Candidates)
				assert.Len(t, result.Evaluations, 5)
				require.NotNil(t, result.ModelVersion)
				assert.Equal(t, "1", result.ModelVersion.Version)

				run, err := tr.GetRun(ctx, result.ModelVersion.RunID)
				require.NoError(t, err)
				assert.InDelta(t, 15, run.Metrics[TestMetric], 1e-9)
				assert.Equal(t, sources["15"], run.Tags[SourceRunTag])
				assert.Equal(t, tracking.RunURI(run.RunID, tracking.ModelArtifactPath), result.ModelVersion.Source)
			},
		},
		{
			name:    "smaller top_n",
			depths:  []string{"10", "12", "8", "15", "9"},
			topN:    2,
			factory: offsetFactory(),
			expect: func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error) {
				require.NoError(t, err)
				assert.Equal(t, 2, result.Candidates)

				run, err := tr.GetRun(ctx, result.ModelVersion.RunID)
				require.NoError(t, err)
				// The two best search runs are depths 10 and 12, ranked by test rmse the second is 12.
				assert.InDelta(t, 12, run.Metrics[TestMetric], 1e-9)
			},
		},
		{
			name:    "failed candidate does not abort the promotion",
			depths:  []string{"10", "12", "8", "15", "9"},
			topN:    5,
			factory: offsetFactory(8),
			expect: func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error) {
				require.NoError(t, err)
				assert.Equal(t, StateRegistered, p.FSM.Current())
				assert.ErrorIs(t, result.Failures, errFit)
				assert.Len(t, result.Evaluations, 4)

				run, err := tr.GetRun(ctx, result.ModelVersion.RunID)
				require.NoError(t, err)
				// 9, 10, 12, 15 survive and the last of them is registered.
				assert.InDelta(t, 15, run.Metrics[TestMetric], 1e-9)
				assert.Equal(t, sources["15"], run.Tags[SourceRunTag])
			},
		},
		{
			name:    "fewer search runs than top_n",
			depths:  []string{"10", "12", "8"},
			topN:    5,
			factory: offsetFactory(),
			expect: func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error) {
				require.NoError(t, err)
				assert.Equal(t, StateRegistered, p.FSM.Current())
				assert.Equal(t, 3, result.Candidates)
				assert.NoError(t, result.Failures)

				run, err := tr.GetRun(ctx, result.ModelVersion.RunID)
				require.NoError(t, err)
				assert.InDelta(t, 12, run.Metrics[TestMetric], 1e-9)
			},
		},
		{
			name:    "no candidates",
			topN:    5,
			factory: offsetFactory(),
			expect: func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error) {
				assert.ErrorIs(t, err, ErrNoCandidates)
				assert.Equal(t, StateAborted, p.FSM.Current())
			},
		},
		{
			name:    "every evaluation failed",
			depths:  []string{"10"},
			topN:    1,
			factory: offsetFactory(10),
			expect: func(t *testing.T, tr *memtracker.Tracker, sources map[string]string, p *Promoter, result *Result, err error) {
				assert.ErrorIs(t, err, ErrNoCandidates)
				assert.ErrorIs(t, err, errFit)
				assert.Equal(t, StateAborted, p.FSM.Current())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := memtracker.New()
			hpoID, err := tr.EnsureExperiment(ctx, "hpo")
			require.NoError(t, err)

			sources := make(map[string]string, len(tc.depths))
			for i, depth := range tc.depths {
				sources[depth] = searchRun(t, tr, hpoID, searchParams(depth), float64(i))
			}

			p := NewPromoter(tr, tr, PromoterConfig{
				HPOExperiment: "hpo",
				Experiment:    "best-models",
				ModelName:     "duration-regressor",
				TopN:          tc.topN,
				Concurrency:   3,
				Factory:       tc.factory,
			})
			assert.Equal(t, StateCollecting, p.FSM.Current())

			result, err := p.Run(ctx, testSplits(t))
			require.NotNil(t, result)
			assert.Equal(t, p.Round(), result.Round)
			tc.expect(t, tr, sources, p, result, err)
		})
	}
}

func TestPromoter_SelectionScope(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		scopeToRound bool
		expect       func(t *testing.T, tr *memtracker.Tracker, results []*Result)
	}{
		{
			name:         "whole experiment",
			scopeToRound: false,
			expect: func(t *testing.T, tr *memtracker.Tracker, results []*Result) {
				// The second cycle ranks 3, 3, 6, 6 and registers a run with rmse 3 from either cycle.
				run, err := tr.GetRun(ctx, results[1].ModelVersion.RunID)
				require.NoError(t, err)
				assert.InDelta(t, 3, run.Metrics[TestMetric], 1e-9)
			},
		},
		{
			name:         "scoped to round",
			scopeToRound: true,
			expect: func(t *testing.T, tr *memtracker.Tracker, results []*Result) {
				for _, result := range results {
					run, err := tr.GetRun(ctx, result.ModelVersion.RunID)
					require.NoError(t, err)
					assert.Equal(t, result.Round, run.Tags[PromotionRoundTag])
					assert.InDelta(t, 6, run.Metrics[TestMetric], 1e-9)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := memtracker.New()
			hpoID, err := tr.EnsureExperiment(ctx, "hpo")
			require.NoError(t, err)
			for i, depth := range []string{"3", "6"} {
				searchRun(t, tr, hpoID, searchParams(depth), float64(i))
			}

			cfg := PromoterConfig{
				HPOExperiment: "hpo",
				Experiment:    "best-models",
				ModelName:     "m",
				TopN:          2,
				Factory:       offsetFactory(),
				ScopeToRound:  tc.scopeToRound,
			}

			var (
				results  []*Result
				versions []string
			)
			for i := 0; i < 2; i++ {
				result, err := NewPromoter(tr, tr, cfg).Run(ctx, testSplits(t))
				require.NoError(t, err)
				results = append(results, result)
				versions = append(versions, result.ModelVersion.Version)
			}
			assert.NotEqual(t, results[0].Round, results[1].Round)
			sort.Strings(versions)
			assert.Equal(t, []string{"1", "2"}, versions)
			tc.expect(t, tr, results)
		})
	}
}

func TestPromoter_RegisteredModelIsServable(t *testing.T) {
	ctx := context.Background()

	records := make([]dataset.Features, 0, 16)
	labels := make([]float64, 0, 16)
	for i := 0; i < 16; i++ {
		distance := float64(1 + i%4)
		records = append(records, dataset.RideFeatures(fmt.Sprint(1+i%2), fmt.Sprint(3+i%3), distance))
		labels = append(labels, 4*distance)
	}
	dv := dataset.NewDictVectorizer()
	require.NoError(t, dv.Fit(records))
	grid := func(from, to int) base.FixedDataGrid {
		g, err := dv.TransformGrid(records[from:to], labels[from:to])
		require.NoError(t, err)
		return g
	}
	splits := &dataset.Splits{Train: grid(0, 10), Val: grid(10, 13), Test: grid(13, 16)}

	tr := memtracker.New()
	hpoID, err := tr.EnsureExperiment(ctx, "hpo")
	require.NoError(t, err)
	searchRun(t, tr, hpoID, searchParams("3"), 1)

	result, err := NewPromoter(tr, tr, PromoterConfig{
		HPOExperiment: "hpo",
		Experiment:    "best-models",
		ModelName:     "m",
		TopN:          1,
		Vectorizer:    dv,
	}).Run(ctx, splits)
	require.NoError(t, err)
	require.Equal(t, "1", result.ModelVersion.Version)

	rc, err := tr.OpenArtifact(ctx, result.ModelVersion.RunID, dataset.VectorizerArtifactPath)
	require.NoError(t, err)
	rc.Close()

	model, err := serving.NewLoader(tr, tr).Load(ctx, "models:/m/1", "")
	require.NoError(t, err)

	duration, err := model.Predict(models.Ride{PULocationID: 1, DOLocationID: 3, TripDistance: 2})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(duration))
}
