package regressor

import (
	"bytes"
	"math"
	"testing"

	"github.com/sjwhitworth/golearn/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
)

func stepGrid(t *testing.T) *base.DenseInstances {
	t.Helper()

	X := make([][]float64, 0, 40)
	y := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		x := float64(i)
		X = append(X, []float64{x, float64(i % 3)})
		if x < 20 {
			y = append(y, 5)
		} else {
			y = append(y, 15)
		}
	}

	grid, err := dataset.NewGrid([]string{"x", "noise"}, X, y)
	require.NoError(t, err)
	return grid
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		expect func(t *testing.T, r Regressor, err error)
	}{
		{
			name:   "defaults to random forest",
			params: map[string]any{},
			expect: func(t *testing.T, r Regressor, err error) {
				require.NoError(t, err)
				assert.Equal(t, KindRandomForest, r.Kind())
				assert.Equal(t, 100, r.(*RandomForest).Options.NEstimators)
			},
		},
		{
			name: "full random forest parameter set",
			params: map[string]any{
				"bootstrap": true, "ccp_alpha": 0.0, "criterion": "squared_error", "max_depth": 10,
				"max_features": 1.0, "max_leaf_nodes": nil, "max_samples": nil, "min_impurity_decrease": 0.0,
				"min_samples_leaf": 2, "min_samples_split": 4, "min_weight_fraction_leaf": 0.0,
				"monotonic_cst": nil, "n_estimators": 12, "n_jobs": -1, "oob_score": false,
				"random_state": 42, "verbose": 0, "warm_start": false,
			},
			expect: func(t *testing.T, r Regressor, err error) {
				require.NoError(t, err)
				o := r.(*RandomForest).Options
				assert.Equal(t, 12, o.NEstimators)
				assert.Equal(t, 10, *o.MaxDepth)
				assert.Equal(t, 42, *o.RandomState)
				assert.Nil(t, o.MaxSamples)
				assert.Equal(t, 4, o.MinSamplesSplit)
			},
		},
		{
			name:   "linear regression",
			params: map[string]any{"model_type": "linear_regression", "epochs": 3},
			expect: func(t *testing.T, r Regressor, err error) {
				require.NoError(t, err)
				assert.Equal(t, KindLinearRegression, r.Kind())
				assert.Equal(t, 3, r.(*LinearRegression).Options.Epochs)
			},
		},
		{
			name:   "unknown key",
			params: map[string]any{"custom": "42"},
			expect: func(t *testing.T, r Regressor, err error) {
				assert.ErrorIs(t, err, ErrInvalidOpts)
			},
		},
		{
			name:   "raw string for integer",
			params: map[string]any{"max_depth": "10"},
			expect: func(t *testing.T, r Regressor, err error) {
				assert.ErrorIs(t, err, ErrInvalidOpts)
			},
		},
		{
			name:   "out of range",
			params: map[string]any{"min_samples_split": 1},
			expect: func(t *testing.T, r Regressor, err error) {
				assert.ErrorIs(t, err, ErrInvalidOpts)
			},
		},
		{
			name:   "unknown model type",
			params: map[string]any{"model_type": "svm"},
			expect: func(t *testing.T, r Regressor, err error) {
				assert.ErrorIs(t, err, ErrInvalidOpts)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(tc.params)
			tc.expect(t, r, err)
		})
	}
}

func TestRandomForest_FitPredict(t *testing.T) {
	grid := stepGrid(t)

	rf, err := New(map[string]any{"n_estimators": 10, "random_state": 7})
	require.NoError(t, err)

	_, err = rf.Predict(grid)
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, rf.Fit(grid))

	rmse, err := Score(rf, grid)
	require.NoError(t, err)
	assert.Less(t, rmse, 2.0)

	yhat, err := Predictions(rf, grid)
	require.NoError(t, err)
	assert.InDelta(t, 5, yhat[0], 1)
	assert.InDelta(t, 15, yhat[39], 1)
}

func TestRandomForest_Deterministic(t *testing.T) {
	grid := stepGrid(t)

	predict := func(jobs int) []float64 {
		rf, err := New(map[string]any{"n_estimators": 8, "random_state": 3, "max_features": 0.5, "n_jobs": jobs})
		require.NoError(t, err)
		require.NoError(t, rf.Fit(grid))
		yhat, err := Predictions(rf, grid)
		require.NoError(t, err)
		return yhat
	}

	assert.Equal(t, predict(1), predict(4))
}

func TestRandomForest_MaxDepth(t *testing.T) {
	grid := stepGrid(t)

	rf, err := New(map[string]any{"n_estimators": 1, "max_depth": 1, "bootstrap": false, "random_state": 0})
	require.NoError(t, err)
	require.NoError(t, rf.Fit(grid))

	forest := rf.(*RandomForest)
	require.Len(t, forest.Trees, 1)
	assert.Len(t, forest.Trees[0].Nodes, 3)

	yhat, err := Predictions(rf, grid)
	require.NoError(t, err)
	assert.Equal(t, 5.0, yhat[0])
	assert.Equal(t, 15.0, yhat[39])
}

func TestLinearRegression_FitPredict(t *testing.T) {
	X := make([][]float64, 0, 20)
	y := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		x := float64(i) / 10
		X = append(X, []float64{x})
		y = append(y, 2*x+1)
	}
	grid, err := dataset.NewGrid([]string{"x"}, X, y)
	require.NoError(t, err)

	lr, err := New(map[string]any{"model_type": KindLinearRegression, "epochs": 500})
	require.NoError(t, err)
	require.NoError(t, lr.Fit(grid))

	rmse, err := Score(lr, grid)
	require.NoError(t, err)
	assert.Less(t, rmse, 0.1)

	_, err = NewLinearRegression(LinearOptions{LearningRate: 2, Epochs: 1})
	assert.ErrorIs(t, err, ErrInvalidOpts)
}

func TestSaveLoad(t *testing.T) {
	grid := stepGrid(t)

	for _, params := range []map[string]any{
		{"n_estimators": 3, "random_state": 1},
		{"model_type": KindLinearRegression},
	} {
		model, err := New(params)
		require.NoError(t, err)
		require.NoError(t, model.Fit(grid))

		var buf bytes.Buffer
		require.NoError(t, Save(&buf, model))

		loaded, err := Load(&buf)
		require.NoError(t, err)
		assert.Equal(t, model.Kind(), loaded.Kind())

		want, err := Predictions(model, grid)
		require.NoError(t, err)
		got, err := Predictions(loaded, grid)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Load(bytes.NewBufferString(`{"kind":"svm","model":{}}`))
	assert.Error(t, err)
}

func TestPredict_MissingFeature(t *testing.T) {
	model, err := New(map[string]any{"n_estimators": 2, "random_state": 1})
	require.NoError(t, err)
	require.NoError(t, model.Fit(stepGrid(t)))

	other, err := dataset.NewGrid([]string{"y"}, [][]float64{{1}}, nil)
	require.NoError(t, err)

	_, err = model.Predict(other)
	assert.Error(t, err)
}

func TestRMSE(t *testing.T) {
	rmse, err := RMSE([]float64{1, 2, 3}, []float64{1, 2, 5})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(4.0/3.0), rmse, 1e-12)

	_, err = RMSE([]float64{1}, []float64{1, 2})
	assert.Error(t, err)

	_, err = RMSE(nil, nil)
	assert.ErrorIs(t, err, dataset.ErrEmptyGrid)

	_, err = RMSE([]float64{1}, []float64{math.NaN()})
	assert.Error(t, err)
}
