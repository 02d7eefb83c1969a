// Package regressor implements the regression models trained by the pipeline on golearn grids.
package regressor

import (
	"errors"
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
	"github.com/montanaflynn/stats"
	"github.com/sjwhitworth/golearn/base"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
)

const (
	KindRandomForest     = "random_forest"
	KindLinearRegression = "linear_regression"

	// ModelTypeParam selects the model kind; it is not passed on to the model.
	ModelTypeParam = "model_type"
)

var (
	ErrNotFitted   = errors.New("no fitted model")
	ErrInvalidOpts = errors.New("invalid model options")
)

// Regressor is a model that can be fitted on a grid and predict its class column.
type Regressor interface {
	Kind() string
	Fit(train base.FixedDataGrid) error
	Predict(X base.FixedDataGrid) (base.FixedDataGrid, error)
}

// Factory builds an unfitted regressor from normalized hyperparameters.
type Factory func(params map[string]any) (Regressor, error)

// New is the default Factory. params["model_type"] picks the model, random forest when absent.
func New(params map[string]any) (Regressor, error) {
	opts := make(map[string]any, len(params))
	kind := KindRandomForest
	for k, v := range params {
		if k == ModelTypeParam {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidOpts, ModelTypeParam, v)
			}
			kind = s
			continue
		}
		opts[k] = v
	}

	switch kind {
	case KindRandomForest:
		o := DefaultForestOptions()
		if err := decodeOptions(opts, &o); err != nil {
			return nil, err
		}
		return NewRandomForest(o)
	case KindLinearRegression:
		o := DefaultLinearOptions()
		if err := decodeOptions(opts, &o); err != nil {
			return nil, err
		}
		return NewLinearRegression(o)
	default:
		return nil, fmt.Errorf("%w: unknown model type %q", ErrInvalidOpts, kind)
	}
}

// decodeOptions rejects unknown keys and values of the wrong type.
func decodeOptions(params map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOpts, err)
	}
	return nil
}

// RMSE is the root mean squared error between y and yhat.
func RMSE(y, yhat []float64) (float64, error) {
	if len(y) != len(yhat) {
		return 0, fmt.Errorf("got %d predictions for %d labels", len(yhat), len(y))
	}
	if len(y) == 0 {
		return 0, dataset.ErrEmptyGrid
	}

	squared := make([]float64, len(y))
	for i := range y {
		d := y[i] - yhat[i]
		squared[i] = d * d
	}

	mse, err := stats.Mean(squared)
	if err != nil {
		return 0, err
	}

	rmse := math.Sqrt(mse)
	if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
		return 0, fmt.Errorf("non-finite rmse: %v", rmse)
	}
	return rmse, nil
}

// Predictions returns the predicted class column of grid.
func Predictions(model Regressor, grid base.FixedDataGrid) ([]float64, error) {
	out, err := model.Predict(grid)
	if err != nil {
		return nil, err
	}
	return dataset.Labels(out)
}

// Score predicts grid and returns the RMSE against its labels.
func Score(model Regressor, grid base.FixedDataGrid) (float64, error) {
	y, err := dataset.Labels(grid)
	if err != nil {
		return 0, err
	}

	yhat, err := Predictions(model, grid)
	if err != nil {
		return 0, err
	}
	return RMSE(y, yhat)
}

// resolveFeatures finds the named float attributes in X.
func resolveFeatures(X base.FixedDataGrid, names []string) ([]base.AttributeSpec, error) {
	specs := make([]base.AttributeSpec, len(names))
	for i, name := range names {
		spec, err := X.GetAttribute(base.NewFloatAttribute(name))
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", name, err)
		}
		specs[i] = spec
	}
	return specs, nil
}

// predictRows runs fn on every row of X and writes the result into a prediction vector.
func predictRows(X base.FixedDataGrid, names []string, fn func(row []float64) float64) (base.FixedDataGrid, error) {
	classAttrs := X.AllClassAttributes()
	if len(classAttrs) != 1 {
		return nil, errors.New("only 1 class variable is permitted")
	}

	specs, err := resolveFeatures(X, names)
	if err != nil {
		return nil, err
	}

	ret := base.GeneratePredictionVector(X)
	clsSpec, err := ret.GetAttribute(classAttrs[0])
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(names))
	err = X.MapOverRows(specs, func(row [][]byte, i int) (bool, error) {
		for j, r := range row {
			values[j] = base.UnpackBytesToFloat(r)
		}
		ret.Set(clsSpec, i, base.PackFloatToBytes(fn(values)))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
