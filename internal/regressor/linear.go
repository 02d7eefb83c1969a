package regressor

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
)

type LinearOptions struct {
	LearningRate float64 `mapstructure:"learning_rate" json:"learning_rate"`
	Epochs       int     `mapstructure:"epochs" json:"epochs"`
}

func DefaultLinearOptions() LinearOptions {
	return LinearOptions{
		LearningRate: 0.5,
		Epochs:       20,
	}
}

// LinearRegression is fitted with normalized least-mean-squares updates.
type LinearRegression struct {
	Options                LinearOptions `json:"options"`
	Fitted                 bool          `json:"fitted"`
	Disturbance            float64       `json:"disturbance"`
	RegressionCoefficients []float64     `json:"regression_coefficients"`
	Features               []string      `json:"features"`
}

func NewLinearRegression(opts LinearOptions) (*LinearRegression, error) {
	if opts.LearningRate <= 0 || opts.LearningRate >= 2 {
		return nil, fmt.Errorf("%w: learning_rate must be in (0, 2), got %v", ErrInvalidOpts, opts.LearningRate)
	}
	if opts.Epochs < 1 {
		return nil, fmt.Errorf("%w: epochs must be >= 1, got %d", ErrInvalidOpts, opts.Epochs)
	}
	return &LinearRegression{Options: opts}, nil
}

func (lr *LinearRegression) Kind() string {
	return KindLinearRegression
}

// Fit train parameters of model to fit the data provided.
func (lr *LinearRegression) Fit(train base.FixedDataGrid) error {
	features, X, y, err := dataset.Matrix(train)
	if err != nil {
		return err
	}
	if len(X) == 0 {
		return dataset.ErrEmptyGrid
	}

	coefficients := make([]float64, len(features))
	var disturbance float64

	for epoch := 0; epoch < lr.Options.Epochs; epoch++ {
		for i, row := range X {
			out := disturbance
			norm := 1.0
			for j, v := range row {
				out += v * coefficients[j]
				norm += v * v
			}

			step := lr.Options.LearningRate * (y[i] - out) / norm
			disturbance += step
			for j, v := range row {
				coefficients[j] += step * v
			}
		}
	}

	lr.Disturbance = disturbance
	lr.RegressionCoefficients = coefficients
	lr.Features = features
	lr.Fitted = true
	return nil
}

// Predict use parameters of model to predict the data provided.
func (lr *LinearRegression) Predict(X base.FixedDataGrid) (base.FixedDataGrid, error) {
	if !lr.Fitted {
		return nil, ErrNotFitted
	}

	return predictRows(X, lr.Features, func(row []float64) float64 {
		prediction := lr.Disturbance
		for j, v := range row {
			prediction += v * lr.RegressionCoefficients[j]
		}
		return prediction
	})
}
