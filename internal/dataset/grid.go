// Package dataset loads the train/validation/test splits and builds the feature grids the regressors consume.
package dataset

import (
	"errors"
	"fmt"

	"github.com/sjwhitworth/golearn/base"
)

// LabelName is the class attribute of every grid built by this package.
const LabelName = "duration"

// floatPrecision is the number of decimals kept when a grid is written to CSV.
const floatPrecision = 6

var ErrEmptyGrid = errors.New("dataset has no rows")

func newFloatAttribute(name string) *base.FloatAttribute {
	attr := base.NewFloatAttribute(name)
	attr.Precision = floatPrecision
	return attr
}

// Matrix copies the float feature columns and the class column of grid into plain slices.
func Matrix(grid base.FixedDataGrid) (features []string, X [][]float64, y []float64, err error) {
	classAttrs := grid.AllClassAttributes()
	if len(classAttrs) != 1 {
		return nil, nil, nil, errors.New("only 1 class variable is permitted")
	}

	attrs := make([]base.Attribute, 0)
	for _, a := range base.NonClassAttributes(grid) {
		if _, ok := a.(*base.FloatAttribute); !ok {
			return nil, nil, nil, fmt.Errorf("attribute %s is not numeric", a.GetName())
		}
		attrs = append(attrs, a)
		features = append(features, a.GetName())
	}

	specs := base.ResolveAttributes(grid, append(attrs, classAttrs[0]))
	_, rows := grid.Size()
	X = make([][]float64, 0, rows)
	y = make([]float64, 0, rows)

	err = grid.MapOverRows(specs, func(row [][]byte, i int) (bool, error) {
		values := make([]float64, len(attrs))
		for j := range attrs {
			values[j] = base.UnpackBytesToFloat(row[j])
		}
		X = append(X, values)
		y = append(y, base.UnpackBytesToFloat(row[len(attrs)]))
		return true, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return features, X, y, nil
}

// NewGrid builds a dense grid with one float attribute per feature and a LabelName class column.
// A nil y leaves the class column zeroed, which is what prediction inputs need.
func NewGrid(features []string, X [][]float64, y []float64) (*base.DenseInstances, error) {
	if y != nil && len(y) != len(X) {
		return nil, fmt.Errorf("got %d labels for %d rows", len(y), len(X))
	}

	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(features))
	for i, name := range features {
		specs[i] = inst.AddAttribute(newFloatAttribute(name))
	}

	label := newFloatAttribute(LabelName)
	labelSpec := inst.AddAttribute(label)
	if err := inst.AddClassAttribute(label); err != nil {
		return nil, err
	}

	if err := inst.Extend(len(X)); err != nil {
		return nil, err
	}

	for i, row := range X {
		if len(row) != len(features) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(features))
		}
		for j, v := range row {
			inst.Set(specs[j], i, base.PackFloatToBytes(v))
		}

		var v float64
		if y != nil {
			v = y[i]
		}
		inst.Set(labelSpec, i, base.PackFloatToBytes(v))
	}
	return inst, nil
}

// Labels returns the class column of grid.
func Labels(grid base.FixedDataGrid) ([]float64, error) {
	_, _, y, err := Matrix(grid)
	return y, err
}

// Rows returns the number of rows of grid.
func Rows(grid base.FixedDataGrid) int {
	_, rows := grid.Size()
	return rows
}
