package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sjwhitworth/golearn/base"

	"github.com/imishinist/mlops-pipeline/internal/logger"
)

const (
	TrainFile      = "train.csv"
	ValFile        = "val.csv"
	TestFile       = "test.csv"
	VectorizerFile = "dv.json"

	// VectorizerArtifactPath is where a fitted vectorizer is logged next to a model in a run.
	VectorizerArtifactPath = "dict_vectorizer/" + VectorizerFile
)

// Splits holds the three read-only grids a promotion pass evaluates against.
type Splits struct {
	Train base.FixedDataGrid
	Val   base.FixedDataGrid
	Test  base.FixedDataGrid
}

// LoadSplits reads <dataPath>/{train,val,test}.csv. The last column of each file is the label.
func LoadSplits(dataPath string) (*Splits, error) {
	load := func(name string) (base.FixedDataGrid, error) {
		path := filepath.Join(dataPath, name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to stat split %s: %w", path, err)
		}

		grid, err := base.ParseCSVToInstances(path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to parse split %s: %w", path, err)
		}
		if Rows(grid) == 0 {
			return nil, fmt.Errorf("split %s: %w", path, ErrEmptyGrid)
		}
		return grid, nil
	}

	train, err := load(TrainFile)
	if err != nil {
		return nil, err
	}
	val, err := load(ValFile)
	if err != nil {
		return nil, err
	}
	test, err := load(TestFile)
	if err != nil {
		return nil, err
	}

	logger.Infof("loaded splits from %s: train=%d val=%d test=%d", dataPath, Rows(train), Rows(val), Rows(test))
	return &Splits{Train: train, Val: val, Test: test}, nil
}

// WriteSplits writes the grids in the layout LoadSplits reads.
func WriteSplits(dataPath string, splits *Splits) error {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dataPath, err)
	}

	for name, grid := range map[string]base.FixedDataGrid{
		TrainFile: splits.Train,
		ValFile:   splits.Val,
		TestFile:  splits.Test,
	} {
		path := filepath.Join(dataPath, name)
		if err := base.SerializeInstancesToCSV(grid, path); err != nil {
			return fmt.Errorf("failed to write split %s: %w", path, err)
		}
	}
	return nil
}
