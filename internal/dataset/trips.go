package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/sjwhitworth/golearn/base"

	"github.com/imishinist/mlops-pipeline/internal/models"
)

const (
	MinDuration = 1.0
	MaxDuration = 60.0
)

// ReadTrips decodes a trip record CSV with a header row.
func ReadTrips(r io.Reader) ([]*models.TripRecord, error) {
	records := make([]*models.TripRecord, 0)
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("failed to decode trip records: %w", err)
	}
	return records, nil
}

func ReadTripFile(path string) ([]*models.TripRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadTrips(f)
}

// TripFileName is the name of a monthly yellow taxi trip file.
func TripFileName(year, month int) string {
	return fmt.Sprintf("yellow_tripdata_%04d-%02d.csv", year, month)
}

// FeaturizeTrips keeps trips lasting between MinDuration and MaxDuration minutes and returns their
// feature records with the durations as labels.
func FeaturizeTrips(records []*models.TripRecord) ([]Features, []float64) {
	features := make([]Features, 0, len(records))
	durations := make([]float64, 0, len(records))

	for _, r := range records {
		d := r.Duration()
		if d < MinDuration || d > MaxDuration {
			continue
		}
		features = append(features, RideFeatures(LocationID(r.PULocationID), LocationID(r.DOLocationID), r.TripDistance))
		durations = append(durations, d)
	}
	return features, durations
}

// Prepare fits a vectorizer on the training trips and builds the three split grids.
func Prepare(train, val, test []*models.TripRecord) (*Splits, *DictVectorizer, error) {
	trainFeatures, trainY := FeaturizeTrips(train)
	if len(trainFeatures) == 0 {
		return nil, nil, fmt.Errorf("training trips: %w", ErrEmptyGrid)
	}

	dv := NewDictVectorizer()
	if err := dv.Fit(trainFeatures); err != nil {
		return nil, nil, fmt.Errorf("failed to fit vectorizer: %w", err)
	}

	build := func(name string, records []*models.TripRecord) (base.FixedDataGrid, error) {
		features, y := FeaturizeTrips(records)
		if len(features) == 0 {
			return nil, fmt.Errorf("%s trips: %w", name, ErrEmptyGrid)
		}
		grid, err := dv.TransformGrid(features, y)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s grid: %w", name, err)
		}
		return grid, nil
	}

	trainGrid, err := dv.TransformGrid(trainFeatures, trainY)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build training grid: %w", err)
	}
	valGrid, err := build("validation", val)
	if err != nil {
		return nil, nil, err
	}
	testGrid, err := build("test", test)
	if err != nil {
		return nil, nil, err
	}

	return &Splits{Train: trainGrid, Val: valGrid, Test: testGrid}, dv, nil
}
