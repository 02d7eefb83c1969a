package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripCSV = `VendorID,tpep_pickup_datetime,tpep_dropoff_datetime,PULocationID,DOLocationID,trip_distance
1,2023-03-01 00:06:43,2023-03-01 00:16:43,238,42,2.5
2,2023-03-01 00:08:25,2023-03-01 00:08:40,138,231,0.1
2,2023-03-01 00:15:04,2023-03-01 01:45:00,140,186,20.0
1,2023-03-01 00:49:37,2023-03-01 01:01:37,,42,3.0
2,2023-03-01T01:00:00Z,2023-03-01T01:30:00Z,161.0,236,5.25
`

func TestReadTrips_Featurize(t *testing.T) {
	records, err := ReadTrips(strings.NewReader(tripCSV))
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.InDelta(t, 10.0, records[0].Duration(), 1e-9)

	features, y := FeaturizeTrips(records)
	assert.Equal(t, []float64{10, 12, 30}, y)
	assert.Equal(t, []Features{
		{"PU_DO": "238_42", "trip_distance": 2.5},
		{"PU_DO": "-1_42", "trip_distance": 3.0},
		{"PU_DO": "161_236", "trip_distance": 5.25},
	}, features)
}

func TestReadTrips_InvalidTimestamp(t *testing.T) {
	_, err := ReadTrips(strings.NewReader("tpep_pickup_datetime,tpep_dropoff_datetime\nyesterday,today\n"))
	assert.Error(t, err)
}

func TestDictVectorizer(t *testing.T) {
	dv := NewDictVectorizer()

	_, err := dv.Transform([]Features{{"a": "x"}})
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, dv.Fit([]Features{
		{"PU_DO": "1_2", "trip_distance": 1.5},
		{"PU_DO": "3_4", "trip_distance": 2.0},
	}))
	assert.Equal(t, []string{"PU_DO=1_2", "PU_DO=3_4", "trip_distance"}, dv.FeatureNames)

	X, err := dv.Transform([]Features{
		{"PU_DO": "3_4", "trip_distance": 7.0},
		{"PU_DO": "9_9", "trip_distance": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1, 7}, {0, 0, 1}}, X)

	assert.Error(t, dv.Fit([]Features{{"a": []string{"x"}}}))
}

func TestDictVectorizer_SaveLoad(t *testing.T) {
	dv := NewDictVectorizer()
	require.NoError(t, dv.Fit([]Features{{"PU_DO": "1_2", "trip_distance": 1.5}}))

	var buf bytes.Buffer
	require.NoError(t, dv.Save(&buf))

	loaded, err := LoadVectorizer(&buf)
	require.NoError(t, err)
	assert.Equal(t, dv.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, map[string]int{"PU_DO=1_2": 0, "trip_distance": 1}, loaded.Vocabulary)

	_, err = LoadVectorizer(strings.NewReader(`{"feature_names": []}`))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestGrid_RoundTrip(t *testing.T) {
	X := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []float64{10, 20, 30}

	grid, err := NewGrid([]string{"a", "b"}, X, y)
	require.NoError(t, err)
	assert.Equal(t, 3, Rows(grid))

	features, gotX, gotY, err := Matrix(grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, features)
	assert.Equal(t, X, gotX)
	assert.Equal(t, y, gotY)

	_, err = NewGrid([]string{"a", "b"}, [][]float64{{1}}, nil)
	assert.Error(t, err)

	_, err = NewGrid([]string{"a"}, [][]float64{{1}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestPrepare_WriteLoadSplits(t *testing.T) {
	records, err := ReadTrips(strings.NewReader(tripCSV))
	require.NoError(t, err)

	splits, dv, err := Prepare(records, records[:1], records[4:])
	require.NoError(t, err)
	assert.Equal(t, []string{"PU_DO=-1_42", "PU_DO=161_236", "PU_DO=238_42", "trip_distance"}, dv.FeatureNames)
	assert.Equal(t, 3, Rows(splits.Train))
	assert.Equal(t, 1, Rows(splits.Val))

	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, WriteSplits(dir, splits))

	loaded, err := LoadSplits(dir)
	require.NoError(t, err)

	_, X, y, err := Matrix(loaded.Test)
	require.NoError(t, err)
	require.Len(t, X, 1)
	assert.InDeltaSlice(t, []float64{0, 1, 0, 5.25}, X[0], 1e-6)
	assert.InDeltaSlice(t, []float64{30}, y, 1e-6)

	_, _, err = Prepare(records[1:2], records, records)
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestLoadSplits_Missing(t *testing.T) {
	_, err := LoadSplits(t.TempDir())
	assert.ErrorContains(t, err, "train.csv")
}

func TestLocationID(t *testing.T) {
	assert.Equal(t, "-1", LocationID(""))
	assert.Equal(t, "132", LocationID("132.0"))
	assert.Equal(t, "abc", LocationID("abc"))
	assert.Equal(t, "yellow_tripdata_2023-03.csv", TripFileName(2023, 3))
}
