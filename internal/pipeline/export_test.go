package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/memtracker"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

func trainedLinear(t *testing.T) *Trained {
	t.Helper()

	records := []dataset.Features{
		dataset.RideFeatures("1", "2", 1.5),
		dataset.RideFeatures("3", "4", 4.0),
	}
	dv := dataset.NewDictVectorizer()
	require.NoError(t, dv.Fit(records))
	grid, err := dv.TransformGrid(records, []float64{6, 14})
	require.NoError(t, err)

	model, err := regressor.NewLinearRegression(regressor.DefaultLinearOptions())
	require.NoError(t, err)
	require.NoError(t, model.Fit(grid))

	return &Trained{
		Model:      model,
		Vectorizer: dv,
		Params:     map[string]string{"learning_rate": "0.5"},
		Metrics:    map[string]float64{SearchMetric: 1.25},
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	trained := trainedLinear(t)
	tr := memtracker.New()
	dir := filepath.Join(t.TempDir(), "model")

	locations, err := Export(ctx, trained, LocalExporter(dir), TrackingExporter(tr, "exports"))
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, dir, locations[0])

	f, err := os.Open(filepath.Join(dir, tracking.ModelFileName))
	require.NoError(t, err)
	defer f.Close()
	local, err := regressor.Load(f)
	require.NoError(t, err)
	assert.Equal(t, regressor.KindLinearRegression, local.Kind())

	dv, err := dataset.LoadVectorizerFile(filepath.Join(dir, dataset.VectorizerFile))
	require.NoError(t, err)
	assert.Equal(t, trained.Vectorizer.FeatureNames, dv.FeatureNames)

	runID, artifactPath, err := tracking.ParseRunURI(locations[1])
	require.NoError(t, err)
	assert.Equal(t, tracking.ModelArtifactPath, artifactPath)

	run, err := tr.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFinished, run.Status)
	assert.Equal(t, "0.5", run.Params["learning_rate"])
	assert.Equal(t, 1.25, run.Metrics[SearchMetric])
	assert.Equal(t, regressor.KindLinearRegression, run.Tags["model_type"])

	for _, p := range []string{tracking.ModelFile(), dataset.VectorizerArtifactPath} {
		rc, err := tr.OpenArtifact(ctx, runID, p)
		require.NoError(t, err, p)
		rc.Close()
	}
}

func TestExport_StopsAtFirstFailure(t *testing.T) {
	trained := trainedLinear(t)
	trained.Vectorizer = nil

	called := false
	locations, err := Export(context.Background(), trained,
		LocalExporter(t.TempDir()),
		func(context.Context, *Trained) (string, error) {
			called = true
			return "", nil
		},
	)
	assert.ErrorIs(t, err, dataset.ErrNotFitted)
	assert.Empty(t, locations)
	assert.False(t, called)
}
