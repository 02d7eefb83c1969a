// Package serving loads a trained trip duration model and serves its predictions over HTTP.
package serving

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// ErrModelUnavailable is returned when the model or its vectorizer cannot be loaded.
var ErrModelUnavailable = errors.New("model unavailable")

// Predictor predicts the duration of a ride in minutes.
type Predictor interface {
	Predict(ride models.Ride) (float64, error)

	// Version identifies the model in responses, the id of the run that produced it.
	Version() string
}

// Model is a fitted regressor together with the vectorizer its features were built with.
type Model struct {
	regressor  regressor.Regressor
	vectorizer *dataset.DictVectorizer
	version    string
}

func NewModel(r regressor.Regressor, dv *dataset.DictVectorizer, version string) *Model {
	return &Model{
		regressor:  r,
		vectorizer: dv,
		version:    version,
	}
}

func (m *Model) Version() string {
	return m.version
}

func (m *Model) Predict(ride models.Ride) (float64, error) {
	features := dataset.RideFeatures(strconv.Itoa(ride.PULocationID), strconv.Itoa(ride.DOLocationID), ride.TripDistance)
	preds, err := m.PredictBatch([]dataset.Features{features})
	if err != nil {
		return 0, err
	}
	if len(preds) != 1 {
		return 0, fmt.Errorf("got %d predictions for 1 ride", len(preds))
	}
	return preds[0], nil
}

// PredictBatch vectorizes records and predicts them in one pass.
func (m *Model) PredictBatch(records []dataset.Features) ([]float64, error) {
	grid, err := m.vectorizer.TransformGrid(records, nil)
	if err != nil {
		return nil, err
	}
	return regressor.Predictions(m.regressor, grid)
}

// Loader resolves model URIs. The tracker and registry are only needed for runs:/ and models:/ URIs.
type Loader struct {
	tracker  tracking.Tracker
	registry tracking.Registry
}

func NewLoader(tracker tracking.Tracker, registry tracking.Registry) *Loader {
	return &Loader{
		tracker:  tracker,
		registry: registry,
	}
}

// Load reads the model at modelURI, which is one of models:/<name>/<version>, runs:/<run_id>/<path>
// or a local directory or model file. vectorizerPath overrides where the vectorizer is read from;
// when empty it is taken from the run, or from dv.json next to a local model.
func (l *Loader) Load(ctx context.Context, modelURI, vectorizerPath string) (*Model, error) {
	model, err := l.load(ctx, modelURI, vectorizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, modelURI, err)
	}
	logger.Infof("loaded %s model version %s from %s", model.regressor.Kind(), model.version, modelURI)
	return model, nil
}

func (l *Loader) load(ctx context.Context, modelURI, vectorizerPath string) (*Model, error) {
	if tracking.IsModelURI(modelURI) {
		name, version, err := tracking.ParseModelURI(modelURI)
		if err != nil {
			return nil, err
		}
		if l.registry == nil {
			return nil, errors.New("no model registry configured")
		}

		mv, err := l.registry.GetModelVersion(ctx, name, version)
		if err != nil {
			return nil, err
		}
		logger.Infof("model %s version %s resolves to %s", name, version, mv.Source)
		modelURI = mv.Source
	}

	if tracking.IsRunURI(modelURI) {
		return l.loadRun(ctx, modelURI, vectorizerPath)
	}
	return loadLocal(modelURI, vectorizerPath)
}

func (l *Loader) loadRun(ctx context.Context, uri, vectorizerPath string) (*Model, error) {
	runID, artifactPath, err := tracking.ParseRunURI(uri)
	if err != nil {
		return nil, err
	}
	if l.tracker == nil {
		return nil, errors.New("no tracker configured")
	}

	rc, err := l.tracker.OpenArtifact(ctx, runID, artifactPath+"/"+tracking.ModelFileName)
	if err != nil {
		return nil, err
	}
	r, err := readModel(rc)
	if err != nil {
		return nil, err
	}

	var dv *dataset.DictVectorizer
	if vectorizerPath != "" {
		dv, err = dataset.LoadVectorizerFile(vectorizerPath)
	} else {
		dv, err = l.runVectorizer(ctx, runID)
	}
	if err != nil {
		return nil, err
	}
	return NewModel(r, dv, runID), nil
}

func (l *Loader) runVectorizer(ctx context.Context, runID string) (*dataset.DictVectorizer, error) {
	rc, err := l.tracker.OpenArtifact(ctx, runID, dataset.VectorizerArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vectorizer: %w", err)
	}
	defer rc.Close()

	return dataset.LoadVectorizer(rc)
}

func loadLocal(path, vectorizerPath string) (*Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	dir, file := filepath.Dir(path), path
	if info.IsDir() {
		dir, file = path, filepath.Join(path, tracking.ModelFileName)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	r, err := readModel(f)
	if err != nil {
		return nil, err
	}

	if vectorizerPath == "" {
		vectorizerPath = filepath.Join(dir, dataset.VectorizerFile)
	}
	dv, err := dataset.LoadVectorizerFile(vectorizerPath)
	if err != nil {
		return nil, err
	}
	return NewModel(r, dv, filepath.Base(dir)), nil
}

func readModel(rc io.ReadCloser) (regressor.Regressor, error) {
	defer rc.Close()
	return regressor.Load(rc)
}
