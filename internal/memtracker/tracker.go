// Package memtracker implements the tracker and registry in process memory, optionally persisted to a
// local directory so that separate CLI invocations share runs.
package memtracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

const snapshotFileName = "tracker.json"

var (
	_ tracking.Tracker  = (*Tracker)(nil)
	_ tracking.Registry = (*Tracker)(nil)
)

// Tracker keeps experiments, runs, artifacts and model versions in memory.
type Tracker struct {
	mu sync.RWMutex

	// dir is empty for a purely in-memory tracker.
	dir string

	state state
	now   func() time.Time
}

type state struct {
	Experiments map[string]*models.Experiment     `json:"experiments"`
	Runs        map[string]*models.Run            `json:"runs"`
	RunOrder    []string                          `json:"run_order"`
	Artifacts   map[string]map[string][]byte      `json:"artifacts,omitempty"`
	Versions    map[string][]*models.ModelVersion `json:"versions"`
	NextExpID   int                               `json:"next_experiment_id"`
}

// New returns an empty in-memory tracker.
func New() *Tracker {
	return &Tracker{
		state: newState(),
		now:   time.Now,
	}
}

// Open returns a tracker persisted under dir, loading any previous snapshot.
func Open(dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tracking directory %s: %w", dir, err)
	}

	t := New()
	t.dir = dir

	data, err := os.ReadFile(filepath.Join(dir, snapshotFileName))
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tracker snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &t.state); err != nil {
		return nil, fmt.Errorf("failed to decode tracker snapshot: %w", err)
	}
	t.state.fill()
	return t, nil
}

func newState() state {
	s := state{}
	s.fill()
	return s
}

func (s *state) fill() {
	if s.Experiments == nil {
		s.Experiments = map[string]*models.Experiment{}
	}
	if s.Runs == nil {
		s.Runs = map[string]*models.Run{}
	}
	if s.Artifacts == nil {
		s.Artifacts = map[string]map[string][]byte{}
	}
	if s.Versions == nil {
		s.Versions = map[string][]*models.ModelVersion{}
	}
}

func (t *Tracker) GetExperimentByName(_ context.Context, name string) (*models.Experiment, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	exp, ok := t.experimentByNameLocked(name)
	if !ok {
		return nil, fmt.Errorf("experiment %q: %w", name, tracking.ErrNotFound)
	}
	clone := *exp
	return &clone, nil
}

func (t *Tracker) EnsureExperiment(_ context.Context, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if exp, ok := t.experimentByNameLocked(name); ok {
		return exp.ExperimentID, nil
	}

	id := strconv.Itoa(t.state.NextExpID)
	t.state.NextExpID++
	t.state.Experiments[id] = &models.Experiment{
		ExperimentID:     id,
		Name:             name,
		ArtifactLocation: t.artifactRoot(id),
	}
	return id, t.persistLocked()
}

func (t *Tracker) experimentByNameLocked(name string) (*models.Experiment, bool) {
	for _, exp := range t.state.Experiments {
		if exp.Name == name {
			return exp, true
		}
	}
	return nil, false
}

func (t *Tracker) artifactRoot(experimentID string) string {
	if t.dir == "" {
		return fmt.Sprintf("memory://%s", experimentID)
	}
	return "file://" + filepath.Join(t.dir, "artifacts", experimentID)
}

func (t *Tracker) FindRuns(_ context.Context, query models.RunQuery) ([]models.Run, error) {
	if query.MaxResults < 1 {
		return nil, fmt.Errorf("%w: got %d", tracking.ErrInvalidMaxResults, query.MaxResults)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	exp, ok := t.experimentByNameLocked(query.ExperimentName)
	if !ok {
		return nil, fmt.Errorf("experiment %q: %w", query.ExperimentName, tracking.ErrNotFound)
	}

	runs := make([]*models.Run, 0)
	for _, id := range t.state.RunOrder {
		run := t.state.Runs[id]
		if run.ExperimentID != exp.ExperimentID || !matches(run, query.Filter) {
			continue
		}
		runs = append(runs, run)
	}

	if query.OrderBy != nil {
		sortByMetric(runs, *query.OrderBy)
	} else {
		// Newest first, like the tracking server.
		for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
			runs[i], runs[j] = runs[j], runs[i]
		}
	}

	if len(runs) > query.MaxResults {
		runs = runs[:query.MaxResults]
	}

	result := make([]models.Run, 0, len(runs))
	for _, run := range runs {
		result = append(result, cloneRun(run))
	}
	return result, nil
}

func matches(run *models.Run, filter models.RunFilter) bool {
	if filter.Status != "" && run.Status != filter.Status {
		return false
	}
	for k, v := range filter.Tags {
		if run.Tags[k] != v {
			return false
		}
	}
	return true
}

// sortByMetric keeps creation order for ties and puts runs without the metric last.
func sortByMetric(runs []*models.Run, order models.OrderBy) {
	sort.SliceStable(runs, func(i, j int) bool {
		vi, iok := runs[i].Metrics[order.Metric]
		vj, jok := runs[j].Metrics[order.Metric]
		switch {
		case !iok || !jok:
			return iok && !jok
		case order.Ascending:
			return vi < vj
		default:
			return vi > vj
		}
	})
}

// GetRun returns a copy of a run.
func (t *Tracker) GetRun(_ context.Context, runID string) (*models.Run, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.state.Runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, tracking.ErrNotFound)
	}
	clone := cloneRun(run)
	return &clone, nil
}

func (t *Tracker) CreateRun(_ context.Context, config *models.RunConfig) (*models.RunInfo, error) {
	if config.ExperimentID == nil {
		return nil, fmt.Errorf("experiment ID must be provided")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	exp, ok := t.state.Experiments[*config.ExperimentID]
	if !ok {
		return nil, fmt.Errorf("experiment %s: %w", *config.ExperimentID, tracking.ErrNotFound)
	}

	runID := strings.ReplaceAll(uuid.NewString(), "-", "")
	startTime := t.now()

	runName := "run-" + startTime.Format("2006-01-02-15-04-05")
	if config.RunName != nil {
		runName = *config.RunName
	}

	tags := map[string]string{"mlflow.runName": runName}
	for k, v := range config.Tags {
		tags[k] = v
	}
	if config.Description != nil {
		tags["mlflow.note.content"] = *config.Description
	}

	run := &models.Run{
		RunID:        runID,
		ExperimentID: exp.ExperimentID,
		RunName:      runName,
		Status:       models.RunStatusRunning,
		ArtifactURI:  exp.ArtifactLocation + "/" + runID + "/artifacts",
		StartTime:    startTime,
		Params:       map[string]string{},
		Metrics:      map[string]float64{},
		Tags:         tags,
	}
	t.state.Runs[runID] = run
	t.state.RunOrder = append(t.state.RunOrder, runID)

	if err := t.persistLocked(); err != nil {
		return nil, err
	}

	return &models.RunInfo{
		RunID:        runID,
		ExperimentID: exp.ExperimentID,
		RunName:      runName,
		Status:       string(models.RunStatusRunning),
		StartTime:    startTime,
		Tags:         config.Tags,
		Description:  tags["mlflow.note.content"],
	}, nil
}

func (t *Tracker) UpdateRun(_ context.Context, runID string, status models.RunStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, err := t.openRunLocked(runID)
	if err != nil {
		return err
	}

	run.Status = status
	if status.IsTerminal() {
		end := t.now()
		run.EndTime = &end
	}
	return t.persistLocked()
}

func (t *Tracker) LogParam(_ context.Context, runID string, key string, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, err := t.openRunLocked(runID)
	if err != nil {
		return err
	}

	if old, ok := run.Params[key]; ok && old != value {
		return fmt.Errorf("failed to log parameter %s: changing value from %q to %q is not allowed", key, old, value)
	}
	run.Params[key] = value
	return t.persistLocked()
}

func (t *Tracker) LogMetric(_ context.Context, runID string, key string, value float64, _ *time.Time, _ *int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, err := t.openRunLocked(runID)
	if err != nil {
		return err
	}

	run.Metrics[key] = value
	return t.persistLocked()
}

func (t *Tracker) openRunLocked(runID string) (*models.Run, error) {
	run, ok := t.state.Runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, tracking.ErrNotFound)
	}
	if run.Status.IsTerminal() {
		return nil, fmt.Errorf("run %s: %w", runID, tracking.ErrRunClosed)
	}
	return run, nil
}

func (t *Tracker) LogArtifact(_ context.Context, runID string, artifactPath string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, err := t.openRunLocked(runID)
	if err != nil {
		return err
	}

	if t.dir != "" {
		return writeLocalArtifact(run.ArtifactURI, artifactPath, data)
	}

	if t.state.Artifacts[runID] == nil {
		t.state.Artifacts[runID] = map[string][]byte{}
	}
	t.state.Artifacts[runID][cleanArtifactPath(artifactPath)] = append([]byte(nil), data...)
	return nil
}

func (t *Tracker) OpenArtifact(_ context.Context, runID string, artifactPath string) (io.ReadCloser, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.state.Runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, tracking.ErrNotFound)
	}

	if t.dir != "" {
		f, err := os.Open(localArtifactPath(run.ArtifactURI, artifactPath))
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s of run %s: %w", artifactPath, runID, tracking.ErrNotFound)
		}
		return f, err
	}

	data, ok := t.state.Artifacts[runID][cleanArtifactPath(artifactPath)]
	if !ok {
		return nil, fmt.Errorf("artifact %s of run %s: %w", artifactPath, runID, tracking.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func cleanArtifactPath(p string) string {
	return strings.Trim(filepath.ToSlash(filepath.Clean("/"+p)), "/")
}

func localArtifactPath(artifactURI, artifactPath string) string {
	return filepath.Join(strings.TrimPrefix(artifactURI, "file://"), filepath.FromSlash(cleanArtifactPath(artifactPath)))
}

func writeLocalArtifact(artifactURI, artifactPath string, data []byte) error {
	localPath := localArtifactPath(artifactURI, artifactPath)

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", localPath, err)
	}
	return nil
}

func (t *Tracker) RegisterModel(_ context.Context, source string, name string) (*models.ModelVersion, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	version := &models.ModelVersion{
		Name:      name,
		Version:   strconv.Itoa(len(t.state.Versions[name]) + 1),
		Source:    source,
		Status:    "READY",
		CreatedAt: t.now(),
	}
	if runID, _, err := tracking.ParseRunURI(source); err == nil {
		version.RunID = runID
	}

	t.state.Versions[name] = append(t.state.Versions[name], version)
	if err := t.persistLocked(); err != nil {
		return nil, err
	}

	clone := *version
	return &clone, nil
}

func (t *Tracker) GetModelVersion(_ context.Context, name string, version string) (*models.ModelVersion, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, v := range t.state.Versions[name] {
		if v.Version == version {
			clone := *v
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("model %s version %s: %w", name, version, tracking.ErrNotFound)
}

// persistLocked writes the snapshot when the tracker is directory backed.
func (t *Tracker) persistLocked() error {
	if t.dir == "" {
		return nil
	}

	data, err := json.MarshalIndent(&t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker snapshot: %w", err)
	}

	tmp := filepath.Join(t.dir, snapshotFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write tracker snapshot: %w", err)
	}
	return os.Rename(tmp, filepath.Join(t.dir, snapshotFileName))
}

func cloneRun(run *models.Run) models.Run {
	clone := *run
	clone.Params = make(map[string]string, len(run.Params))
	for k, v := range run.Params {
		clone.Params[k] = v
	}
	clone.Metrics = make(map[string]float64, len(run.Metrics))
	for k, v := range run.Metrics {
		clone.Metrics[k] = v
	}
	clone.Tags = make(map[string]string, len(run.Tags))
	for k, v := range run.Tags {
		clone.Tags[k] = v
	}
	if run.EndTime != nil {
		end := *run.EndTime
		clone.EndTime = &end
	}
	return clone
}
