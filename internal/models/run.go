package models

import "time"

type RunConfig struct {
	ExperimentID *string           `json:"experiment_id,omitempty"`
	RunName      *string           `json:"run_name,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Description  *string           `json:"description,omitempty"`
}

type RunInfo struct {
	RunID        string            `json:"run_id"`
	ExperimentID string            `json:"experiment_id"`
	RunName      string            `json:"run_name"`
	Status       string            `json:"status"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Description  string            `json:"description,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
	RunStatusFailed   RunStatus = "FAILED"
	RunStatusKilled   RunStatus = "KILLED"
)

// IsTerminal reports whether no more params or metrics may be appended.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusFinished || s == RunStatusFailed || s == RunStatusKilled
}

// Run is a tracked training or evaluation attempt together with its data.
type Run struct {
	RunID        string             `json:"run_id"`
	ExperimentID string             `json:"experiment_id"`
	RunName      string             `json:"run_name,omitempty"`
	Status       RunStatus          `json:"status"`
	ArtifactURI  string             `json:"artifact_uri,omitempty"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      *time.Time         `json:"end_time,omitempty"`
	Params       map[string]string  `json:"params"`
	Metrics      map[string]float64 `json:"metrics"`
	Tags         map[string]string  `json:"tags,omitempty"`
}

// Metric returns the latest value of the named metric.
func (r *Run) Metric(key string) (float64, bool) {
	v, ok := r.Metrics[key]
	return v, ok
}

type Experiment struct {
	ExperimentID     string `json:"experiment_id"`
	Name             string `json:"name"`
	ArtifactLocation string `json:"artifact_location,omitempty"`
}

// RunFilter narrows a run search. Zero values match everything.
type RunFilter struct {
	Status RunStatus         `json:"status,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// OrderBy sorts runs by a metric.
type OrderBy struct {
	Metric    string `json:"metric"`
	Ascending bool   `json:"ascending"`
}

type RunQuery struct {
	ExperimentName string    `json:"experiment_name"`
	Filter         RunFilter `json:"filter"`
	MaxResults     int       `json:"max_results"`
	OrderBy        *OrderBy  `json:"order_by,omitempty"`
}
