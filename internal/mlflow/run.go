package mlflow

import (
	"context"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/mlops-pipeline/internal/models"
)

func (c *Client) CreateRun(ctx context.Context, config *models.RunConfig) (*models.RunInfo, error) {
	if config.ExperimentID == nil {
		return nil, fmt.Errorf("experiment ID must be provided")
	}
	experimentID := *config.ExperimentID

	runName := "run-" + time.Now().Format("2006-01-02-15-04-05")
	if config.RunName != nil {
		runName = *config.RunName
	}

	tags := make([]ml.RunTag, 0, len(config.Tags)+2)
	for key, value := range config.Tags {
		tags = append(tags, ml.RunTag{
			Key:   key,
			Value: value,
		})
	}
	tags = append(tags, ml.RunTag{
		Key:   "mlflow.runName",
		Value: runName,
	})

	var description string
	if config.Description != nil {
		description = *config.Description
		tags = append(tags, ml.RunTag{
			Key:   "mlflow.note.content",
			Value: description,
		})
	}

	startTime := time.Now()
	resp, err := c.client.Experiments.CreateRun(ctx, ml.CreateRun{
		ExperimentId: experimentID,
		RunName:      runName,
		StartTime:    startTime.UnixMilli(),
		Tags:         tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &models.RunInfo{
		RunID:        resp.Run.Info.RunId,
		ExperimentID: experimentID,
		RunName:      runName,
		Status:       string(models.RunStatusRunning),
		StartTime:    startTime,
		Tags:         config.Tags,
		Description:  description,
	}, nil
}

func (c *Client) UpdateRun(ctx context.Context, runID string, status models.RunStatus) error {
	var mlStatus ml.UpdateRunStatus
	switch status {
	case models.RunStatusRunning:
		mlStatus = ml.UpdateRunStatusRunning
	case models.RunStatusFinished:
		mlStatus = ml.UpdateRunStatusFinished
	case models.RunStatusFailed:
		mlStatus = ml.UpdateRunStatusFailed
	case models.RunStatusKilled:
		mlStatus = ml.UpdateRunStatusKilled
	default:
		return fmt.Errorf("unknown run status: %s", status)
	}

	updateRun := ml.UpdateRun{
		RunId:  runID,
		Status: mlStatus,
	}
	if status.IsTerminal() {
		updateRun.EndTime = time.Now().UnixMilli()
	}

	if _, err := c.client.Experiments.UpdateRun(ctx, updateRun); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	resp, err := c.client.Experiments.GetRun(ctx, ml.GetRunRequest{
		RunId: runID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", notFound(err))
	}

	run := toRun(*resp.Run)
	return &run, nil
}

func toRun(run ml.Run) models.Run {
	out := models.Run{
		RunID:        run.Info.RunId,
		ExperimentID: run.Info.ExperimentId,
		RunName:      run.Info.RunName,
		Status:       models.RunStatus(run.Info.Status),
		ArtifactURI:  run.Info.ArtifactUri,
		StartTime:    time.UnixMilli(run.Info.StartTime),
		Params:       make(map[string]string, len(run.Data.Params)),
		Metrics:      make(map[string]float64, len(run.Data.Metrics)),
		Tags:         make(map[string]string, len(run.Data.Tags)),
	}

	if run.Info.EndTime != 0 {
		endTime := time.UnixMilli(run.Info.EndTime)
		out.EndTime = &endTime
	}

	for _, p := range run.Data.Params {
		out.Params[p.Key] = p.Value
	}
	for _, m := range run.Data.Metrics {
		out.Metrics[m.Key] = m.Value
	}
	for _, tag := range run.Data.Tags {
		out.Tags[tag.Key] = tag.Value
	}

	if out.RunName == "" {
		out.RunName = out.Tags["mlflow.runName"]
	}
	return out
}
