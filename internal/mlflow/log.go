package mlflow

import (
	"context"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
)

// LogParam records a run parameter. MLflow rejects changing a logged value.
func (c *Client) LogParam(ctx context.Context, runID string, key string, value string) error {
	if err := c.client.Experiments.LogParam(ctx, ml.LogParam{RunId: runID, Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to log param %s of run %s: %w", key, runID, notFound(err))
	}
	return nil
}

// LogMetric appends a metric value, stamped now and at step 0 unless given.
func (c *Client) LogMetric(ctx context.Context, runID string, key string, value float64, timestamp *time.Time, step *int64) error {
	req := ml.LogMetric{
		RunId:     runID,
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
	}
	if timestamp != nil {
		req.Timestamp = timestamp.UnixMilli()
	}
	if step != nil {
		req.Step = *step
	}

	if err := c.client.Experiments.LogMetric(ctx, req); err != nil {
		return fmt.Errorf("failed to log metric %s of run %s: %w", key, runID, notFound(err))
	}
	return nil
}
