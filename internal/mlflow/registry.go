package mlflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go/apierr"
	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

// RegisterModel creates the registered model if needed and adds a version pointing at source.
func (c *Client) RegisterModel(ctx context.Context, source string, name string) (*models.ModelVersion, error) {
	_, err := c.client.ModelRegistry.CreateModel(ctx, ml.CreateModelRequest{
		Name: name,
	})
	if err != nil && !errors.Is(err, apierr.ErrResourceAlreadyExists) {
		return nil, fmt.Errorf("failed to create registered model %s: %w", name, err)
	}

	request := ml.CreateModelVersionRequest{
		Name:   name,
		Source: source,
	}
	if runID, _, err := tracking.ParseRunURI(source); err == nil {
		request.RunId = runID
	}

	resp, err := c.client.ModelRegistry.CreateModelVersion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create model version of %s: %w", name, err)
	}

	mv := resp.ModelVersion
	logger.Infof("registered %s version %s from %s", name, mv.Version, source)

	return &models.ModelVersion{
		Name:      name,
		Version:   mv.Version,
		Source:    source,
		RunID:     request.RunId,
		Status:    string(mv.Status),
		CreatedAt: time.UnixMilli(mv.CreationTimestamp),
	}, nil
}

func (c *Client) GetModelVersion(ctx context.Context, name string, version string) (*models.ModelVersion, error) {
	resp, err := c.client.ModelRegistry.GetModelVersion(ctx, ml.GetModelVersionRequest{
		Name:    name,
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get model %s version %s: %w", name, version, notFound(err))
	}

	mv := resp.ModelVersion
	return &models.ModelVersion{
		Name:      mv.Name,
		Version:   mv.Version,
		Source:    mv.Source,
		RunID:     mv.RunId,
		Status:    string(mv.Status),
		CreatedAt: time.UnixMilli(mv.CreationTimestamp),
	}, nil
}
