package mlflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/databricks/databricks-sdk-go/apierr"
	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

func (c *Client) GetExperimentByName(ctx context.Context, name string) (*models.Experiment, error) {
	resp, err := c.client.Experiments.GetByName(ctx, ml.GetByNameRequest{
		ExperimentName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment %q: %w", name, notFound(err))
	}
	if resp.Experiment == nil {
		return nil, fmt.Errorf("experiment %q: %w", name, tracking.ErrNotFound)
	}

	return &models.Experiment{
		ExperimentID:     resp.Experiment.ExperimentId,
		Name:             resp.Experiment.Name,
		ArtifactLocation: resp.Experiment.ArtifactLocation,
	}, nil
}

func (c *Client) EnsureExperiment(ctx context.Context, name string) (string, error) {
	exp, err := c.GetExperimentByName(ctx, name)
	if err == nil {
		return exp.ExperimentID, nil
	}
	if !errors.Is(err, tracking.ErrNotFound) {
		return "", err
	}

	logger.Infof("creating experiment %q", name)
	resp, err := c.client.Experiments.CreateExperiment(ctx, ml.CreateExperiment{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create experiment %q: %w", name, err)
	}
	return resp.ExperimentId, nil
}

func (c *Client) FindRuns(ctx context.Context, query models.RunQuery) ([]models.Run, error) {
	if query.MaxResults < 1 {
		return nil, fmt.Errorf("%w: got %d", tracking.ErrInvalidMaxResults, query.MaxResults)
	}

	exp, err := c.GetExperimentByName(ctx, query.ExperimentName)
	if err != nil {
		return nil, err
	}

	request := ml.SearchRuns{
		ExperimentIds: []string{exp.ExperimentID},
		Filter:        renderFilter(query.Filter),
		MaxResults:    query.MaxResults,
		RunViewType:   ml.ViewTypeActiveOnly,
	}
	if query.OrderBy != nil {
		request.OrderBy = []string{renderOrderBy(*query.OrderBy)}
	}

	logger.Debugf("searching runs in experiment %s filter=%q order_by=%v", exp.ExperimentID, request.Filter, request.OrderBy)

	runs := make([]models.Run, 0)
	iter := c.client.Experiments.SearchRuns(ctx, request)
	for len(runs) < query.MaxResults && iter.HasNext(ctx) {
		run, err := iter.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to search runs: %w", err)
		}
		runs = append(runs, toRun(run))
	}

	return runs, nil
}

// renderFilter turns a RunFilter into an MLflow search expression.
func renderFilter(filter models.RunFilter) string {
	clauses := make([]string, 0, len(filter.Tags)+1)
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("attributes.status = '%s'", filter.Status))
	}

	keys := make([]string, 0, len(filter.Tags))
	for k := range filter.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		clauses = append(clauses, fmt.Sprintf("tags.`%s` = '%s'", k, quote(filter.Tags[k])))
	}
	return strings.Join(clauses, " AND ")
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func renderOrderBy(order models.OrderBy) string {
	direction := "DESC"
	if order.Ascending {
		direction = "ASC"
	}
	return fmt.Sprintf("metrics.`%s` %s", order.Metric, direction)
}

// notFound maps the server's missing-resource errors onto tracking.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, apierr.ErrResourceDoesNotExist) || errors.Is(err, apierr.ErrNotFound) {
		return fmt.Errorf("%w: %v", tracking.ErrNotFound, err)
	}
	return err
}
