package mlflow

import (
	"fmt"
	"net/http"
	"time"

	"github.com/databricks/databricks-sdk-go"

	"github.com/imishinist/mlops-pipeline/internal/config"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

var (
	_ tracking.Tracker  = (*Client)(nil)
	_ tracking.Registry = (*Client)(nil)
)

type Client struct {
	client     *databricks.WorkspaceClient
	config     *config.Config
	httpClient *http.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var databricksConfig *databricks.Config

	if cfg.IsDatabricks() {
		databricksConfig = &databricks.Config{}

		if cfg.TrackingURI == "databricks" {
			if cfg.DatabricksHost != "" {
				databricksConfig.Host = cfg.DatabricksHost
			}
		} else if profile := cfg.GetDatabricksProfile(); profile != "" {
			databricksConfig.Profile = profile
		} else {
			databricksConfig.Host = cfg.TrackingURI
		}

		// token overrides the profile
		if cfg.DatabricksToken != "" {
			databricksConfig.Token = cfg.DatabricksToken
		}

		if databricksConfig.Host == "" && databricksConfig.Profile == "" {
			return nil, fmt.Errorf("Databricks host or profile is required when using Databricks MLflow. Set DATABRICKS_HOST environment variable, use a full Databricks URL as tracking URI, or specify a profile with databricks://{profile}")
		}
	} else {
		databricksConfig = &databricks.Config{
			Host: cfg.TrackingURI,
			// A plain MLflow server ignores the token but the SDK refuses to start without credentials.
			Token: "dummy-token-for-regular-mlflow",
		}
	}

	client, err := databricks.NewWorkspaceClient(databricksConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create MLflow client: %w", err)
	}

	return &Client{
		client:     client,
		config:     cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}
