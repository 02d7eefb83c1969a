package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

const mlflowArtifactsScheme = "mlflow-artifacts:"

// LogArtifact stores data under artifactPath in the run's artifact root.
func (c *Client) LogArtifact(ctx context.Context, runID string, artifactPath string, data []byte) error {
	artifactURI, err := c.getArtifactURI(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get artifact URI: %w", err)
	}

	switch {
	case strings.HasPrefix(artifactURI, mlflowArtifactsScheme):
		return c.uploadToMLflowArtifacts(ctx, artifactURI, artifactPath, data)
	case isLocalURI(artifactURI):
		return c.uploadToLocalFS(artifactURI, artifactPath, data)
	default:
		return fmt.Errorf("unsupported artifact URI scheme: %s", artifactURI)
	}
}

// OpenArtifact streams an artifact previously logged to the run.
func (c *Client) OpenArtifact(ctx context.Context, runID string, artifactPath string) (io.ReadCloser, error) {
	artifactURI, err := c.getArtifactURI(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact URI: %w", err)
	}

	switch {
	case strings.HasPrefix(artifactURI, mlflowArtifactsScheme):
		return c.downloadFromMLflowArtifacts(ctx, artifactURI, artifactPath)
	case isLocalURI(artifactURI):
		f, err := os.Open(localArtifactPath(artifactURI, artifactPath))
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s of run %s: %w", artifactPath, runID, tracking.ErrNotFound)
		}
		return f, err
	default:
		return nil, fmt.Errorf("unsupported artifact URI scheme: %s", artifactURI)
	}
}

func isLocalURI(uri string) bool {
	return strings.HasPrefix(uri, "file://") || strings.HasPrefix(uri, "/")
}

// getArtifactURI retrieves the artifact URI for a given run
func (c *Client) getArtifactURI(ctx context.Context, runID string) (string, error) {
	if c.client != nil {
		resp, err := c.client.Experiments.GetRun(ctx, ml.GetRunRequest{
			RunId: runID,
		})
		if err != nil {
			return "", fmt.Errorf("failed to get run: %w", notFound(err))
		}

		if resp.Run.Info.ArtifactUri == "" {
			return "", fmt.Errorf("artifact URI not found for run %s", runID)
		}

		return resp.Run.Info.ArtifactUri, nil
	}

	return c.getArtifactURIFromHTTP(ctx, runID)
}

// getArtifactURIFromHTTP asks the tracking server's REST API directly.
func (c *Client) getArtifactURIFromHTTP(ctx context.Context, runID string) (string, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/runs/get?run_id=%s", c.baseURL(), runID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("run %s: %w", runID, tracking.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get run request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var runResponse struct {
		Run struct {
			Info struct {
				ArtifactURI string `json:"artifact_uri"`
			} `json:"info"`
		} `json:"run"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&runResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if runResponse.Run.Info.ArtifactURI == "" {
		return "", fmt.Errorf("artifact URI not found for run %s", runID)
	}

	return runResponse.Run.Info.ArtifactURI, nil
}

func (c *Client) baseURL() string {
	return strings.TrimSuffix(c.config.TrackingURI, "/")
}

// artifactURL builds /api/2.0/mlflow-artifacts/artifacts/{experiment_id}/{run_id}/artifacts/{artifact_path}
func (c *Client) artifactURL(artifactURI, artifactPath string) (string, error) {
	experimentID, runID, err := extractIDsFromArtifactURI(artifactURI)
	if err != nil {
		return "", fmt.Errorf("failed to extract IDs from artifact URI: %w", err)
	}
	return fmt.Sprintf("%s/api/2.0/mlflow-artifacts/artifacts/%s/%s/artifacts/%s",
		c.baseURL(), experimentID, runID, strings.TrimPrefix(artifactPath, "/")), nil
}

func (c *Client) uploadToMLflowArtifacts(ctx context.Context, artifactURI, artifactPath string, data []byte) error {
	url, err := c.artifactURL(artifactURI, artifactPath)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/octet-stream")
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to MLflow Artifacts Service: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccessStatusCode(resp.StatusCode) {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("MLflow Artifacts Service upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func (c *Client) downloadFromMLflowArtifacts(ctx context.Context, artifactURI, artifactPath string) (io.ReadCloser, error) {
	url, err := c.artifactURL(artifactURI, artifactPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download from MLflow Artifacts Service: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("artifact %s: %w", artifactPath, tracking.ErrNotFound)
	}
	if !isSuccessStatusCode(resp.StatusCode) {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("MLflow Artifacts Service download failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return resp.Body, nil
}

func localArtifactPath(artifactURI, artifactPath string) string {
	return filepath.Join(strings.TrimPrefix(artifactURI, "file://"), filepath.FromSlash(artifactPath))
}

func (c *Client) uploadToLocalFS(artifactURI, artifactPath string, data []byte) error {
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

// extractIDsFromArtifactURI extracts experiment ID and run ID from mlflow-artifacts URI
func extractIDsFromArtifactURI(artifactURI string) (string, string, error) {
	// mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts
	parts := strings.Split(strings.TrimPrefix(artifactURI, mlflowArtifactsScheme), "/")

	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid mlflow-artifacts URI format: %s", artifactURI)
	}

	return parts[0], parts[1], nil
}

// addAuthHeaders adds appropriate authentication headers to the request
func (c *Client) addAuthHeaders(req *http.Request) {
	if !c.config.IsDatabricks() {
		return
	}

	if c.client != nil && c.client.Config != nil && c.client.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.client.Config.Token)
	} else if c.config.DatabricksToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.DatabricksToken)
	}
}

func isSuccessStatusCode(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
