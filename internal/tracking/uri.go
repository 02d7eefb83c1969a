package tracking

import (
	"fmt"
	"strings"
)

const (
	runsScheme   = "runs:/"
	modelsScheme = "models:/"

	// ModelArtifactPath is the artifact directory a trained model is logged under.
	ModelArtifactPath = "model"

	// ModelFileName is the serialized model inside ModelArtifactPath.
	ModelFileName = "model.json"
)

// RunURI formats a runs:/<run_id>/<path> reference.
func RunURI(runID, artifactPath string) string {
	return fmt.Sprintf("%s%s/%s", runsScheme, runID, strings.TrimPrefix(artifactPath, "/"))
}

// ParseRunURI splits a runs:/<run_id>/<path> reference.
func ParseRunURI(uri string) (runID string, artifactPath string, err error) {
	if !strings.HasPrefix(uri, runsScheme) {
		return "", "", fmt.Errorf("invalid runs URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimLeft(strings.TrimPrefix(uri, runsScheme), "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid runs URI: %s", uri)
	}
	return parts[0], parts[1], nil
}

// IsRunURI reports whether uri uses the runs:/ scheme.
func IsRunURI(uri string) bool {
	return strings.HasPrefix(uri, runsScheme)
}

// ParseModelURI splits a models:/<name>/<version> reference.
func ParseModelURI(uri string) (name string, version string, err error) {
	if !strings.HasPrefix(uri, modelsScheme) {
		return "", "", fmt.Errorf("invalid models URI: %s", uri)
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(uri, modelsScheme), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid models URI: %s", uri)
	}
	return parts[0], parts[1], nil
}

// IsModelURI reports whether uri uses the models:/ scheme.
func IsModelURI(uri string) bool {
	return strings.HasPrefix(uri, modelsScheme)
}

// ModelFile returns the artifact path of the serialized model file.
func ModelFile() string {
	return ModelArtifactPath + "/" + ModelFileName
}
