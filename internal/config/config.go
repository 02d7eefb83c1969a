package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

const (
	// MemoryTrackingURI keeps runs and registered models in process memory.
	MemoryTrackingURI = "memory://"

	// FileTrackingPrefix stores runs and artifacts under a local directory.
	FileTrackingPrefix = "file://"
)

// Valid configuration values
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

type Config struct {
	TrackingURI     string
	HPOExperiment   string
	ExperimentName  string
	ModelName       string
	LogLevel        string
	Concurrency     int
	DatabricksHost  string
	DatabricksToken string
}

func New() *Config {
	return &Config{
		TrackingURI:     viper.GetString("tracking_uri"),
		HPOExperiment:   viper.GetString("hpo_experiment"),
		ExperimentName:  viper.GetString("experiment_name"),
		ModelName:       viper.GetString("model_name"),
		LogLevel:        viper.GetString("log_level"),
		Concurrency:     viper.GetInt("concurrency"),
		DatabricksHost:  viper.GetString("databricks_host"),
		DatabricksToken: viper.GetString("databricks_token"),
	}
}

func (c *Config) Validate() error {
	if c.TrackingURI == "" {
		return fmt.Errorf("tracking URI is required")
	}

	if c.HPOExperiment == "" {
		return fmt.Errorf("hyperparameter search experiment name is required")
	}

	if c.ExperimentName == "" {
		return fmt.Errorf("experiment name is required")
	}

	if c.ModelName == "" {
		return fmt.Errorf("model name is required")
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be >= 1)", c.Concurrency)
	}

	return nil
}

// IsInMemory reports whether runs live only for the lifetime of the process.
func (c *Config) IsInMemory() bool {
	return c.TrackingURI == MemoryTrackingURI
}

// IsLocal reports whether runs are persisted in a local directory.
func (c *Config) IsLocal() bool {
	return strings.HasPrefix(c.TrackingURI, FileTrackingPrefix)
}

// LocalDir returns the directory of a file:// tracking URI.
func (c *Config) LocalDir() string {
	return strings.TrimPrefix(c.TrackingURI, FileTrackingPrefix)
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	// Check for databricks:// protocol
	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	// Check for Databricks URLs
	if strings.HasPrefix(c.TrackingURI, "https://") {
		host := c.extractHostFromURL(c.TrackingURI)
		return c.isDatabricksHost(host)
	}

	return false
}

// extractHostFromURL extracts the hostname from a URL
func (c *Config) extractHostFromURL(url string) string {
	host := strings.TrimPrefix(url, "https://")
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func (c *Config) isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// GetDatabricksProfile extracts the profile name from databricks://{profile} URI
func (c *Config) GetDatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
