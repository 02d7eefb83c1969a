package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		TrackingURI:    "http://localhost:5000",
		HPOExperiment:  "random-forest-hyperopt",
		ExperimentName: "random-forest-best-models",
		ModelName:      "best_rf_model",
		LogLevel:       "info",
		Concurrency:    1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		expect func(t *testing.T, err error)
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
			expect: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:   "missing tracking uri",
			mutate: func(c *Config) { c.TrackingURI = "" },
			expect: func(t *testing.T, err error) {
				assert.EqualError(t, err, "tracking URI is required")
			},
		},
		{
			name:   "missing model name",
			mutate: func(c *Config) { c.ModelName = "" },
			expect: func(t *testing.T, err error) {
				assert.EqualError(t, err, "model name is required")
			},
		},
		{
			name:   "invalid log level",
			mutate: func(c *Config) { c.LogLevel = "verbose" },
			expect: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "invalid log level")
			},
		},
		{
			name:   "zero concurrency",
			mutate: func(c *Config) { c.Concurrency = 0 },
			expect: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "invalid concurrency")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			tc.expect(t, c.Validate())
		})
	}
}

func TestConfig_TrackingKinds(t *testing.T) {
	tests := []struct {
		uri        string
		databricks bool
		memory     bool
		local      bool
		profile    string
	}{
		{uri: "http://localhost:5000"},
		{uri: "databricks", databricks: true},
		{uri: "databricks://dev/extra", databricks: true, profile: "dev"},
		{uri: "https://adb-1.azuredatabricks.net/path", databricks: true},
		{uri: "https://mlflow.example.com"},
		{uri: "memory://", memory: true},
		{uri: "file:///tmp/mlruns", local: true},
	}

	for _, tc := range tests {
		t.Run(tc.uri, func(t *testing.T) {
			c := &Config{TrackingURI: tc.uri}
			assert := assert.New(t)
			assert.Equal(tc.databricks, c.IsDatabricks())
			assert.Equal(tc.memory, c.IsInMemory())
			assert.Equal(tc.local, c.IsLocal())
			assert.Equal(tc.profile, c.GetDatabricksProfile())
		})
	}

	assert.Equal(t, "/tmp/mlruns", (&Config{TrackingURI: "file:///tmp/mlruns"}).LocalDir())
}
