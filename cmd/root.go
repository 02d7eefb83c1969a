package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/imishinist/mlops-pipeline/internal/config"
	"github.com/imishinist/mlops-pipeline/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mlops",
	Short: "Taxi trip duration model lifecycle",
	Long: `A command line tool for the taxi trip duration model lifecycle.
Prepares datasets, searches hyperparameters, promotes the best candidate into the
MLflow model registry and serves predictions from a registered model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.SetLevel(viper.GetString("log_level"))
	},
}

func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

// normalizeFlagName accepts snake_case spellings such as --top_n for every kebab-case flag.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking URI, memory:// or file://<dir> (overrides MLFLOW_TRACKING_URI)")
	rootCmd.PersistentFlags().String("hpo-experiment", "", "Hyperparameter search experiment (overrides MLFLOW_HPO_EXPERIMENT)")
	rootCmd.PersistentFlags().String("experiment-name", "", "Experiment evaluated candidates are logged to (overrides MLFLOW_EXPERIMENT_NAME)")
	rootCmd.PersistentFlags().String("model-name", "", "Registered model name (overrides MLFLOW_MODEL_NAME)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Number of candidates evaluated at once")
	viper.BindPFlag("tracking_uri", rootCmd.PersistentFlags().Lookup("tracking-uri"))
	viper.BindPFlag("hpo_experiment", rootCmd.PersistentFlags().Lookup("hpo-experiment"))
	viper.BindPFlag("experiment_name", rootCmd.PersistentFlags().Lookup("experiment-name"))
	viper.BindPFlag("model_name", rootCmd.PersistentFlags().Lookup("model-name"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		checkError(viper.ReadInConfig())
	}

	// Environment variables
	viper.SetEnvPrefix("MLFLOW")
	viper.AutomaticEnv()

	// Also bind Databricks environment variables
	viper.BindEnv("databricks_host", "DATABRICKS_HOST")
	viper.BindEnv("databricks_token", "DATABRICKS_TOKEN")

	// Set defaults
	viper.SetDefault("tracking_uri", "http://localhost:5000")
	viper.SetDefault("hpo_experiment", "random-forest-hyperopt")
	viper.SetDefault("experiment_name", "random-forest-best-models")
	viper.SetDefault("model_name", "best_rf_model")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("concurrency", 1)
}

// loadConfig reads the merged flag, env, file and default settings.
func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
