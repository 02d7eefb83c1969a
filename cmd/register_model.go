package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/params"
	"github.com/imishinist/mlops-pipeline/internal/parser"
	"github.com/imishinist/mlops-pipeline/internal/pipeline"
)

var registerModelCmd = &cobra.Command{
	Use:   "register-model",
	Short: "Promote the best hyperparameter search candidate",
	Long: `Retrain the top-N runs of the hyperparameter search experiment, log each evaluation
to the best models experiment and register the selected run as a new model version.`,
	Args: cobra.NoArgs,
	RunE: registerModel,
}

func init() {
	rootCmd.AddCommand(registerModelCmd)

	registerModelCmd.Flags().String("data-path", "./output", "Location where the processed NYC taxi trip data was saved")
	registerModelCmd.Flags().Int("top-n", 5, "Number of top models that need to be evaluated to decide which one to promote")
	registerModelCmd.Flags().String("schema", "", "Parameter schema file (JSON/YAML), defaults to the random forest schema")
	registerModelCmd.Flags().Bool("scope-to-round", false, "Select only among the runs evaluated by this promotion")
}

func registerModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dataPath, _ := cmd.Flags().GetString("data-path")
	topN, _ := cmd.Flags().GetInt("top-n")
	schemaFile, _ := cmd.Flags().GetString("schema")
	scopeToRound, _ := cmd.Flags().GetBool("scope-to-round")

	if topN < 1 {
		return fmt.Errorf("invalid --top-n: %d (must be >= 1)", topN)
	}

	schema := params.DefaultSchema
	if schemaFile != "" {
		types, err := parser.ParseSchemaFile(schemaFile)
		if err != nil {
			return fmt.Errorf("failed to parse schema file: %w", err)
		}
		if schema, err = params.NewSchema(types); err != nil {
			return err
		}
	}

	splits, err := dataset.LoadSplits(dataPath)
	if err != nil {
		return err
	}

	dv, err := dataset.LoadVectorizerFile(filepath.Join(dataPath, dataset.VectorizerFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Warnf("no vectorizer in %s, registered models need --vectorizer to be served", dataPath)
		dv = nil
	}

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}

	promoter := pipeline.NewPromoter(b, b, pipeline.PromoterConfig{
		HPOExperiment: cfg.HPOExperiment,
		Experiment:    cfg.ExperimentName,
		ModelName:     cfg.ModelName,
		TopN:          topN,
		Concurrency:   cfg.Concurrency,
		Schema:        schema,
		Vectorizer:    dv,
		ScopeToRound:  scopeToRound,
	})

	result, err := promoter.Run(context.Background(), splits)
	if err != nil {
		return fmt.Errorf("promotion %s failed: %w", promoter.Round(), err)
	}
	if result.Failures != nil {
		fmt.Printf("%d of %d candidates failed:\n%v\n", result.Candidates-len(result.Evaluations), result.Candidates, result.Failures)
	}

	mv := result.ModelVersion
	fmt.Printf("Successfully registered model %s version %s\n", mv.Name, mv.Version)
	fmt.Printf("  Source: %s\n", mv.Source)
	fmt.Printf("  Run ID: %s\n", mv.RunID)
	return nil
}
