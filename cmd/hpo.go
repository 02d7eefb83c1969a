package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/pipeline"
)

var hpoCmd = &cobra.Command{
	Use:   "hpo",
	Short: "Run the random forest hyperparameter search",
	Long:  "Sample random forest hyperparameters and log every trial with its validation rmse to the search experiment",
	Args:  cobra.NoArgs,
	RunE:  hpo,
}

func init() {
	rootCmd.AddCommand(hpoCmd)

	hpoCmd.Flags().String("data-path", "./output", "Location where the processed NYC taxi trip data was saved")
	hpoCmd.Flags().Int("trials", 15, "Number of parameter evaluations for the optimizer to explore")
	hpoCmd.Flags().Int64("seed", 42, "Random seed of the search")
}

func hpo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dataPath, _ := cmd.Flags().GetString("data-path")
	trials, _ := cmd.Flags().GetInt("trials")
	seed, _ := cmd.Flags().GetInt64("seed")

	splits, err := dataset.LoadSplits(dataPath)
	if err != nil {
		return err
	}

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}

	results, err := pipeline.HyperoptSearch(context.Background(), b, splits, pipeline.SearchConfig{
		Experiment: cfg.HPOExperiment,
		Trials:     trials,
		Seed:       seed,
		Space:      pipeline.DefaultSearchSpace,
	})
	if err != nil {
		return fmt.Errorf("hyperparameter search failed after %d trials: %w", len(results), err)
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.RMSE < best.RMSE {
			best = r
		}
	}

	fmt.Printf("Successfully logged %d trials to %s\n", len(results), cfg.HPOExperiment)
	fmt.Printf("  best run: %s (rmse=%.4f)\n", best.RunID, best.RMSE)
	return nil
}
