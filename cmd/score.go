package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/models"
	"github.com/imishinist/mlops-pipeline/internal/serving"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Predict the trip durations of a monthly trip record file",
	Long:  "Score every trip of yellow_tripdata_<year>-<month>.csv and print the mean predicted duration",
	Args:  cobra.NoArgs,
	RunE:  score,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Int("year", 0, "Input year (required)")
	scoreCmd.Flags().Int("month", 0, "Input month (required)")
	scoreCmd.Flags().String("data-dir", ".", "Directory holding the trip record files")
	scoreCmd.Flags().String("model-uri", "./model", "Model to score with: models:/<name>/<version>, runs:/<run_id>/model or a local directory")
	scoreCmd.Flags().String("vectorizer", "", "Vectorizer file, defaults to the one stored with the model")
	scoreCmd.Flags().String("output", "", "Write ride_id,predicted_duration rows to this CSV file")
	scoreCmd.MarkFlagRequired("year")
	scoreCmd.MarkFlagRequired("month")
}

func score(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	modelURI, _ := cmd.Flags().GetString("model-uri")
	vectorizer, _ := cmd.Flags().GetString("vectorizer")
	output, _ := cmd.Flags().GetString("output")

	if month < 1 || month > 12 {
		return fmt.Errorf("invalid --month: %d", month)
	}

	loader, err := newLoader(modelURI)
	if err != nil {
		return err
	}
	model, err := loader.Load(context.Background(), modelURI, vectorizer)
	if err != nil {
		return err
	}

	records, err := dataset.ReadTripFile(filepath.Join(dataDir, dataset.TripFileName(year, month)))
	if err != nil {
		return err
	}
	features, _ := dataset.FeaturizeTrips(records)
	if len(features) == 0 {
		return fmt.Errorf("no trips to score: %w", dataset.ErrEmptyGrid)
	}

	preds, err := model.PredictBatch(features)
	if err != nil {
		return fmt.Errorf("failed to predict: %w", err)
	}

	mean, err := stats.Mean(preds)
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeScores(output, year, month, preds); err != nil {
			return err
		}
	}

	fmt.Printf("Mean trip duration: %.4f\n", mean)
	return nil
}

func writeScores(path string, year, month int, preds []float64) error {
	rows := make([]*models.ScoredRide, len(preds))
	for i, p := range preds {
		rows[i] = &models.ScoredRide{
			RideID:            fmt.Sprintf("%04d/%02d_%d", year, month, i),
			PredictedDuration: p,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}
	return nil
}

// newLoader only connects to the tracker when the model URI needs it.
func newLoader(modelURI string) (*serving.Loader, error) {
	if !isTrackedURI(modelURI) {
		return serving.NewLoader(nil, nil), nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return serving.NewLoader(b, b), nil
}
