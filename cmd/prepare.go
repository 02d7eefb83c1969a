package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/models"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the train/val/test splits from trip record files",
	Long: `Read three trip record CSV files, keep trips lasting 1 to 60 minutes, fit the
vectorizer on the training trips and write train.csv, val.csv, test.csv and dv.json.`,
	Args: cobra.NoArgs,
	RunE: prepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().String("train", "", "Training trip record file (required)")
	prepareCmd.Flags().String("val", "", "Validation trip record file (required)")
	prepareCmd.Flags().String("test", "", "Test trip record file (required)")
	prepareCmd.Flags().String("dest-path", "./output", "Location where the resulting files will be saved")
	prepareCmd.MarkFlagRequired("train")
	prepareCmd.MarkFlagRequired("val")
	prepareCmd.MarkFlagRequired("test")
}

func prepare(cmd *cobra.Command, args []string) error {
	destPath, _ := cmd.Flags().GetString("dest-path")

	var trips [3][]*models.TripRecord
	for i, name := range []string{"train", "val", "test"} {
		path, _ := cmd.Flags().GetString(name)
		records, err := dataset.ReadTripFile(path)
		if err != nil {
			return err
		}
		trips[i] = records
	}

	splits, dv, err := dataset.Prepare(trips[0], trips[1], trips[2])
	if err != nil {
		return err
	}

	if err := dataset.WriteSplits(destPath, splits); err != nil {
		return err
	}
	if err := dv.SaveFile(filepath.Join(destPath, dataset.VectorizerFile)); err != nil {
		return err
	}

	fmt.Printf("Successfully prepared splits in %s\n", destPath)
	fmt.Printf("  train: %d, val: %d, test: %d rows\n", dataset.Rows(splits.Train), dataset.Rows(splits.Val), dataset.Rows(splits.Test))
	fmt.Printf("  features: %d\n", len(dv.FeatureNames))
	return nil
}
