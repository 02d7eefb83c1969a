package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/imishinist/mlops-pipeline/internal/dataset"
	"github.com/imishinist/mlops-pipeline/internal/params"
	"github.com/imishinist/mlops-pipeline/internal/parser"
	"github.com/imishinist/mlops-pipeline/internal/pipeline"
	"github.com/imishinist/mlops-pipeline/internal/regressor"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Train a model and export it with its vectorizer",
	Long: `Fit a model on the training split and log it together with the fitted vectorizer
to a new run, optionally also writing model.json and dv.json to a local directory.`,
	Args: cobra.NoArgs,
	RunE: export,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("data-path", "./output", "Location where the processed NYC taxi trip data was saved")
	exportCmd.Flags().String("params-file", "", "Model parameters file (JSON/YAML), model_type selects the model")
	exportCmd.Flags().String("experiment", "nyc-taxi-experiment", "Experiment the exported run is logged to")
	exportCmd.Flags().String("output-dir", "", "Also write the model to this directory")
}

// exportSchema types the parameters of both model kinds.
func exportSchema() params.Schema {
	schema := params.Schema{
		regressor.ModelTypeParam: params.KindString,
		"learning_rate":          params.KindFloat,
		"epochs":                 params.KindInteger,
	}
	for k, v := range params.DefaultSchema {
		schema[k] = v
	}
	return schema
}

func export(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dataPath, _ := cmd.Flags().GetString("data-path")
	paramsFile, _ := cmd.Flags().GetString("params-file")
	experiment, _ := cmd.Flags().GetString("experiment")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	raw := map[string]string{regressor.ModelTypeParam: regressor.KindLinearRegression}
	if paramsFile != "" {
		fileParams, err := parser.ParseParamsFile(paramsFile)
		if err != nil {
			return fmt.Errorf("failed to parse parameters file: %w", err)
		}
		for k, v := range fileParams {
			raw[k] = v
		}
	}

	p, err := params.Normalize(raw, exportSchema())
	if err != nil {
		return err
	}
	if p, err = p.CoerceIntegers(pipeline.IntegerParams...); err != nil {
		return err
	}

	model, err := regressor.New(p.Map())
	if err != nil {
		return err
	}

	splits, err := dataset.LoadSplits(dataPath)
	if err != nil {
		return err
	}
	dv, err := dataset.LoadVectorizerFile(filepath.Join(dataPath, dataset.VectorizerFile))
	if err != nil {
		return err
	}

	if err := model.Fit(splits.Train); err != nil {
		return fmt.Errorf("failed to fit %s model: %w", model.Kind(), err)
	}
	rmse, err := regressor.Score(model, splits.Val)
	if err != nil {
		return err
	}

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}

	exporters := []pipeline.ExportFunc{pipeline.TrackingExporter(b, experiment)}
	if outputDir != "" {
		exporters = append(exporters, pipeline.LocalExporter(outputDir))
	}

	locations, err := pipeline.Export(context.Background(), &pipeline.Trained{
		Model:      model,
		Vectorizer: dv,
		Params:     p.Strings(),
		Metrics:    map[string]float64{pipeline.SearchMetric: rmse},
	}, exporters...)
	if err != nil {
		return fmt.Errorf("failed to export model: %w", err)
	}

	fmt.Printf("Successfully exported %s model (rmse=%.4f)\n", model.Kind(), rmse)
	for _, location := range locations {
		fmt.Printf("  %s\n", location)
	}
	return nil
}
