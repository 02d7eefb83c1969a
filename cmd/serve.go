package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imishinist/mlops-pipeline/internal/serving"
	"github.com/imishinist/mlops-pipeline/internal/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve trip duration predictions over HTTP",
	Long:  "Load a model and its vectorizer and serve POST /predict, GET /healthy and GET /metrics",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("model-uri", "", "Model to serve: models:/<name>/<version>, runs:/<run_id>/model or a local directory (required)")
	serveCmd.Flags().String("vectorizer", "", "Vectorizer file, defaults to the one stored with the model")
	serveCmd.Flags().String("addr", ":9696", "Listen address")
	serveCmd.MarkFlagRequired("model-uri")
}

func isTrackedURI(uri string) bool {
	return tracking.IsModelURI(uri) || tracking.IsRunURI(uri)
}

func serve(cmd *cobra.Command, args []string) error {
	modelURI, _ := cmd.Flags().GetString("model-uri")
	vectorizer, _ := cmd.Flags().GetString("vectorizer")
	addr, _ := cmd.Flags().GetString("addr")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := newLoader(modelURI)
	if err != nil {
		return err
	}
	model, err := loader.Load(ctx, modelURI, vectorizer)
	if err != nil {
		return err
	}

	verbose := viper.GetString("log_level") == "debug"
	return serving.NewServer(addr, model, verbose).Serve(ctx)
}
