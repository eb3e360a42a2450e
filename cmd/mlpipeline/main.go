// Command mlpipeline runs one binary-classification training pipeline end to
// end and records the evaluation in the configured sinks.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/calt-laboratory/mlpipeline/classifier"
	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/pipeline"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/pkg/log"
	"github.com/calt-laboratory/mlpipeline/sink"
	"github.com/calt-laboratory/mlpipeline/storage"
)

// Pipeline variant names accepted by --pipeline.
const (
	pipelineEnsemble           = "ensemble"
	pipelineLogisticRegression = "logisticRegression"
	pipelineDeepLearning       = "deepLearning"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		l := log.Logger()
		l.Error().Err(err).Msg("pipeline run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mlpipeline",
		Short:         "Training pipelines for binary classification on the breast-cancer dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newAlgorithmsCmd())
	return root
}

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the supported algorithms",
		Run: func(cmd *cobra.Command, args []string) {
			for _, a := range classifier.Algorithms {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath    string
		pipelineName  string
		algorithmName string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one training pipeline",
		Long: "Run one training pipeline: fetch the raw dataset if absent, preprocess,\n" +
			"split, persist and mirror the artifacts, train the selected algorithm and\n" +
			"record the evaluation metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log.Setup(cfg.Logging.Level, cfg.Logging.JSON)

			algo, err := classifier.Parse(algorithmName)
			if err != nil {
				return err
			}
			return run(cmd, cfg, pipelineName, algo)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVarP(&pipelineName, "pipeline", "p", "",
		fmt.Sprintf("pipeline variant (%s)", strings.Join([]string{
			pipelineEnsemble, pipelineLogisticRegression, pipelineDeepLearning}, "|")))
	cmd.Flags().StringVarP(&algorithmName, "algorithm", "a", "", "algorithm to train")
	_ = cmd.MarkFlagRequired("pipeline")
	_ = cmd.MarkFlagRequired("algorithm")
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config, pipelineName string, algo classifier.Algorithm) error {
	ctx := cmd.Context()

	blob, err := storage.NewAzureBlobClient(cfg.Storage.ConnectionString)
	if err != nil {
		return err
	}
	bridge := storage.NewBridge(blob)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return errors.Wrap(err, "opening results database")
	}
	relational := sink.NewRelational(db)
	if err := relational.EnsureSchema(ctx); err != nil {
		return err
	}

	tracking := sink.NewTracking(
		sink.NewMLflowClient(cfg.Tracking.BaseURL, nil),
		cfg.Tracking.Experiment,
		cfg.Tracking.DatasetTag,
	)

	var p pipeline.Pipeline
	switch pipelineName {
	case pipelineEnsemble:
		p = pipeline.NewEnsemble(cfg, bridge, relational, tracking)
	case pipelineLogisticRegression:
		p = pipeline.NewLogistic(cfg, bridge, relational, tracking)
	case pipelineDeepLearning:
		p = pipeline.NewDeepLearning(cfg, bridge, relational, tracking)
	default:
		return errors.NewValidationError("pipeline", "unknown pipeline variant", pipelineName)
	}
	return p.Run(ctx, algo)
}
