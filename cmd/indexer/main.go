// Package main is the entry point of the offline document indexer.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qanoon-go/internal/config"
	"qanoon-go/internal/pipeline"
	"qanoon-go/pkg/log"
	"qanoon-go/pkg/pdfext"
	"qanoon-go/pkg/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Builds the chunk store for the legal consultation service",
	Long: `indexer extracts text from the raw legal document corpus, splits it
into overlapping chunks and writes the JSON chunk store the
consultation service loads at startup.`,
	SilenceUsage: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract, chunk and write the chunk store artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init(configPath)
		cfg := config.Conf

		log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
		defer log.Sync()

		ctx := cmd.Context()

		// Optionally pull the corpus from object storage first.
		if cfg.Indexer.MinIO.Enabled {
			storage.InitMinIO(cfg.Indexer.MinIO)
			pulled, err := storage.PullDocuments(ctx, cfg.Indexer.MinIO, cfg.Indexer.RawDir)
			if err != nil {
				return fmt.Errorf("failed to pull documents from object storage: %w", err)
			}
			log.Infof("[Indexer] pulled %d documents from bucket '%s'", pulled, cfg.Indexer.MinIO.BucketName)
		}

		processor := pipeline.NewProcessor(cfg.Indexer, pdfext.NewExtractor())
		stats, err := processor.Run(ctx)
		if err != nil {
			return err
		}

		log.Infof("[Indexer] done: %d documents, %d chunks, %d sources skipped, %d pages failed",
			stats.Documents, stats.Chunks, stats.SkippedFiles, stats.FailedPages)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(buildCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
