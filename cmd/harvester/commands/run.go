package commands

import (
	"fmt"

	"github.com/bryanmaina/wikipedia-scraper/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runConcurrency int
	runOutput      string
)

func init() {
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Biographies scraped at once. Overrides HARVEST_CONCURRENCY.")
	runCmd.Flags().StringVar(&runOutput, "output", "", "Consolidated JSON file. Overrides OUTPUT_FILE.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--concurrency N] [--output path/to/leaders.json]",
	Short: "Fetch every roster, scrape missing biographies and write the consolidated file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("concurrency") {
			cfg.Harvest.Concurrency = runConcurrency
		}
		if runOutput != "" {
			cfg.Harvest.OutputFile = runOutput
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger.Info("Leaders harvest starting",
			zap.String("api", cfg.API.BaseURL),
			zap.String("log_level", cfg.Logging.Level),
		)

		container, err := app.Build(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Error("Failed to assemble harvester", zap.Error(err))
			return err
		}
		defer container.Close()

		stats, err := container.Harvester.Run(cmd.Context())
		if err != nil {
			logger.Error("Harvest failed", zap.Error(err))
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d leaders from %d countries, %d with a biography, written to %s\n",
			stats.Leaders, stats.Countries, stats.WithBiography, cfg.Harvest.OutputFile)
		return nil
	},
}
