package commands

import (
	"fmt"

	"github.com/bryanmaina/wikipedia-scraper/internal/app"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bioCmd)
}

var bioCmd = &cobra.Command{
	Use:   "bio <wikipedia-url>",
	Short: "Scrape and normalize the biography paragraph of a single Wikipedia page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper := app.NewScraper(cfg, logger)

		text, err := scraper.Article(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}
