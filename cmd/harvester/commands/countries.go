package commands

import (
	"fmt"

	"github.com/bryanmaina/wikipedia-scraper/internal/app"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(countriesCmd)
}

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "Print the country codes known to the leaders API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := app.NewAPIClient(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		countries, err := client.Countries(cmd.Context())
		if err != nil {
			return err
		}
		for _, country := range countries {
			fmt.Fprintln(cmd.OutOrStdout(), country)
		}
		return nil
	},
}
