package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Clypper-Technology/clypper-plugins-sub000/cmd/migrate"
	"github.com/Clypper-Technology/clypper-plugins-sub000/cmd/quote"
	"github.com/Clypper-Technology/clypper-plugins-sub000/cmd/seed"
	"github.com/Clypper-Technology/clypper-plugins-sub000/cmd/serve"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "b2b-pricing",
		Short: "Role-based B2B pricing service",
		Long: `Role-based pricing for B2B shops: each customer role owns one rule that
adjusts catalog prices globally, per category, per product and during
storewide sales, with quantity breaks.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serve.NewServeCommand())
	rootCmd.AddCommand(migrate.NewMigrateCommand())
	rootCmd.AddCommand(seed.NewSeedCommand())
	rootCmd.AddCommand(quote.NewQuoteCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
