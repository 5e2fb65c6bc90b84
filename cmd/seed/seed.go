package seed

import (
	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/app"
)

const configFlag = "config"

var seedFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a config file (yaml, json or toml)",
	},
}

func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample roles, users, catalog and a wholesaler rule",
		Long: `Migrate the database and load sample data. Existing data is left alone,
so running the command twice is harmless.

Sample accounts (password "password123"):
  alice    administrator
  bob      wholesaler
  charlie  customer`,
		RunE: seedCommand,
	}

	cobraflags.RegisterMap(cmd, seedFlags)
	return cmd
}

func seedCommand(cmd *cobra.Command, _ []string) error {
	a, err := app.Open(seedFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Migrate(cmd.Context()); err != nil {
		return err
	}
	if err := a.Seed(cmd.Context()); err != nil {
		return err
	}

	log.Info().Msg("Seed data loaded")
	return nil
}
