package migrate

import (
	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/app"
)

const configFlag = "config"

var migrateFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a config file (yaml, json or toml)",
	},
}

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update every table and index and make sure the core roles
(administrator, customer, guest) exist.`,
		RunE: migrateCommand,
	}

	cobraflags.RegisterMap(cmd, migrateFlags)
	return cmd
}

func migrateCommand(cmd *cobra.Command, _ []string) error {
	a, err := app.Open(migrateFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Migrate(cmd.Context()); err != nil {
		return err
	}

	log.Info().Str("driver", a.Config.Database.Driver).Msg("Database migrated")
	return nil
}
