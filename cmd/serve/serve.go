package serve

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/app"
)

const (
	configFlag = "config"
	portFlag   = "port"
	seedFlag   = "seed"
)

var serveFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a config file (yaml, json or toml)",
	},
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "Listen port, overrides server.port",
	},
	seedFlag: &cobraflags.StringFlag{
		Name:  seedFlag,
		Value: "false",
		Usage: "Load sample data before serving (true or false)",
	},
}

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pricing REST API",
		Long: `Migrate the database, make sure the core roles exist and serve the REST API.

Examples:
  b2b-pricing serve
  b2b-pricing serve --config config.yaml --port 9090
  B2B_DATABASE_DRIVER=postgres B2B_DATABASE_URL=postgres://... b2b-pricing serve`,
		RunE: serveCommand,
	}

	cobraflags.RegisterMap(cmd, serveFlags)
	return cmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	a, err := app.Open(serveFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Migrate(ctx); err != nil {
		return err
	}
	if serveFlags[seedFlag].GetString() == "true" {
		if err := a.Seed(ctx); err != nil {
			return err
		}
	}

	if a.Config.Server.Mode != "" {
		gin.SetMode(a.Config.Server.Mode)
	}
	router, err := a.Router()
	if err != nil {
		return err
	}

	port := serveFlags[portFlag].GetString()
	if port == "" {
		port = a.Config.Server.Port
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Str("driver", a.Config.Database.Driver).Msg("Starting B2B pricing API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
