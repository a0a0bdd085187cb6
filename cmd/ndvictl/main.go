// Command ndvictl selects a farm area from the terminal, requests its NDVI
// analysis and renders the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/agrosight/internal/pkg/config"
	"github.com/samirrijal/agrosight/internal/pkg/logging"
)

// errAnalysisFailed marks a run whose error has already been rendered.
var errAnalysisFailed = errors.New("analysis failed")

// cli carries state shared by every subcommand.
type cli struct {
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:   "ndvictl",
		Short: "Farm area NDVI analysis from the terminal",
		Long: `ndvictl selects an area by coordinates, by polygon or by replaying
leaflet-draw events, posts it to the NDVI analysis endpoint and prints the
mean NDVI with its observation date.

Defaults come from config.yaml and AGROSIGHT_CLIENT_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), app.logLevel, "text"))

			cfg, err := config.Load("ndvictl")
			if err != nil {
				return err
			}
			app.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(app), newPricesCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, errAnalysisFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
