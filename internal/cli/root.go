// Package cli implements the grisera command line
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X grisera/internal/cli.Version=..."
var Version = "dev"

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "grisera",
		Short:        "GRISERA: graph representation of multimodal experiment data",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: first of $GRISERA_CONFIG, ./grisera.yaml, ~/.config/grisera/config.yaml, /etc/grisera/config.yaml)")

	cmd.AddCommand(serveCmd(&configPath))
	cmd.AddCommand(configCmd(&configPath))
	cmd.AddCommand(seedCmd(&configPath))
	cmd.AddCommand(versionCmd())
	return cmd
}
