package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"grisera/internal/config"
	"grisera/internal/domain"
	"grisera/internal/loader"
	"grisera/internal/logging"
	"grisera/internal/service"
	"grisera/internal/storage"

	"github.com/spf13/cobra"
)

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <dataset>",
		Short: "Create the entities listed in a YAML or JSON dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

			ds, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			repo, err := storage.Open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer repo.Close()

			report, err := loader.Apply(cmd.Context(), service.NewRegistry(repo, service.Options{Log: log}), ds)
			if report != nil {
				printReport(cmd, report)
			}
			return err
		},
	}
}

func printReport(cmd *cobra.Command, report *loader.Report) {
	collections := make([]domain.Collection, 0, len(report.Created))
	for c := range report.Created {
		collections = append(collections, c)
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i] < collections[j] })

	out := cmd.OutOrStdout()
	for _, c := range collections {
		fmt.Fprintf(out, "%-24s %d\n", c, report.Created[c])
	}
	fmt.Fprintf(out, "%-24s %d\n", "total", report.Total())
}

// seedFrom applies a dataset file during serve startup
func seedFrom(ctx context.Context, reg *service.Registry, path string, log *slog.Logger) error {
	ds, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	report, err := loader.Apply(ctx, reg, ds)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	log.Info("dataset loaded", "path", path, "entities", report.Total())
	return nil
}
