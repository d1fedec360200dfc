package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"grisera/internal/config"
	"grisera/internal/handler"
	"grisera/internal/hub"
	"grisera/internal/logging"
	"grisera/internal/metrics"
	"grisera/internal/service"
	"grisera/internal/signalsink"
	"grisera/internal/storage"
	"grisera/internal/telemetry"
	"grisera/internal/watcher"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serveOptions are the serve flags that act outside the HTTP stack
type serveOptions struct {
	// configPath is watched for log level changes when set
	configPath string
	level      *slog.LevelVar
	// seed is a dataset applied before the listener opens
	seed string
}

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr  string
		seed  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, used, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			level := new(slog.LevelVar)
			level.Set(logging.ParseLevel(cfg.Log.Level))
			log := logging.NewLeveled(os.Stderr, level, cfg.Log.Format)
			if used != "" {
				log.Info("config loaded", "path", used)
			}
			opts := serveOptions{level: level, seed: seed}
			if watch {
				if used == "" {
					return errors.New("--watch-config needs a config file")
				}
				opts.configPath = used
			}

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(cmd.Context(), cfg, log, ln, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&seed, "seed", "", "dataset file to load before serving")
	cmd.Flags().BoolVar(&watch, "watch-config", false, "reload the log level when the config file changes")
	return cmd
}

// serve runs the API on ln until ctx is done, then shuts down gracefully
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, ln net.Listener, opts serveOptions) error {
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceVersion: Version,
	})
	if err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	repo, err := storage.Open(ctx, cfg, log)
	if err != nil {
		ln.Close()
		return err
	}
	defer repo.Close()

	sink := signalsink.New(cfg.Influx)
	defer sink.Close()
	if cfg.Influx.Enabled() {
		log.Info("mirroring signal values to InfluxDB", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	m := metrics.New()
	reg := service.NewRegistry(repo, service.Options{
		Recorder: m,
		Sink:     sink,
		Log:      log,
	})
	if opts.seed != "" {
		if err := seedFrom(ctx, reg, opts.seed, log); err != nil {
			ln.Close()
			return err
		}
	}
	events := hub.New(log)

	srv := &http.Server{
		Handler: handler.Router(reg, log, handler.Options{
			Metrics:    m,
			Events:     events,
			CORSOrigin: cfg.Server.CORSOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events.Run(gctx)
		return nil
	})
	g.Go(func() error {
		events.Follow(gctx, reg.Bus())
		return nil
	})
	if opts.configPath != "" && opts.level != nil {
		w := watcher.New(opts.configPath, func() { reloadLevel(opts.configPath, opts.level, log) }, log)
		g.Go(func() error { return w.Watch(gctx) })
	}
	g.Go(func() error {
		log.Info("server listening", "addr", ln.Addr().String(), "backend", reg.Backend())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// reloadLevel applies the log level of the config file at path. Other
// settings need a restart.
func reloadLevel(path string, level *slog.LevelVar, log *slog.Logger) {
	cfg, _, err := config.Load(path)
	if err != nil {
		log.Warn("config reload failed", "path", path, "error", err)
		return
	}
	next := logging.ParseLevel(cfg.Log.Level)
	if next == level.Level() {
		return
	}
	level.Set(next)
	log.Info("log level changed", "level", next.String())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
