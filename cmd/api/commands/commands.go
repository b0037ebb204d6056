package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/taskboard/core/internal/adapters/cache"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X github.com/taskboard/core/cmd/api/commands.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Taskboard API server",
		Long:  "Start the HTTP API together with the expired token cleaner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Taskboard version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Taskboard %s (commit %s)\n", Version, GitCommit)
		},
	}
}

// env bundles what every command needs once configuration is loaded.
type env struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		_ = appLogger.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &env{cfg: cfg, logger: appLogger, db: db}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Warnw("Failed to close database", "error", err)
	}
	_ = e.logger.Close()
}

func runServer(parent context.Context) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if e.cfg.Cache.Enabled {
		rdb, err = cache.NewClient(ctx, e.cfg.Redis)
		if err != nil {
			e.logger.Warnw("Redis unavailable, serving without cache", "error", err, "addr", e.cfg.Redis.GetAddr())
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	app := server.NewApp(e.cfg, e.db, rdb, e.logger)
	srv := server.New(e.cfg, app, e.db, rdb, e.logger)

	go app.Cleaner.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", e.cfg.Server.Host, e.cfg.Server.Port)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	e.logger.Infow("Taskboard API started",
		"port", e.cfg.Server.Port,
		"environment", e.cfg.App.Environment,
		"cache", rdb != nil,
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
