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

	"github.com/mcoot/tictacnet/internal/api"
	"github.com/mcoot/tictacnet/internal/config"
	"github.com/mcoot/tictacnet/internal/factory"
	"github.com/mcoot/tictacnet/internal/server"
	redisstorage "github.com/mcoot/tictacnet/internal/storage/redis"
)

type flags struct {
	configPath string
	host       string
	port       int
	httpPort   int
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "tictacnet",
		Short: "Multi-participant tic-tac-toe game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&f.configPath, "config", os.Getenv("TTT_CONFIG"), "YAML config file (env: TTT_CONFIG)")
	cmd.Flags().StringVar(&f.host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVar(&f.port, "port", 0, "Game server port (overrides config)")
	cmd.Flags().IntVar(&f.httpPort, "http-port", 0, "Admin API port, 0 disables (overrides config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	return cmd
}

// loadConfig reads file and environment, then applies flags the user set explicitly
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("host") {
		cfg.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("http-port") {
		cfg.HTTPPort = f.httpPort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config) error {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Names.Storage,
		NamePool:    cfg.Names.Pool,
	}
	if cfg.Names.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		redisCfg.PoolSize = cfg.Redis.PoolSize
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer app.Close()

	gameServer := server.New(server.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		MaxRequestSize:  cfg.MaxRequestSize,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, app.Registry, app.Names, app.Clock, logger.With(slog.String("component", "server")))
	if err := gameServer.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- gameServer.Serve(ctx)
	}()

	var adminServer *api.Server
	if addr := cfg.HTTPAddr(); addr != "" {
		apiCfg := api.DefaultServerConfig()
		apiCfg.Addr = addr
		apiCfg.ShutdownTimeout = cfg.ShutdownTimeout
		router := api.NewRouter(api.RouterConfig{
			Logger:   logger.With(slog.String("component", "api")),
			Registry: app.Registry,
		})
		adminServer = api.NewServer(router, apiCfg, logger)
		if err := adminServer.Listen(); err != nil {
			return errors.Join(err, gameServer.Shutdown(context.Background()))
		}
		go func() {
			errCh <- adminServer.Serve()
		}()
	}

	logger.Info("server started",
		slog.String("addr", gameServer.Addr()),
		slog.String("names_storage", cfg.Names.Storage),
	)

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server error", slog.String("error", serveErr.Error()))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownErr := gameServer.Shutdown(context.Background())
	if adminServer != nil {
		shutdownErr = errors.Join(shutdownErr, adminServer.Shutdown(context.Background()))
	}
	if shutdownErr != nil {
		logger.Error("shutdown error", slog.String("error", shutdownErr.Error()))
	}

	logger.Info("server stopped")
	if err := errors.Join(serveErr, shutdownErr); err != nil {
		return fmt.Errorf("tictacnet: %w", err)
	}
	return nil
}
