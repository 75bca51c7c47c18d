package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"catalog-service/internal/api"
	"catalog-service/internal/cache"
	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	catalogrpc "catalog-service/internal/grpc"
	"catalog-service/internal/logging"
	"catalog-service/internal/store"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $"+config.ConfigPathEnv+")")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	entities, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := entities.Close(); err != nil {
			logger.Error("Failed to close catalog store", slog.String("error", err.Error()))
		}
	}()

	responses, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() {
		if err := responses.Close(); err != nil {
			logger.Error("Failed to close response cache", slog.String("error", err.Error()))
		}
	}()
	logger.Info("Response cache initialized", slog.String("backend", cfg.Cache.Backend))

	svc := catalog.New(entities, responses, logger)

	var grpcSrv *grpc.Server
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC on %s: %w", cfg.GRPC.Addr, err)
		}
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(catalogrpc.UnaryInterceptor(logger)))
		catalogrpc.RegisterMovieLookupServer(grpcSrv, catalogrpc.NewServer(svc, logger))
		reflection.Register(grpcSrv)

		go func() {
			logger.Info("Catalog gRPC server starting", slog.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("Catalog gRPC server Serve() failed", slog.String("error", err.Error()))
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(api.NewCatalogHandler(svc, logger), logger, cfg.RateLimit),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Catalog HTTP server starting", slog.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("Catalog service shutting down...", slog.String("signal", sig.String()))
	case err := <-serveErr:
		logger.Error("Catalog HTTP server ListenAndServe() failed", slog.String("error", err.Error()))
		runErr = fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Catalog service shutting down...", slog.String("reason", ctx.Err().Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Catalog HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Catalog HTTP server gracefully stopped.")
	}

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
		logger.Info("Catalog gRPC server gracefully stopped.")
	}
	return runErr
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory catalog store, data is lost on restart")
		return store.NewMemoryStore(logger), nil
	}
	logger.Info("Opening catalog store", slog.String("driver", cfg.Driver), slog.String("dsn", redactDSN(cfg.DSN)))
	s, err := store.Open(ctx, cfg.SQLDriver(), cfg.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}
	return s, nil
}

// redactDSN hides the password of URL-style connection strings.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
