package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akulagin/indexfs/internal/config"
	"github.com/akulagin/indexfs/internal/handler"
	"github.com/akulagin/indexfs/internal/middleware"
	"github.com/akulagin/indexfs/internal/service"
	"github.com/akulagin/indexfs/internal/snapshot"
	"github.com/akulagin/indexfs/pkg/database/postgresql"
	"github.com/akulagin/indexfs/pkg/logging"
	"github.com/akulagin/indexfs/pkg/logging/slogext"
	"github.com/akulagin/indexfs/pkg/logging/slogpretty"
)

const configPath = "configs/config.yaml"

func main() {
	cfg := config.MustLoad(configPath)

	prettyLogger := setupPrettySlog()

	// Root context
	ctx := context.Background()
	ctx = logging.MakeContextWithLogger(ctx, prettyLogger)

	// Snapshot store
	store, err := setupStore(ctx, cfg)
	if err != nil {
		prettyLogger.Error("Failed to set up snapshot store", slogext.Err(err))
		os.Exit(1)
	}

	// Namespace
	ns, err := store.Load(ctx)
	if err != nil {
		prettyLogger.Error("Failed to load namespace", slogext.Err(err))
		os.Exit(1)
	}
	prettyLogger.Info("Namespace loaded",
		slog.Int("order", ns.Order()),
		slog.Int("inodes", ns.Table().Len()),
	)

	// Dependencies
	svc := service.NewFileSystemService(ns, store)
	h := handler.NewHandler(svc)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var root http.Handler = mux
	root = middleware.RequestIDMiddleware(root)
	root = middleware.LoggerMiddleware(prettyLogger)(root)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  cfg.App.DefaultTimeout,
		WriteTimeout: cfg.App.DefaultTimeout,
	}

	go func() {
		prettyLogger.Info("Server starting", slog.Int("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			prettyLogger.Error("Server failed", slogext.Err(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown: save the namespace before exiting.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	prettyLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		prettyLogger.Error("Shutdown failed", slogext.Err(err))
	}
	if err := svc.Save(shutdownCtx); err != nil {
		prettyLogger.Error("Failed to save namespace on shutdown", slogext.Err(err))
		os.Exit(1)
	}
	prettyLogger.Info("Namespace saved")
}

func setupStore(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case "file", "":
		return snapshot.NewFileStore(cfg.Snapshot.Path, cfg.Index.Order), nil
	case "postgres":
		db := postgresql.MustNewClient(ctx, cfg.Database)
		return snapshot.NewPostgresStore(ctx, db, cfg.Snapshot.Name, cfg.Index.Order)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
