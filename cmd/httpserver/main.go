package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviehub/httpserver"
	"moviehub/movie"
	"moviehub/pkg/config"
	"moviehub/pkg/logger"
	"moviehub/pkg/sentry"
	"moviehub/storage"

	sentrygo "github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := sentry.Init(cfg.SentryDSN, cfg.AppEnv); err != nil {
		log.Fatalw("cannot init sentry", "error", err)
	}
	defer sentrygo.Flush(sentry.FlushTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	store, err := storage.Open(connectCtx, cfg)
	cancel()
	if err != nil {
		sentry.Fatal(err)
		log.Fatalw("cannot open store", "driver", cfg.DB.Driver, "error", err)
	}

	server, err := httpserver.New(
		httpserver.WithConfig(cfg),
		httpserver.WithLogger(log),
		httpserver.WithMovieService(movie.NewUsecase(store.Movies)),
		httpserver.WithHealthChecker(store.Pinger),
	)
	if err != nil {
		log.Fatalw("cannot create server", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server started", "addr", server.Addr, "driver", cfg.DB.Driver, "lazy_connect", cfg.DB.LazyConnect)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server stopped with error", "error", err)
		}
	case <-ctx.Done():
		log.Infow("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown failed", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Errorw("store close failed", "error", err)
	}
	log.Infow("server stopped")
}
