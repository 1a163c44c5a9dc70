package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/loantools/loancalc/internal/server"
	"github.com/loantools/loancalc/internal/store"
	"github.com/loantools/loancalc/pkg/constants"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("LOANCALC_ADDR", constants.DefaultServerAddress), "HTTP listen address")
	redisAddr := flag.String("redis", envOr("LOANCALC_REDIS_ADDR", ""), "redis address for saved comparisons (in-memory store when empty)")
	logLevel := flag.String("log-level", envOr("LOANCALC_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := buildLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var comparisons store.Store = store.NewMemoryStore()
	if *redisAddr != "" {
		redisStore := store.NewRedisStore(*redisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisStore.Ping(ctx)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis",
				zap.String("op", "main"),
				zap.String("addr", *redisAddr),
				zap.Error(err),
			)
		}
		comparisons = redisStore
		logger.Info("using redis comparison store",
			zap.String("op", "main"),
			zap.String("addr", *redisAddr),
		)
	}

	handler := server.NewHandler(logger, comparisons, constants.DefaultMaxBodyBytes, version)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logger.Info("loan-calc server listening",
			zap.String("op", "main"),
			zap.String("addr", *addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server stopped", zap.String("op", "main"))
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = parsed
	return cfg.Build()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
