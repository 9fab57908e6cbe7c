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

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Schorakbi/roboto-ai/internal/config"
	"github.com/Schorakbi/roboto-ai/internal/handlers"
	"github.com/Schorakbi/roboto-ai/internal/history"
	"github.com/Schorakbi/roboto-ai/internal/llm"
	"github.com/Schorakbi/roboto-ai/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting command parser service",
		zap.String("service", cfg.ServiceName),
		zap.String("endpoint", cfg.AzureEndpoint),
		zap.String("model", cfg.AzureModel),
		zap.String("deployment", cfg.AzureDeployment))

	provider, err := llm.NewAzureOpenAIProvider(cfg)
	if err != nil {
		return err
	}

	var store history.Store
	if cfg.HistoryEnabled() {
		redisStore, err := history.NewRedisStore(cfg.RedisURL, cfg.HistorySize, cfg.HistoryTTL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("Command history enabled", zap.Int("size", cfg.HistorySize), zap.Duration("ttl", cfg.HistoryTTL))
	}

	commandHandler := handlers.NewCommandHandler(provider, store, logger)

	if cfg.NatsEnabled() {
		natsTransport, err := transport.NewNATSTransport(cfg, commandHandler, logger)
		if err != nil {
			return err
		}
		defer natsTransport.Close()

		if err := natsTransport.Start(); err != nil {
			return err
		}
	}

	httpTransport := transport.NewHTTPTransport(commandHandler, cfg.ServiceName, cfg.CORSAllowedOrigins, logger)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpTransport.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return serveUntilSignal(server, logger)
}

func serveUntilSignal(server *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("Command parser service stopped")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}
