// Package cli provides common CLI initialization utilities shared by the
// commands under cmd/.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spesebot/internal/amqp"
	"spesebot/internal/config"
	"spesebot/internal/log"
	"spesebot/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger writes every record to stderr and to a timestamped file in
// logDir. The returned function closes the file. When the file cannot be
// created the logger falls back to stderr only.
func SetupLogger(level, logDir string) (*log.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: log.ParseLevel(level)}
	sinks := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	closer := func() error { return nil }

	f, err := log.OpenLogFile(logDir, time.Now())
	if err == nil {
		sinks = append(sinks, slog.NewTextHandler(f, opts))
		closer = f.Close
	}

	logger := log.New(log.Config{
		Level:     opts.Level.Level(),
		Component: log.ComponentApp,
		Handler:   log.NewFanoutHandler(sinks...),
	})
	log.SetDefault(logger)

	if err != nil {
		logger.Warn("Log file disabled", log.FieldPath, logDir, log.FieldError, err)
	}
	return logger, closer
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// StorageConfig maps application configuration onto the storage layer.
func StorageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:      storage.Driver(cfg.DBDriver),
		Host:        cfg.DBHost,
		Port:        cfg.DBPort,
		Username:    cfg.DBUsername,
		Password:    cfg.DBPassword,
		Database:    cfg.DBDatabase,
		TLSCertPath: cfg.DBSSLCertificate,
		TLSVerify:   cfg.DBSSLVerify,
		SQLitePath:  cfg.SQLiteDBPath,
		Timeout:     cfg.DBTimeout,
	}
}

// InitStorage connects to the database and brings the schema up to date.
// Exits the process on failure.
func InitStorage(ctx context.Context, logger *log.Logger, cfg *config.Config) *storage.Manager {
	m, err := storage.Open(ctx, StorageConfig(cfg), logger)
	if err != nil {
		logger.Error("Failed to initialize storage",
			log.FieldDriver, cfg.DBDriver,
			log.FieldError, err)
		os.Exit(1)
	}
	return m
}

// InitPublisher connects to the AMQP broker. It returns nil when AMQP is not
// configured or the broker is unreachable; events are then skipped.
func InitPublisher(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, ledger events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// CloseAll closes every closer and joins the errors.
func CloseAll(closers map[string]func() error) error {
	var errs []error
	for name, c := range closers {
		if c == nil {
			continue
		}
		if err := c(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
