// Package cli provides common process initialization for the kharcha
// commands: environment, logging, configuration, storage, the ledger and its
// change publishers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kharcha/internal/amqp"
	"kharcha/internal/backend"
	"kharcha/internal/config"
	"kharcha/internal/events"
	"kharcha/internal/kafka"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/sheets/google"
	"kharcha/internal/storage"
	"kharcha/internal/worker"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging at the given level, writing to
// out, and sets it as the process default. A nil out keeps stdout.
func SetupLogger(level string, out io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	if out != nil {
		cfg.Output = out
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStorage opens the key-value backend selected by DATA_BACKEND.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.Opened, error) {
	opts, err := backend.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).Open(ctx, opts)
}

// NewSheetsMirror builds the Google Sheets client from configuration.
func NewSheetsMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (*google.Client, error) {
	return google.New(ctx, google.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		Location:           cfg.Location(),
	}, logger)
}

// App is a fully wired ledger: storage, store and change publishers.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	KV       storage.KV
	Ledger   *ledger.Store
	Notifier *events.Notifier

	unsubscribe func()
	closers     []func() error
}

// Bootstrap opens storage, loads the ledger and subscribes the notifier with
// every configured publisher. Publishers that cannot be created are logged
// and skipped. The sheet is mirrored in-process only when no AMQP broker is
// configured; otherwise the worker command owns it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	res, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		KV:     res.Store,
	}

	var publishers []events.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without it",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			publishers = append(publishers, client)
			app.closers = append(app.closers, client.Close)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("Initialized Kafka publisher", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		publishers = append(publishers, pub)
		app.closers = append(app.closers, pub.Close)
	}
	if cfg.SheetsEnabled() && cfg.AMQPURL == "" {
		mirror, err := NewSheetsMirror(ctx, cfg, logger)
		if err != nil {
			logger.Warn("Failed to initialize Google Sheets mirror, continuing without it",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeConfiguration)
		} else {
			publishers = append(publishers, worker.NewMirrorWorker(res.Store, cfg.LedgerKey, mirror, logger))
		}
	}
	app.closers = append(app.closers, res.Cleanup)

	app.Notifier = events.NewNotifier(logger, publishers...)
	app.Ledger = ledger.New(res.Store,
		ledger.WithKey(cfg.LedgerKey),
		ledger.WithLogger(logger),
		ledger.WithDeleteDelay(cfg.DeleteDelay))
	app.unsubscribe = app.Ledger.Subscribe(app.Notifier.HandleEvent)
	app.Ledger.Load(ctx)

	logger.Info("Ledger ready",
		log.FieldBackend, cfg.DataBackend,
		log.FieldKey, cfg.LedgerKey,
		log.FieldCount, len(app.Ledger.List()),
		"publishers", len(publishers))
	return app, nil
}

// Close flushes pending removals, drains queued change events and releases
// publishers and storage, in that order.
func (a *App) Close() error {
	errs := []error{a.Ledger.Close()}
	a.unsubscribe()
	errs = append(errs, a.Notifier.Close())
	for _, closeFn := range a.closers {
		if closeFn != nil {
			errs = append(errs, closeFn())
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals or when parent
// is done, and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup()
			}
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
