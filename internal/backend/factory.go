package backend

import (
	"context"
	"fmt"

	"kharcha/internal/log"
	"kharcha/internal/storage"
	"kharcha/internal/storage/file"
	"kharcha/internal/storage/memory"
	"kharcha/internal/storage/postgres"
	"kharcha/internal/storage/sqlite"
)

const defaultDataDir = "data"

// Opened is a ready store together with the function that releases it.
type Opened struct {
	Store   storage.KV
	Kind    Kind
	Cleanup func() error
}

// Factory opens storage backends.
type Factory interface {
	Open(ctx context.Context, opts Options) (*Opened, error)
}

type factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &factory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *factory) Open(ctx context.Context, opts Options) (*Opened, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Kind == File && opts.DataDir == "" {
		opts.DataDir = defaultDataDir
	}

	var (
		kv  storage.KV
		err error
	)
	switch opts.Kind {
	case Memory:
		kv = memory.New()
	case File:
		kv, err = file.New(opts.DataDir)
	case SQLite:
		kv, err = sqlite.NewRepository(opts.SQLitePath)
	case Postgres:
		kv, err = postgres.New(ctx, opts.DatabaseURL)
	}
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to open storage backend",
			log.FieldBackend, string(opts.Kind),
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeStorage)
		return nil, fmt.Errorf("open %s backend: %w", opts.Kind, err)
	}

	f.logger.InfoContext(ctx, "Storage backend ready",
		log.FieldBackend, string(opts.Kind),
		"location", opts.location())
	return &Opened{Store: kv, Kind: opts.Kind, Cleanup: kv.Close}, nil
}
