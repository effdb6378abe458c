// Package backend opens the key-value store the ledger persists to, chosen by
// DATA_BACKEND.
package backend

import (
	"errors"
	"fmt"
	"net/url"

	"kharcha/internal/config"
)

// Kind names a storage implementation.
type Kind string

const (
	Memory   Kind = config.BackendMemory
	File     Kind = config.BackendFile
	SQLite   Kind = config.BackendSQLite
	Postgres Kind = config.BackendPostgres
)

// Kinds lists every supported backend in the order they are documented.
func Kinds() []Kind {
	return []Kind{Memory, File, SQLite, Postgres}
}

// Valid reports whether k names a supported backend.
func (k Kind) Valid() bool {
	switch k {
	case Memory, File, SQLite, Postgres:
		return true
	}
	return false
}

// Options says which backend to open and where it keeps its data. Only the
// field matching Kind is read.
type Options struct {
	Kind        Kind
	DataDir     string
	SQLitePath  string
	DatabaseURL string
}

// OptionsFromConfig picks the storage settings out of the application config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("backend: nil config")
	}
	opts := Options{
		Kind:        Kind(cfg.DataBackend),
		DataDir:     cfg.DataDir,
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	}
	return opts, opts.Validate()
}

func (o Options) Validate() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("backend: unknown kind %q", o.Kind)
	}
	switch o.Kind {
	case SQLite:
		if o.SQLitePath == "" {
			return errors.New("backend: sqlite needs a database path")
		}
	case Postgres:
		if o.DatabaseURL == "" {
			return errors.New("backend: postgres needs a database URL")
		}
		if _, err := url.Parse(o.DatabaseURL); err != nil {
			return fmt.Errorf("backend: postgres URL: %w", err)
		}
	}
	return nil
}

// location describes where the data lives, for logs. The postgres URL is
// reduced to its host so credentials never reach the log.
func (o Options) location() string {
	switch o.Kind {
	case File:
		return o.DataDir
	case SQLite:
		return o.SQLitePath
	case Postgres:
		if u, err := url.Parse(o.DatabaseURL); err == nil {
			return u.Host + u.Path
		}
	}
	return ""
}
