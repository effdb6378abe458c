package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// Ports for persistence adapters.
type (
	// KV is a durable key-value store. Each value is replaced as a whole on
	// Put; there are no partial updates.
	KV interface {
		// Get returns the stored value for key. found is false when the key
		// has never been written.
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		// Put replaces the value stored under key.
		Put(ctx context.Context, key string, value []byte) error
		Close() error
	}
)
