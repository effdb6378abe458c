package worker

import (
	"context"
	"fmt"
	"sync"

	"kharcha/internal/events"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/sheets"
	"kharcha/internal/storage"
)

var _ events.Publisher = (*MirrorWorker)(nil)

// MirrorWorker keeps an external sheet in step with the persisted ledger.
// Every change message triggers a full re-read of the ledger followed by a
// full rewrite of the sheet, so duplicate or reordered messages are harmless.
type MirrorWorker struct {
	kv     storage.KV
	key    string
	mirror sheets.LedgerMirror
	logger *log.Logger

	mu sync.Mutex
}

func NewMirrorWorker(kv storage.KV, key string, mirror sheets.LedgerMirror, logger *log.Logger) *MirrorWorker {
	if key == "" {
		key = ledger.DefaultKey
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MirrorWorker{
		kv:     kv,
		key:    key,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentSheets),
	}
}

// HandleChange processes a single ledger change message from AMQP.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *events.Message) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		"type", string(msg.Type),
		log.FieldExpenseID, msg.ID,
		"version", msg.Version)

	if err := w.sync(ctx); err != nil {
		return fmt.Errorf("mirror after %s: %w", msg.Type, err)
	}
	return nil
}

// Publish lets the worker run in-process as an events.Publisher.
func (w *MirrorWorker) Publish(ctx context.Context, msg events.Message) error {
	return w.HandleChange(ctx, &msg)
}

// StartupSync mirrors the current ledger once, recovering from messages
// missed while the worker was down.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	if err := w.sync(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed")
	return nil
}

func (w *MirrorWorker) sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	expenses, err := ledger.ReadSnapshot(ctx, w.kv, w.key)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if err := w.mirror.Mirror(ctx, expenses); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	w.logger.DebugContext(ctx, "Ledger mirrored", log.FieldCount, len(expenses))
	return nil
}
