package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"kharcha/internal/amqp"
	"kharcha/internal/cli"
	"kharcha/internal/log"
	"kharcha/internal/worker"
)

const consumeRetryDelay = 5 * time.Second

func newWorkerCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror ledger changes from AMQP into Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), st)
		},
	}
}

func runWorker(parent context.Context, st *state) error {
	cfg := st.cfg
	logger := st.logger.WithComponent(log.ComponentSheets)

	if cfg.AMQPURL == "" {
		return errors.New("worker requires AMQP_URL")
	}
	if !cfg.SheetsEnabled() {
		return errors.New("worker requires GOOGLE_SPREADSHEET_ID")
	}

	res, err := cli.OpenStorage(parent, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Storage close failed", log.FieldError, err.Error())
		}
	}()

	mirror, err := cli.NewSheetsMirror(parent, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	mw := worker.NewMirrorWorker(res.Store, cfg.LedgerKey, mirror, logger)

	ctx, done := cli.GracefulShutdown(parent, logger, shutdownTimeout, nil)

	// Catch up on anything the queue missed while the worker was down.
	logger.Info("Performing startup sync")
	if err := mw.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpStartup)
	}

	for {
		err := client.ConsumeChanges(ctx, mw.HandleChange)
		if ctx.Err() != nil {
			break
		}
		logger.Warn("Message consumption stopped, retrying",
			log.FieldError, err.Error(),
			"retry_in", consumeRetryDelay.String())

		select {
		case <-ctx.Done():
		case <-time.After(consumeRetryDelay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
	return nil
}
