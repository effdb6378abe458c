package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"kharcha/internal/cli"
	apphttp "kharcha/internal/http"
	"kharcha/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), st)
		},
	}
}

func runServe(parent context.Context, st *state) error {
	cfg, logger := st.cfg, st.logger

	app, err := cli.Bootstrap(parent, cfg, logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, app.Ledger,
		apphttp.WithLogger(logger),
		apphttp.WithLocation(cfg.Location()),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithTrustedProxies(cfg.TrustedProxies...),
		apphttp.WithReadinessCheck("storage", func(ctx context.Context) error {
			_, _, err := app.KV.Get(ctx, cfg.LedgerKey)
			return err
		}),
	)

	runCtx, stop := context.WithCancel(parent)
	defer stop()

	ctx, done := cli.GracefulShutdown(runCtx, logger, shutdownTimeout, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error",
				log.FieldError, err.Error(),
				log.FieldOperation, log.OpShutdown)
		}
		if err := app.Close(); err != nil {
			logger.Error("Ledger shutdown error",
				log.FieldError, err.Error(),
				log.FieldOperation, log.OpShutdown)
		}
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting kharcha server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"timezone", cfg.Timezone)
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			runErr = err
		}
		stop()
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return runErr
}
