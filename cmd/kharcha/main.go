// Command kharcha runs the expense tracker: the web server, the sheet
// mirroring worker and a handful of ledger commands for the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kharcha/internal/cli"
	"kharcha/internal/config"
	"kharcha/internal/log"
)

// state is shared by every subcommand once the root pre-run has completed.
type state struct {
	logLevel string
	cfg      *config.Config
	logger   *log.Logger
}

func newRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "kharcha",
		Short:         "Personal expense tracker",
		Long:          "kharcha records expenses with a title, an amount in rupees and a category,\nand serves them as a small web app with live updates.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()

			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			st.cfg = cfg

			level := cfg.LogLevel
			if st.logLevel != "" {
				level = st.logLevel
			}
			st.logger = cli.SetupLogger(level, cmd.ErrOrStderr()).WithComponent(log.ComponentCLI)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(st),
		newWorkerCmd(st),
		newAddCmd(st),
		newListCmd(st),
		newRemoveCmd(st),
		newSummaryCmd(st),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
