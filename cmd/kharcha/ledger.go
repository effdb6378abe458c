package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kharcha/internal/aggregate"
	"kharcha/internal/cli"
	"kharcha/internal/core"
	"kharcha/internal/format"
	"kharcha/internal/log"
)

// withApp bootstraps the ledger for a single command and closes it after fn
// returns, so pending publishes are flushed before the process exits.
func withApp(ctx context.Context, st *state, fn func(*cli.App) error) (err error) {
	app, err := cli.Bootstrap(ctx, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

func newAddCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:     "add <title> <amount> <category>",
		Short:   "Record an expense",
		Example: `  kharcha add "Auto to office" 120 Transport`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *cli.App) error {
				e, err := app.Ledger.Add(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s (%s) %s\n",
					format.CategoryGlyph(e.Category), e.Title, format.FormatRupees(e.Amount), e.Category, e.ID)
				return nil
			})
		},
	}
}

func newListCmd(st *state) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), st, func(app *cli.App) error {
				records := aggregate.FilterByCategory(app.Ledger.List(), normalizeCategory(category))
				if asJSON {
					return writeJSONList(cmd.OutOrStdout(), records)
				}
				if len(records) == 0 {
					if normalizeCategory(category) != aggregate.All {
						fmt.Fprintln(cmd.OutOrStdout(), "No expenses found for this category.")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "No expenses recorded.")
					}
					return nil
				}
				return writeTable(cmd.OutOrStdout(), records, st.cfg.Location())
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", aggregate.All, "only show this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newRemoveCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an expense by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *cli.App) error {
				id := args[0]
				if !slices.ContainsFunc(app.Ledger.List(), func(e core.Expense) bool { return e.ID == id }) {
					return fmt.Errorf("no expense with id %q", id)
				}
				if err := app.Ledger.Remove(cmd.Context(), id); err != nil {
					return err
				}
				log.NewStructuredLogger(st.logger).LogExpenseRemoved(cmd.Context(), id)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				return nil
			})
		},
	}
}

func newSummaryCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the total and the per-category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), st, func(app *cli.App) error {
				sum := aggregate.Summarize(app.Ledger.List())
				out := cmd.OutOrStdout()

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tw, "Total\t%s\t\n", format.FormatRupees(sum.Total))
				fmt.Fprintf(tw, "Expenses\t%d\t\n", sum.Count)
				for _, c := range sum.ByCategory {
					fmt.Fprintf(tw, "%s %s\t%s\t\n", format.CategoryGlyph(c.Category), c.Category, format.FormatRupees(c.Amount))
				}
				return tw.Flush()
			})
		},
	}
}

// normalizeCategory maps a --category flag onto the exact selector
// FilterByCategory compares against.
func normalizeCategory(selector string) string {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, aggregate.All) {
		return aggregate.All
	}
	return string(core.ParseCategory(selector))
}

type jsonExpense struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

func writeJSONList(w io.Writer, records []core.Expense) error {
	out := make([]jsonExpense, len(records))
	for i, e := range records {
		out[i] = jsonExpense{
			ID:       e.ID,
			Title:    e.Title,
			Amount:   e.Amount.StringFixed(2),
			Category: string(e.Category),
			Date:     e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
