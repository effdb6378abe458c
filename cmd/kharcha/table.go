package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/format"
)

func writeTable(w io.Writer, records []core.Expense, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tTITLE\tAMOUNT")
	for _, e := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			e.ID,
			format.FormatTimestamp(e.CreatedAt.In(loc)),
			format.CategoryGlyph(e.Category), e.Category,
			e.Title,
			format.FormatRupees(e.Amount))
	}
	return tw.Flush()
}
