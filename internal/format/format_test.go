package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1234567.5", "12,34,567.50"},
		{"0", "0.00"},
		{"5", "5.00"},
		{"999.999", "1,000.00"},
		{"1000", "1,000.00"},
		{"12345.678", "12,345.68"},
		{"100000", "1,00,000.00"},
		{"123456", "1,23,456.00"},
		{"10000000", "1,00,00,000.00"},
		{"190.5", "190.50"},
		{"0.005", "0.01"}, // half away from zero
		{"-1234.5", "-1,234.50"},
	}
	for _, tc := range cases {
		if got := FormatAmount(decimal.RequireFromString(tc.in)); got != tc.out {
			t.Fatalf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatRupees(t *testing.T) {
	if got := FormatRupees(decimal.RequireFromString("190.5")); got != "₹190.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatRupees(decimal.RequireFromString("-5")); got != "-₹5.00" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	cases := []struct {
		in  time.Time
		out string
	}{
		{time.Date(2026, 10, 16, 9, 57, 0, 0, ist), "16 Oct 2026, 09:57 am"},
		{time.Date(2025, 1, 5, 21, 3, 0, 0, ist), "05 Jan 2025, 09:03 pm"},
		{time.Date(2025, 1, 5, 0, 15, 0, 0, time.UTC), "05 Jan 2025, 12:15 am"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.in); got != tc.out {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}

	utc := time.Date(2025, 1, 5, 18, 30, 0, 0, time.UTC)
	if got := FormatTimestamp(utc.In(ist)); got != "06 Jan 2025, 12:00 am" {
		t.Fatalf("zone conversion: got %q", got)
	}
}

func TestCategoryGlyph(t *testing.T) {
	cases := map[core.Category]string{
		core.Food:          "🍔",
		core.Transport:     "🚗",
		core.Entertainment: "🎬",
		core.Shopping:      "🛍️",
		core.Bills:         "🧾",
		core.Other:         "❓",
		"Travel":           "❓",
		"":                 "❓",
	}
	for cat, want := range cases {
		if got := CategoryGlyph(cat); got != want {
			t.Fatalf("CategoryGlyph(%q) = %q, want %q", cat, got, want)
		}
	}
}
