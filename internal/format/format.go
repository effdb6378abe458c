package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// TimestampLayout is the en-IN medium date-time form, e.g. "16 Oct 2026, 09:57 am".
const TimestampLayout = "02 Jan 2006, 03:04 pm"

const fallbackGlyph = "❓"

// FormatAmount renders d with exactly two fraction digits and Indian digit
// grouping: the last three integer digits form one group, the rest are
// grouped in pairs (1234567.5 -> "12,34,567.50").
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	out := groupIndian(intPart) + "." + frac
	if neg && out != "0.00" {
		return "-" + out
	}
	return out
}

// FormatRupees prefixes FormatAmount with the rupee sign (e.g. "₹190.50").
func FormatRupees(d decimal.Decimal) string {
	s := FormatAmount(d)
	if strings.HasPrefix(s, "-") {
		return "-₹" + s[1:]
	}
	return "₹" + s
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	lead := len(head) % 2
	if lead == 1 {
		b.WriteString(head[:1])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}

// FormatTimestamp renders t in its own location as day, abbreviated month,
// year and 12-hour time. Convert with t.In(loc) first to display another zone.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// CategoryGlyph maps a category to its decorative symbol. Unknown categories
// get the fallback glyph.
func CategoryGlyph(c core.Category) string {
	switch c {
	case core.Food:
		return "🍔"
	case core.Transport:
		return "🚗"
	case core.Entertainment:
		return "🎬"
	case core.Shopping:
		return "🛍️"
	case core.Bills:
		return "🧾"
	case core.Other:
		return "❓"
	default:
		return fallbackGlyph
	}
}
