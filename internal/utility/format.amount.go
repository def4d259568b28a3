package utility

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseAmount parses a user-typed amount ("1 500", "1500.50", "1500,50").
// Spaces are thousand separators, comma is accepted as decimal separator.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("montant vide")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("montant invalide: %q", raw)
	}
	return v, nil
}

// FormatAmount renders an amount for Slack messages, with thin thousand
// separators and no trailing zeros for whole values ("12 500", "12 500.50").
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	// Round to cents first so a fraction like .999999 carries into the
	// whole part instead of rendering as ".00".
	v = math.Round(v*100) / 100
	whole := int64(v)
	frac := v - float64(whole)

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	out := b.String()
	if frac > 0.000001 {
		cents := strconv.FormatFloat(frac, 'f', 2, 64)
		out += cents[1:] // drop the leading "0"
	}
	if neg {
		out = "-" + out
	}
	return out
}

// YearMonth returns the "YYYY/MM" bucket used by sequential id generation.
func YearMonth(t time.Time) string {
	return fmt.Sprintf("%04d/%02d", t.Year(), int(t.Month()))
}
