package utility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1500", 1500},
		{"1 500", 1500},
		{"1500.50", 1500.50},
		{"1500,50", 1500.50},
		{" 12000 ", 12000},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.raw)
		assert.NoError(t, err, "ParseAmount(%q)", tc.raw)
		assert.Equal(t, tc.want, got, "ParseAmount(%q)", tc.raw)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "12abc", "1.2.3"} {
		_, err := ParseAmount(raw)
		assert.Error(t, err, "ParseAmount(%q)", raw)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{500, "500"},
		{1500, "1 500"},
		{12500.50, "12 500.50"},
		{1234567, "1 234 567"},
		{-2500, "-2 500"},
		// Fractions that round up to the next cent must carry into the
		// whole part, never render as ".00".
		{12.999999, "13"},
		{999.999, "1 000"},
		{12.995, "13"},
		{12.994, "12.99"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(tc.v), "FormatAmount(%v)", tc.v)
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 42, 1500, 12500.50, 999999.25} {
		got, err := ParseAmount(FormatAmount(v))
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestYearMonth(t *testing.T) {
	assert.Equal(t, "2025/03", YearMonth(time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024/12", YearMonth(time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)))
}
