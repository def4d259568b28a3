package seqsvc

import "testing"

func TestFormatID(t *testing.T) {
	cases := []struct {
		prefix    string
		yearMonth string
		number    int64
		want      string
	}{
		{PrefixOrder, "2025/03", 42, "CMD/2025/03/0042"},
		{PrefixPayment, "2025/12", 1, "PAY/2025/12/0001"},
		{PrefixFunding, "2026/01", 9999, "FUND/2026/01/9999"},
		{PrefixTransfer, "2026/01", 10000, "TRANS/2026/01/10000"},
	}
	for _, tc := range cases {
		if got := FormatID(tc.prefix, tc.yearMonth, tc.number); got != tc.want {
			t.Errorf("FormatID(%s, %s, %d) = %q, want %q",
				tc.prefix, tc.yearMonth, tc.number, got, tc.want)
		}
	}
}
