package slackhdl

import (
	"testing"

	ordermodels "caisseflow/internal/api/order/models"
)

func TestArticlesTextRoundTrip(t *testing.T) {
	order := &ordermodels.Order{
		Articles: []ordermodels.Article{
			{Designation: "Ciment 50kg", Quantity: 10, Unit: "sac"},
			{Designation: "Fer à béton 12mm", Quantity: 2.5, Unit: "tonne"},
		},
	}

	articles, badLine := parseArticlesText(articlesText(order))
	if badLine != "" {
		t.Fatalf("rendered lines must parse back, rejected %q", badLine)
	}
	if len(articles) != 2 {
		t.Fatalf("parsed %d articles, want 2", len(articles))
	}
	if articles[0].Designation != "Ciment 50kg" || articles[0].Quantity != 10 || articles[0].Unit != "sac" {
		t.Errorf("first article = %+v", articles[0])
	}
	if articles[1].Designation != "Fer à béton 12mm" || articles[1].Quantity != 2.5 {
		t.Errorf("second article = %+v", articles[1])
	}
}

func TestParseArticlesTextRejectsMalformedLines(t *testing.T) {
	cases := []string{
		"",
		"   \n\n",
		"trois sacs ciment", // quantity must be numeric
		"10 sac",            // designation missing
		"0 sac ciment",      // zero quantity
	}
	for _, raw := range cases {
		if articles, _ := parseArticlesText(raw); len(articles) != 0 {
			t.Errorf("parseArticlesText(%q) accepted %v", raw, articles)
		}
	}
}

func TestParseArticlesTextSkipsBlankLines(t *testing.T) {
	articles, badLine := parseArticlesText("\n10 sac ciment\n\n 3 rouleau fil de fer \n")
	if badLine != "" {
		t.Fatalf("rejected %q", badLine)
	}
	if len(articles) != 2 {
		t.Fatalf("parsed %d articles, want 2", len(articles))
	}
	if articles[1].Designation != "fil de fer" || articles[1].Unit != "rouleau" || articles[1].Quantity != 3 {
		t.Errorf("second article = %+v", articles[1])
	}
}
