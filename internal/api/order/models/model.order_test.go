package ordermodels

import "testing"

func TestValidatedProforma(t *testing.T) {
	order := Order{
		Proformas: []Proforma{
			{ProformaID: "a", Supplier: "Alpha", Amount: 100},
			{ProformaID: "b", Supplier: "Beta", Amount: 200, Validated: true},
		},
	}

	p := order.ValidatedProforma()
	if p == nil || p.ProformaID != "b" {
		t.Fatalf("expected proforma b, got %+v", p)
	}
	if order.TotalAmount() != 200 {
		t.Errorf("TotalAmount = %v, want 200", order.TotalAmount())
	}
}

func TestValidatedProformaNone(t *testing.T) {
	order := Order{Proformas: []Proforma{{ProformaID: "a"}}}
	if order.ValidatedProforma() != nil {
		t.Error("expected nil when no proforma validated")
	}
	if order.TotalAmount() != 0 {
		t.Errorf("TotalAmount = %v, want 0", order.TotalAmount())
	}
}

func TestProformaByID(t *testing.T) {
	order := Order{
		Proformas: []Proforma{
			{ProformaID: "a", Supplier: "Alpha"},
			{ProformaID: "b", Supplier: "Beta"},
		},
	}
	if p := order.ProformaByID("b"); p == nil || p.Supplier != "Beta" {
		t.Errorf("ProformaByID(b) = %+v", p)
	}
	if order.ProformaByID("missing") != nil {
		t.Error("expected nil for unknown id")
	}
}
