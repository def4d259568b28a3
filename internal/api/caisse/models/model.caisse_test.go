package caissemodels

import "testing"

func TestBalanceMissingCurrencyIsZero(t *testing.T) {
	caisse := Caisse{Balances: map[string]float64{"XOF": 1000}}
	if got := caisse.Balance("XOF"); got != 1000 {
		t.Errorf("Balance(XOF) = %v, want 1000", got)
	}
	if got := caisse.Balance("USD"); got != 0 {
		t.Errorf("Balance(USD) = %v, want 0", got)
	}

	var empty Caisse
	if got := empty.Balance("EUR"); got != 0 {
		t.Errorf("Balance on nil map = %v, want 0", got)
	}
}

func TestRequestLookupsByID(t *testing.T) {
	caisse := Caisse{
		FundingRequests: []FundingRequest{
			{RequestID: "FUND/2025/03/0001"},
			{RequestID: "FUND/2025/03/0002"},
		},
		TransferRequests: []TransferRequest{
			{TransferID: "TRANS/2025/03/0001"},
		},
	}

	if f := caisse.FundingRequestByID("FUND/2025/03/0002"); f == nil {
		t.Error("expected funding request lookup to succeed")
	}
	if f := caisse.FundingRequestByID("FUND/2025/03/9999"); f != nil {
		t.Error("expected nil for unknown funding request")
	}
	if tr := caisse.TransferRequestByID("TRANS/2025/03/0001"); tr == nil {
		t.Error("expected transfer request lookup to succeed")
	}
	if tr := caisse.TransferRequestByID("nope"); tr != nil {
		t.Error("expected nil for unknown transfer request")
	}
}
