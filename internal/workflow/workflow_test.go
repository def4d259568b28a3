package workflow

import (
	"errors"
	"testing"

	"caisseflow/internal/common"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		kind    EntityKind
		current string
		target  string
		want    bool
	}{
		{"order pending to validated", KindOrder, StatusPending, StatusValidated, true},
		{"order pending to rejected", KindOrder, StatusPending, StatusRejected, true},
		{"order pending to deleted", KindOrder, StatusPending, StatusDeleted, true},
		{"order validated to deleted", KindOrder, StatusValidated, StatusDeleted, true},
		{"order validated to rejected", KindOrder, StatusValidated, StatusRejected, false},
		{"order rejected is terminal", KindOrder, StatusRejected, StatusValidated, false},
		{"funding pending to pre-approved", KindFundingRequest, StatusPending, StatusPreApproved, true},
		{"funding pending straight to validated", KindFundingRequest, StatusPending, StatusValidated, false},
		{"funding pre-approved to validated", KindFundingRequest, StatusPreApproved, StatusValidated, true},
		{"funding pre-approved to rejected", KindFundingRequest, StatusPreApproved, StatusRejected, true},
		{"funding validated is terminal", KindFundingRequest, StatusValidated, StatusRejected, false},
		{"transfer pending to approved", KindTransferRequest, StatusPending, StatusApproved, true},
		{"transfer approved is terminal", KindTransferRequest, StatusApproved, StatusRejected, false},
		{"transfer rejected is terminal", KindTransferRequest, StatusRejected, StatusApproved, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.kind, tc.current, tc.target); got != tc.want {
				t.Errorf("CanTransition(%s, %s, %s) = %v, want %v",
					tc.kind, tc.current, tc.target, got, tc.want)
			}
		})
	}
}

func TestGuardReportsCurrentState(t *testing.T) {
	err := Guard(KindTransferRequest, StatusApproved, StatusApproved)
	if err == nil {
		t.Fatal("expected error on terminal state")
	}

	var appErr *common.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *common.Error, got %T", err)
	}
	details, ok := appErr.Details.(map[string]string)
	if !ok {
		t.Fatalf("expected details map, got %T", appErr.Details)
	}
	if details["currentState"] != StatusApproved {
		t.Errorf("currentState = %q, want %q", details["currentState"], StatusApproved)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusApproved, StatusRejected} {
		if !IsTerminal(KindTransferRequest, status) {
			t.Errorf("transfer status %q should be terminal", status)
		}
	}
	if IsTerminal(KindTransferRequest, StatusPending) {
		t.Error("pending transfer should not be terminal")
	}
	if IsTerminal(KindFundingRequest, StatusPreApproved) {
		t.Error("pre-approved funding should not be terminal")
	}
}

func TestRequireReason(t *testing.T) {
	if err := RequireReason(""); !errors.Is(err, common.ErrReasonRequired) {
		t.Errorf("empty reason: got %v, want ErrReasonRequired", err)
	}
	for _, reason := range []string{" ", "   ", "\t", "\n \t"} {
		if err := RequireReason(reason); !errors.Is(err, common.ErrReasonRequired) {
			t.Errorf("whitespace-only reason %q: got %v, want ErrReasonRequired", reason, err)
		}
	}
	if err := RequireReason("budget dépassé"); err != nil {
		t.Errorf("non-empty reason: got %v, want nil", err)
	}
}

func TestNewEntryStampsTime(t *testing.T) {
	entry := NewEntry("approved", "U123", "ok")
	if entry.Timestamp == 0 {
		t.Error("expected non-zero timestamp")
	}
	if entry.Stage != "approved" || entry.Actor != "U123" {
		t.Errorf("unexpected entry %+v", entry)
	}
}
