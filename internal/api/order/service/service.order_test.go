package ordersvc

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"caisseflow/internal/workflow"
)

func TestReminderFlagField(t *testing.T) {
	cases := map[string]string{
		ReminderAdmin:    "admin_reminder_sent",
		ReminderPayment:  "payment_reminder_sent",
		ReminderProforma: "proforma_reminder_sent",
	}
	for reminderType, want := range cases {
		got, err := reminderFlagField(reminderType)
		if err != nil {
			t.Fatalf("reminderFlagField(%s): %v", reminderType, err)
		}
		if got != want {
			t.Errorf("reminderFlagField(%s) = %q, want %q", reminderType, got, want)
		}
	}

	if _, err := reminderFlagField("unknown"); err == nil {
		t.Error("expected error for unknown reminder type")
	}
}

func TestStaleFilterAdmin(t *testing.T) {
	cutoff := time.Now().Add(-24 * time.Hour)
	filter, err := staleFilter(ReminderAdmin, cutoff)
	if err != nil {
		t.Fatal(err)
	}

	if filter["statut"] != workflow.StatusPending {
		t.Errorf("statut = %v, want %q", filter["statut"], workflow.StatusPending)
	}
	createdAt, ok := filter["createdAt"].(bson.M)
	if !ok {
		t.Fatalf("createdAt clause missing: %v", filter)
	}
	if createdAt["$lte"] != cutoff.UnixMilli() {
		t.Errorf("cutoff = %v, want %v", createdAt["$lte"], cutoff.UnixMilli())
	}
	// The sent-flag must not narrow the candidate set: the digest goes
	// out on every run, only the direct reminder is claim-gated.
	if _, present := filter["admin_reminder_sent"]; present {
		t.Error("stale filter must not reference the sent flag")
	}
}

func TestStaleFilterPaymentRequiresBalanceDue(t *testing.T) {
	filter, err := staleFilter(ReminderPayment, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if filter["statut"] != workflow.StatusValidated {
		t.Errorf("statut = %v, want %q", filter["statut"], workflow.StatusValidated)
	}
	remaining, ok := filter["remainingAmount"].(bson.M)
	if !ok || remaining["$gt"] != 0 {
		t.Errorf("expected remainingAmount > 0 clause, got %v", filter["remainingAmount"])
	}
	if filter["proformas.validated"] != true {
		t.Error("payment reminder must require a validated proforma")
	}
}

func TestStaleFilterUnknownType(t *testing.T) {
	if _, err := staleFilter("bogus", time.Now()); err == nil {
		t.Error("expected error for unknown reminder type")
	}
}
