package ordersvc

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	ordermodels "caisseflow/internal/api/order/models"
	"caisseflow/internal/workflow"
)

func orderToBsonD(t *testing.T, order ordermodels.Order) bson.D {
	t.Helper()
	raw, err := bson.Marshal(order)
	if err != nil {
		t.Fatalf("marshal mock order: %v", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal mock order: %v", err)
	}
	return doc
}

func TestClaimReminderWinnerAndLoser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("winner gets the order back", func(mt *mtest.T) {
		claimed := ordermodels.Order{
			IDCommande:        "CMD/2025/04/0031",
			Statut:            workflow.StatusPending,
			AdminReminderSent: true,
			DelayHistory: []ordermodels.DelayEntry{
				{Type: ReminderAdmin, Details: "Rappel envoyé"},
			},
		}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: orderToBsonD(mt.T, claimed)}})

		service := NewOrderService(mt.Coll, nil)
		order, won, err := service.ClaimReminder(context.Background(), claimed.IDCommande, ReminderAdmin)
		if err != nil {
			mt.Fatalf("ClaimReminder() error = %v", err)
		}
		if !won {
			mt.Fatal("the first claim must win")
		}
		if order.IDCommande != claimed.IDCommande || !order.AdminReminderSent {
			mt.Errorf("claimed order = %+v, want the flagged document back", order)
		}
	})

	mt.Run("loser backs off without error", func(mt *mtest.T) {
		// The sent-flag sits in the claim filter: a second run matches
		// nothing and must treat the miss as already-handled.
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		service := NewOrderService(mt.Coll, nil)
		order, won, err := service.ClaimReminder(context.Background(), "CMD/2025/04/0031", ReminderAdmin)
		if err != nil {
			mt.Fatalf("a lost claim is not an error, got %v", err)
		}
		if won {
			mt.Fatal("a second claim on the same flag must lose")
		}
		if order.IDCommande != "" {
			mt.Errorf("lost claim returned a document: %+v", order)
		}
	})

	mt.Run("unknown reminder type is rejected", func(mt *mtest.T) {
		service := NewOrderService(mt.Coll, nil)
		if _, _, err := service.ClaimReminder(context.Background(), "CMD/2025/04/0031", "weekly"); err == nil {
			mt.Fatal("an unknown reminder type must not reach the database")
		}
	})
}
