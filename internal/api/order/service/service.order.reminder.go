package ordersvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "caisseflow/internal/api/base/service"
	ordermodels "caisseflow/internal/api/order/models"
	"caisseflow/internal/common"
	"caisseflow/internal/workflow"
)

// Reminder types. Each maps to exactly one sent-flag on the order.
const (
	ReminderAdmin    = "admin"
	ReminderPayment  = "payment"
	ReminderProforma = "proforma"
)

func reminderFlagField(reminderType string) (string, error) {
	switch reminderType {
	case ReminderAdmin:
		return "admin_reminder_sent", nil
	case ReminderPayment:
		return "payment_reminder_sent", nil
	case ReminderProforma:
		return "proforma_reminder_sent", nil
	default:
		return "", common.NewError(common.ErrCodeBusinessOperation,
			"Type de rappel inconnu: "+reminderType, common.StatusBadRequest, nil)
	}
}

// staleFilter returns the candidate predicate for a reminder type. The
// sent-flag is deliberately absent: candidates feed the daily digest on
// every run, while the flag only gates the per-order direct reminder.
func staleFilter(reminderType string, cutoff time.Time) (bson.M, error) {
	cutoffMs := cutoff.UnixMilli()
	switch reminderType {
	case ReminderAdmin:
		// Waiting for validation.
		return bson.M{
			"statut":    workflow.StatusPending,
			"createdAt": bson.M{"$lte": cutoffMs},
		}, nil
	case ReminderProforma:
		// Validated but no quotation retained yet.
		return bson.M{
			"statut":    workflow.StatusValidated,
			"createdAt": bson.M{"$lte": cutoffMs},
			"proformas": bson.M{"$not": bson.M{"$elemMatch": bson.M{"validated": true}}},
		}, nil
	case ReminderPayment:
		// Quotation retained but balance still due.
		return bson.M{
			"statut":              workflow.StatusValidated,
			"createdAt":           bson.M{"$lte": cutoffMs},
			"proformas.validated": true,
			"remainingAmount":     bson.M{"$gt": 0},
		}, nil
	default:
		return nil, common.NewError(common.ErrCodeBusinessOperation,
			"Type de rappel inconnu: "+reminderType, common.StatusBadRequest, nil)
	}
}

// FindStale returns the orders matching the stale predicate for a
// reminder type, regardless of whether they were already reminded.
func (s *OrderService) FindStale(ctx context.Context, reminderType string, cutoff time.Time) ([]ordermodels.Order, error) {
	filter, err := staleFilter(reminderType, cutoff)
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// ClaimReminder atomically flips the sent-flag for one order and
// reminder type. The flag sits in the filter, so when two scheduler
// runs race only one claim matches; the loser gets claimed=false.
func (s *OrderService) ClaimReminder(ctx context.Context, idCommande, reminderType string) (ordermodels.Order, bool, error) {
	var zero ordermodels.Order

	flag, err := reminderFlagField(reminderType)
	if err != nil {
		return zero, false, err
	}

	filter := bson.M{"id_commande": idCommande, flag: false}
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{flag: true},
		Push: map[string]interface{}{
			"delay_history": ordermodels.DelayEntry{
				Type:      reminderType,
				Timestamp: time.Now().UnixMilli(),
				Details:   "Rappel envoyé",
			},
		},
	}

	claimed, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return claimed, true, nil
}
