package ordersvc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "caisseflow/internal/api/base/service"
	"caisseflow/internal/api/order/dto"
	ordermodels "caisseflow/internal/api/order/models"
	"caisseflow/internal/common"
	"caisseflow/internal/global"
	"caisseflow/internal/workflow"
)

// RecordPayment appends one partial payment to a validated order and
// moves the paid/remaining counters in the same atomic update.
func (s *OrderService) RecordPayment(ctx context.Context, idCommande string, input *dto.RecordPaymentInput) (ordermodels.Order, error) {
	var zero ordermodels.Order

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de paiement invalides", common.StatusBadRequest, err.Error())
	}

	payment := ordermodels.Payment{
		PaymentID: uuid.NewString(),
		Mode:      input.Mode,
		Amount:    input.Amount,
		Currency:  input.Currency,
		ProofURL:  input.ProofURL,
		PaidBy:    input.PaidBy,
		PaidAt:    time.Now().UnixMilli(),
	}

	update := &basesvc.UpdateData{
		Inc: map[string]interface{}{
			"amountPaid":      input.Amount,
			"remainingAmount": -input.Amount,
		},
		Push: map[string]interface{}{
			"payments":         payment,
			"workflow.history": workflow.NewEntry("payment_recorded", input.PaidBy, payment.Mode),
		},
	}

	filter := bson.M{"id_commande": idCommande, "statut": workflow.StatusValidated}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			current, loadErr := s.FindByIDCommande(ctx, idCommande)
			if loadErr != nil {
				return zero, common.ErrNotFound
			}
			return zero, common.NewInvalidState(
				"Un paiement ne peut être enregistré que sur une commande validée (statut actuel: "+current.Statut+")",
				current.Statut,
			)
		}
		return zero, err
	}
	return updated, nil
}
