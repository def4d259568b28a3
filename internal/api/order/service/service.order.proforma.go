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

// AddProforma attaches a supplier quotation to an order. Quotations can
// be added while the order is pending or validated.
func (s *OrderService) AddProforma(ctx context.Context, idCommande string, input *dto.AddProformaInput) (ordermodels.Order, error) {
	var zero ordermodels.Order

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de proforma invalides", common.StatusBadRequest, err.Error())
	}

	proforma := ordermodels.Proforma{
		ProformaID: uuid.NewString(),
		Supplier:   input.Supplier,
		Amount:     input.Amount,
		Currency:   input.Currency,
		FileURL:    input.FileURL,
		UploadedBy: input.UploadedBy,
		UploadedAt: time.Now().UnixMilli(),
	}

	update := &basesvc.UpdateData{
		Push: map[string]interface{}{
			"proformas":        proforma,
			"workflow.history": workflow.NewEntry("proforma_added", input.UploadedBy, "Proforma "+input.Supplier),
		},
	}

	filter := bson.M{
		"id_commande": idCommande,
		"statut":      bson.M{"$in": []string{workflow.StatusPending, workflow.StatusValidated}},
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, s.explainMiss(ctx, idCommande, workflow.StatusValidated, err)
	}
	return updated, nil
}

// CheckProformaValidatable is the dialog-open precheck: it refuses when
// another proforma on the order is already validated. The same rule is
// re-verified atomically at commit time by ValidateProforma, closing
// the window between dialog open and submit.
func (s *OrderService) CheckProformaValidatable(ctx context.Context, idCommande, proformaID string) error {
	order, err := s.FindByIDCommande(ctx, idCommande)
	if err != nil {
		return err
	}
	target := order.ProformaByID(proformaID)
	if target == nil {
		return common.ErrNotFound
	}
	if existing := order.ValidatedProforma(); existing != nil {
		return common.NewInvalidState(
			"Une proforma est déjà validée pour cette commande ("+existing.Supplier+")",
			order.Statut,
		)
	}
	return nil
}

// ValidateProforma marks one proforma as the retained quotation. The
// no-sibling-validated rule lives in the update filter, so concurrent
// validations of two different proformas cannot both commit.
func (s *OrderService) ValidateProforma(ctx context.Context, idCommande, proformaID, actorID string) (ordermodels.Order, error) {
	var zero ordermodels.Order
	now := time.Now().UnixMilli()

	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"proformas.$[p].validated":   true,
			"proformas.$[p].validatedBy": actorID,
			"proformas.$[p].validatedAt": now,
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("proforma_validated", actorID, "Proforma retenue"),
		},
	}

	filter := bson.M{
		"id_commande":          idCommande,
		"proformas.proformaId": proformaID,
		"proformas":            bson.M{"$not": bson.M{"$elemMatch": bson.M{"validated": true}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"p.proformaId": proformaID}},
		})

	updated, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		return zero, s.explainProformaMiss(ctx, idCommande, proformaID, err)
	}

	// Anchor the payable amount now that a quotation is retained.
	if p := updated.ProformaByID(proformaID); p != nil {
		remaining := p.Amount - updated.AmountPaid
		updated, err = s.UpdateOne(ctx,
			bson.M{"id_commande": idCommande},
			&basesvc.UpdateData{Set: map[string]interface{}{"remainingAmount": remaining}},
			nil)
		if err != nil {
			return zero, err
		}
	}
	return updated, nil
}

// DeleteProforma removes a quotation. Blocked when the target or any
// sibling proforma is already validated.
func (s *OrderService) DeleteProforma(ctx context.Context, idCommande, proformaID, actorID string) (ordermodels.Order, error) {
	var zero ordermodels.Order

	update := &basesvc.UpdateData{
		Pull: map[string]interface{}{
			"proformas": bson.M{"proformaId": proformaID},
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("proforma_deleted", actorID, "Proforma supprimée"),
		},
	}

	filter := bson.M{
		"id_commande":          idCommande,
		"proformas.proformaId": proformaID,
		"proformas":            bson.M{"$not": bson.M{"$elemMatch": bson.M{"validated": true}}},
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, s.explainProformaMiss(ctx, idCommande, proformaID, err)
	}
	return updated, nil
}

// explainProformaMiss distinguishes a missing order, a missing proforma
// and the already-validated guard.
func (s *OrderService) explainProformaMiss(ctx context.Context, idCommande, proformaID string, err error) error {
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	order, loadErr := s.FindByIDCommande(ctx, idCommande)
	if loadErr != nil {
		return common.ErrNotFound
	}
	if order.ProformaByID(proformaID) == nil {
		return common.ErrNotFound
	}
	if existing := order.ValidatedProforma(); existing != nil {
		return common.NewInvalidState(
			"Une proforma est déjà validée pour cette commande ("+existing.Supplier+")",
			order.Statut,
		)
	}
	return err
}
