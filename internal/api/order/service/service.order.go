// Package ordersvc implements the purchase order lifecycle: creation,
// validation, rejection, edition and soft deletion.
package ordersvc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "caisseflow/internal/api/base/service"
	"caisseflow/internal/api/order/dto"
	ordermodels "caisseflow/internal/api/order/models"
	seqsvc "caisseflow/internal/api/sequence/service"
	"caisseflow/internal/common"
	"caisseflow/internal/global"
	"caisseflow/internal/workflow"
)

// OrderService owns the orders collection.
type OrderService struct {
	*basesvc.BaseServiceMongoImpl[ordermodels.Order]
	sequences *seqsvc.SequenceService
}

// NewOrderService wires the order service over its collection and the
// shared sequence generator.
func NewOrderService(collection *mongo.Collection, sequences *seqsvc.SequenceService) *OrderService {
	return &OrderService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[ordermodels.Order](collection),
		sequences:            sequences,
	}
}

// Create registers a new order in pending state with a fresh CMD id.
func (s *OrderService) Create(ctx context.Context, input *dto.CreateOrderInput) (ordermodels.Order, error) {
	var zero ordermodels.Order

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de commande invalides", common.StatusBadRequest, err.Error())
	}

	idCommande, err := s.sequences.Next(ctx, seqsvc.PrefixOrder)
	if err != nil {
		return zero, err
	}

	articles := make([]ordermodels.Article, 0, len(input.Articles))
	for _, a := range input.Articles {
		articles = append(articles, ordermodels.Article{
			ArticleID:   uuid.NewString(),
			Designation: a.Designation,
			Quantity:    a.Quantity,
			Unit:        a.Unit,
			Photos:      a.Photos,
		})
	}

	order := ordermodels.Order{
		IDCommande:    idCommande,
		RequesterID:   input.RequesterID,
		RequesterName: input.RequesterName,
		ChannelID:     input.ChannelID,
		ChannelName:   input.ChannelName,
		Statut:        workflow.StatusPending,
		Workflow: workflow.State{
			Stage: "submitted",
			History: []workflow.HistoryEntry{
				workflow.NewEntry("submitted", input.RequesterID, "Commande créée"),
			},
		},
		Articles:  articles,
		Proformas: []ordermodels.Proforma{},
		Payments:  []ordermodels.Payment{},
	}

	return s.InsertOne(ctx, order)
}

// FindByIDCommande loads an order by its human-readable id.
func (s *OrderService) FindByIDCommande(ctx context.Context, idCommande string) (ordermodels.Order, error) {
	return s.FindOne(ctx, bson.M{"id_commande": idCommande}, nil)
}

// Validate moves a pending order to Validé. The statut guard sits in
// the update filter, so two concurrent approvals cannot both win.
func (s *OrderService) Validate(ctx context.Context, idCommande, actorID string) (ordermodels.Order, error) {
	now := time.Now().UnixMilli()
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"statut":         workflow.StatusValidated,
			"validatedBy":    actorID,
			"validatedAt":    now,
			"workflow.stage": "validated",
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("validated", actorID, "Commande validée"),
		},
	}
	return s.transition(ctx, idCommande, workflow.StatusValidated, update)
}

// Reject moves a pending order to Rejeté. The reason is mandatory.
func (s *OrderService) Reject(ctx context.Context, idCommande, actorID, reason string) (ordermodels.Order, error) {
	var zero ordermodels.Order
	if err := workflow.RequireReason(reason); err != nil {
		return zero, err
	}

	now := time.Now().UnixMilli()
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"statut":          workflow.StatusRejected,
			"rejectedBy":      actorID,
			"rejectedAt":      now,
			"rejectionReason": reason,
			"workflow.stage":  "rejected",
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("rejected", actorID, reason),
		},
	}
	return s.transition(ctx, idCommande, workflow.StatusRejected, update)
}

// SoftDelete marks an order Supprimée without removing the document.
// Allowed from both pending and validated states.
func (s *OrderService) SoftDelete(ctx context.Context, idCommande, actorID, reason string) (ordermodels.Order, error) {
	var zero ordermodels.Order
	if err := workflow.RequireReason(reason); err != nil {
		return zero, err
	}

	now := time.Now().UnixMilli()
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"statut":         workflow.StatusDeleted,
			"deleted":        true,
			"deletedAt":      now,
			"deletedBy":      actorID,
			"deletionReason": reason,
			"workflow.stage": "deleted",
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("deleted", actorID, reason),
		},
	}

	filter := bson.M{
		"id_commande": idCommande,
		"statut":      bson.M{"$in": []string{workflow.StatusPending, workflow.StatusValidated}},
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, s.explainMiss(ctx, idCommande, workflow.StatusDeleted, err)
	}
	return updated, nil
}

// Edit replaces the line items of a pending order.
func (s *OrderService) Edit(ctx context.Context, idCommande string, input *dto.EditOrderInput) (ordermodels.Order, error) {
	var zero ordermodels.Order

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de commande invalides", common.StatusBadRequest, err.Error())
	}

	articles := make([]ordermodels.Article, 0, len(input.Articles))
	for _, a := range input.Articles {
		articles = append(articles, ordermodels.Article{
			ArticleID:   uuid.NewString(),
			Designation: a.Designation,
			Quantity:    a.Quantity,
			Unit:        a.Unit,
			Photos:      a.Photos,
		})
	}

	update := &basesvc.UpdateData{
		Set: map[string]interface{}{"articles": articles},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("edited", input.EditorID, "Articles modifiés"),
		},
	}

	filter := bson.M{"id_commande": idCommande, "statut": workflow.StatusPending}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, s.explainMiss(ctx, idCommande, workflow.StatusPending, err)
	}
	return updated, nil
}

// transition runs a guarded pending→target update and reports the
// actual current state when the guard does not match.
func (s *OrderService) transition(ctx context.Context, idCommande, target string, update *basesvc.UpdateData) (ordermodels.Order, error) {
	var zero ordermodels.Order

	filter := bson.M{"id_commande": idCommande, "statut": workflow.StatusPending}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, s.explainMiss(ctx, idCommande, target, err)
	}
	return updated, nil
}

// explainMiss turns a guarded-update miss into either NotFound (the
// order does not exist) or InvalidState quoting the current statut.
func (s *OrderService) explainMiss(ctx context.Context, idCommande, target string, err error) error {
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	current, loadErr := s.FindByIDCommande(ctx, idCommande)
	if loadErr != nil {
		return common.ErrNotFound
	}
	return workflow.Guard(workflow.KindOrder, current.Statut, target)
}
