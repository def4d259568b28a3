// Package paysvc implements the payment request lifecycle.
package paysvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "caisseflow/internal/api/base/service"
	ordermodels "caisseflow/internal/api/order/models"
	"caisseflow/internal/api/payment/dto"
	paymodels "caisseflow/internal/api/payment/models"
	seqsvc "caisseflow/internal/api/sequence/service"
	"caisseflow/internal/common"
	"caisseflow/internal/global"
	"caisseflow/internal/workflow"
)

// PaymentService owns the payment_requests collection.
type PaymentService struct {
	*basesvc.BaseServiceMongoImpl[paymodels.PaymentRequest]
	sequences *seqsvc.SequenceService
}

// NewPaymentService wires the service over its collection and the
// shared sequence generator.
func NewPaymentService(collection *mongo.Collection, sequences *seqsvc.SequenceService) *PaymentService {
	return &PaymentService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[paymodels.PaymentRequest](collection),
		sequences:            sequences,
	}
}

// Create registers a new payment request in pending state.
func (s *PaymentService) Create(ctx context.Context, input *dto.CreatePaymentRequestInput) (paymodels.PaymentRequest, error) {
	var zero paymodels.PaymentRequest

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de demande de paiement invalides", common.StatusBadRequest, err.Error())
	}

	idPaiement, err := s.sequences.Next(ctx, seqsvc.PrefixPayment)
	if err != nil {
		return zero, err
	}

	request := paymodels.PaymentRequest{
		IDPaiement:    idPaiement,
		RequesterID:   input.RequesterID,
		RequesterName: input.RequesterName,
		ChannelID:     input.ChannelID,
		Title:         input.Title,
		Description:   input.Description,
		Beneficiary:   input.Beneficiary,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Statut:        workflow.StatusPending,
		Workflow: workflow.State{
			Stage: "submitted",
			History: []workflow.HistoryEntry{
				workflow.NewEntry("submitted", input.RequesterID, "Demande de paiement créée"),
			},
		},
		Justificatifs: []paymodels.Justificatif{},
	}

	return s.InsertOne(ctx, request)
}

// FindByIDPaiement loads a request by its human-readable id.
func (s *PaymentService) FindByIDPaiement(ctx context.Context, idPaiement string) (paymodels.PaymentRequest, error) {
	return s.FindOne(ctx, bson.M{"id_paiement": idPaiement}, nil)
}

// Validate approves a pending payment request.
func (s *PaymentService) Validate(ctx context.Context, idPaiement, actorID string) (paymodels.PaymentRequest, error) {
	now := time.Now().UnixMilli()
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"statut":         workflow.StatusValidated,
			"validatedBy":    actorID,
			"validatedAt":    now,
			"workflow.stage": "validated",
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("validated", actorID, "Demande validée"),
		},
	}
	return s.transition(ctx, idPaiement, workflow.StatusValidated, update)
}

// Reject refuses a pending payment request. The reason is mandatory.
func (s *PaymentService) Reject(ctx context.Context, idPaiement, actorID, reason string) (paymodels.PaymentRequest, error) {
	var zero paymodels.PaymentRequest
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
	return s.transition(ctx, idPaiement, workflow.StatusRejected, update)
}

// MarkPaid records the disbursement on a validated request. Guarded on
// paymentDone so the flag flips at most once.
func (s *PaymentService) MarkPaid(ctx context.Context, idPaiement string, input *dto.MarkPaidInput) (paymodels.PaymentRequest, error) {
	var zero paymodels.PaymentRequest

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de paiement invalides", common.StatusBadRequest, err.Error())
	}

	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"paymentDone":    true,
			"paymentMode":    input.PaymentMode,
			"paidBy":         input.PaidBy,
			"paidAt":         time.Now().UnixMilli(),
			"workflow.stage": "paid",
		},
		Push: map[string]interface{}{
			"workflow.history": workflow.NewEntry("paid", input.PaidBy, input.PaymentMode),
		},
	}

	filter := bson.M{
		"id_paiement": idPaiement,
		"statut":      workflow.StatusValidated,
		"paymentDone": false,
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			current, loadErr := s.FindByIDPaiement(ctx, idPaiement)
			if loadErr != nil {
				return zero, common.ErrNotFound
			}
			if current.PaymentDone {
				return zero, common.NewInvalidState("Cette demande a déjà été payée", current.Statut)
			}
			return zero, common.NewInvalidState(
				"Le paiement ne peut être enregistré que sur une demande validée (statut actuel: "+current.Statut+")",
				current.Statut,
			)
		}
		return zero, err
	}
	return updated, nil
}

// AddJustificatif attaches a proof of payment to a request.
func (s *PaymentService) AddJustificatif(ctx context.Context, idPaiement string, input *dto.AddJustificatifInput) (paymodels.PaymentRequest, error) {
	var zero paymodels.PaymentRequest

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Justificatif invalide", common.StatusBadRequest, err.Error())
	}

	justificatif := paymodels.Justificatif{
		Type:       input.Type,
		URL:        input.URL,
		Title:      input.Title,
		UploadedBy: input.UploadedBy,
		UploadedAt: time.Now().UnixMilli(),
	}

	update := &basesvc.UpdateData{
		Push: map[string]interface{}{
			"justificatifs":    justificatif,
			"workflow.history": workflow.NewEntry("justificatif_added", input.UploadedBy, input.Title),
		},
	}
	updated, err := s.FindOneAndUpdate(ctx, bson.M{"id_paiement": idPaiement}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, err
	}
	return updated, nil
}

// FindStale returns pending requests older than the cutoff. Like the
// order digest, the sent-flag does not narrow this candidate set.
func (s *PaymentService) FindStale(ctx context.Context, cutoff time.Time) ([]paymodels.PaymentRequest, error) {
	filter := bson.M{
		"statut":    workflow.StatusPending,
		"createdAt": bson.M{"$lte": cutoff.UnixMilli()},
	}
	return s.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// ClaimReminder atomically flips the admin reminder flag. Exactly one
// concurrent claimant wins; the loser gets claimed=false.
func (s *PaymentService) ClaimReminder(ctx context.Context, idPaiement string) (paymodels.PaymentRequest, bool, error) {
	var zero paymodels.PaymentRequest

	filter := bson.M{"id_paiement": idPaiement, "admin_reminder_sent": false}
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{"admin_reminder_sent": true},
		Push: map[string]interface{}{
			"delay_history": ordermodels.DelayEntry{
				Type:      "admin",
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

// transition runs a guarded pending→target update and reports the
// actual current state when the guard does not match.
func (s *PaymentService) transition(ctx context.Context, idPaiement, target string, update *basesvc.UpdateData) (paymodels.PaymentRequest, error) {
	var zero paymodels.PaymentRequest

	filter := bson.M{"id_paiement": idPaiement, "statut": workflow.StatusPending}
	updated, err := s.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			current, loadErr := s.FindByIDPaiement(ctx, idPaiement)
			if loadErr != nil {
				return zero, common.ErrNotFound
			}
			return zero, workflow.Guard(workflow.KindPaymentRequest, current.Statut, target)
		}
		return zero, err
	}
	return updated, nil
}
