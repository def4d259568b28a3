package caissesvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "caisseflow/internal/api/base/service"
	"caisseflow/internal/api/caisse/dto"
	caissemodels "caisseflow/internal/api/caisse/models"
	seqsvc "caisseflow/internal/api/sequence/service"
	"caisseflow/internal/common"
	"caisseflow/internal/global"
	"caisseflow/internal/utility"
	"caisseflow/internal/workflow"
)

// SubmitFunding registers a pending funding request on the channel's
// caisse and returns the caisse plus the generated request id.
func (s *CaisseService) SubmitFunding(ctx context.Context, input *dto.SubmitFundingInput) (caissemodels.Caisse, string, error) {
	var zero caissemodels.Caisse

	if err := global.Validate.Struct(input); err != nil {
		return zero, "", common.NewError(common.ErrCodeValidationInput, "Données d'alimentation invalides", common.StatusBadRequest, err.Error())
	}

	requestID, err := s.sequences.Next(ctx, seqsvc.PrefixFunding)
	if err != nil {
		return zero, "", err
	}

	request := caissemodels.FundingRequest{
		RequestID:   requestID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Motif:       input.Motif,
		RequesterID: input.RequesterID,
		SubmittedAt: time.Now().UnixMilli(),
		Status:      workflow.StatusPending,
		Workflow: workflow.State{
			Stage: "submitted",
			History: []workflow.HistoryEntry{
				workflow.NewEntry("submitted", input.RequesterID, input.Motif),
			},
		},
	}

	update := &basesvc.UpdateData{
		Push: map[string]interface{}{"fundingRequests": request},
	}
	caisse, err := s.FindOneAndUpdate(ctx, bson.M{"channelId": input.ChannelID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, "", err
	}
	return caisse, requestID, nil
}

// PreApproveFunding moves a pending funding request to Pré-approuvé.
// The status guard lives in the filter's elemMatch, so a concurrent
// second pre-approval loses the update and gets InvalidState.
func (s *CaisseService) PreApproveFunding(ctx context.Context, requestID, actorID string) (caissemodels.Caisse, error) {
	var zero caissemodels.Caisse
	now := time.Now().UnixMilli()

	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"fundingRequests.$[f].status":         workflow.StatusPreApproved,
			"fundingRequests.$[f].preApprovedBy":  actorID,
			"fundingRequests.$[f].preApprovedAt":  now,
			"fundingRequests.$[f].workflow.stage": "pre_approved",
		},
		Push: map[string]interface{}{
			"fundingRequests.$[f].workflow.history": workflow.NewEntry("pre_approved", actorID, "Pré-approbation finance"),
		},
	}

	filter := bson.M{
		"fundingRequests": bson.M{"$elemMatch": bson.M{
			"requestId": requestID,
			"status":    workflow.StatusPending,
		}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"f.requestId": requestID}},
		})

	caisse, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		return zero, s.explainFundingMiss(ctx, requestID, workflow.StatusPreApproved, err)
	}
	return caisse, nil
}

// ApproveFunding finalizes a pre-approved funding request: it credits
// the caisse balance and appends the funding transaction in the same
// atomic update that flips the status. This credit is single-sided —
// funding brings money in from outside the system, so there is no
// paired debit.
func (s *CaisseService) ApproveFunding(ctx context.Context, requestID, actorID, disbursementType string, cheque *dto.ChequeDetailsInput) (caissemodels.Caisse, error) {
	var zero caissemodels.Caisse

	if disbursementType != caissemodels.DisbursementCash && disbursementType != caissemodels.DisbursementCheque {
		return zero, common.NewError(common.ErrCodeValidationInput,
			"Type de décaissement invalide: "+disbursementType, common.StatusBadRequest, nil)
	}
	if disbursementType == caissemodels.DisbursementCheque {
		if cheque == nil {
			return zero, common.NewError(common.ErrCodeValidationInput,
				"Les détails du chèque sont obligatoires", common.StatusBadRequest, nil)
		}
		if err := global.Validate.Struct(cheque); err != nil {
			return zero, common.NewError(common.ErrCodeValidationInput, "Détails du chèque invalides", common.StatusBadRequest, err.Error())
		}
	}

	// Amount and currency come from the stored request, never from the
	// approval payload.
	owner, err := s.FindByFundingRequestID(ctx, requestID)
	if err != nil {
		return zero, err
	}
	request := owner.FundingRequestByID(requestID)
	if request == nil {
		return zero, common.ErrNotFound
	}
	if request.Status != workflow.StatusPreApproved {
		return zero, workflow.Guard(workflow.KindFundingRequest, request.Status, workflow.StatusValidated)
	}

	now := time.Now().UnixMilli()
	tx := caissemodels.Transaction{
		Type:      caissemodels.TxFunding,
		Amount:    request.Amount,
		Currency:  request.Currency,
		Reference: requestID,
		Details:   fmt.Sprintf("Alimentation %s (%s)", utility.FormatAmount(request.Amount), disbursementType),
		Actor:     actorID,
		Timestamp: now,
	}

	set := map[string]interface{}{
		"fundingRequests.$[f].status":           workflow.StatusValidated,
		"fundingRequests.$[f].approvedBy":       actorID,
		"fundingRequests.$[f].approvedAt":       now,
		"fundingRequests.$[f].disbursementType": disbursementType,
		"fundingRequests.$[f].workflow.stage":   "approved",
	}
	if cheque != nil {
		set["fundingRequests.$[f].chequeDetails"] = caissemodels.ChequeDetails{
			Number:   cheque.Number,
			Bank:     cheque.Bank,
			IssuedTo: cheque.IssuedTo,
		}
	}

	update := &basesvc.UpdateData{
		Set: set,
		Inc: map[string]interface{}{"balances." + request.Currency: request.Amount},
		Push: map[string]interface{}{
			"transactions":                          tx,
			"fundingRequests.$[f].workflow.history": workflow.NewEntry("approved", actorID, disbursementType),
		},
	}

	// Re-check the status inside the filter: the load above only
	// produced the amount, the guard must hold at write time.
	filter := bson.M{
		"fundingRequests": bson.M{"$elemMatch": bson.M{
			"requestId": requestID,
			"status":    workflow.StatusPreApproved,
		}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"f.requestId": requestID}},
		})

	caisse, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		return zero, s.explainFundingMiss(ctx, requestID, workflow.StatusValidated, err)
	}
	return caisse, nil
}

// RejectFunding refuses a funding request from either pre-terminal
// state. No balance mutation; the reason is mandatory.
func (s *CaisseService) RejectFunding(ctx context.Context, requestID, actorID, reason string) (caissemodels.Caisse, error) {
	var zero caissemodels.Caisse
	if err := workflow.RequireReason(reason); err != nil {
		return zero, err
	}

	now := time.Now().UnixMilli()
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"fundingRequests.$[f].status":          workflow.StatusRejected,
			"fundingRequests.$[f].rejectedBy":      actorID,
			"fundingRequests.$[f].rejectedAt":      now,
			"fundingRequests.$[f].rejectionReason": reason,
			"fundingRequests.$[f].workflow.stage":  "rejected",
		},
		Push: map[string]interface{}{
			"fundingRequests.$[f].workflow.history": workflow.NewEntry("rejected", actorID, reason),
		},
	}

	filter := bson.M{
		"fundingRequests": bson.M{"$elemMatch": bson.M{
			"requestId": requestID,
			"status":    bson.M{"$in": []string{workflow.StatusPending, workflow.StatusPreApproved}},
		}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"f.requestId": requestID}},
		})

	caisse, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		return zero, s.explainFundingMiss(ctx, requestID, workflow.StatusRejected, err)
	}
	return caisse, nil
}

// explainFundingMiss turns a guarded-update miss into NotFound or an
// InvalidState quoting the request's current status.
func (s *CaisseService) explainFundingMiss(ctx context.Context, requestID, target string, err error) error {
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	owner, loadErr := s.FindByFundingRequestID(ctx, requestID)
	if loadErr != nil {
		return common.ErrNotFound
	}
	request := owner.FundingRequestByID(requestID)
	if request == nil {
		return common.ErrNotFound
	}
	return workflow.Guard(workflow.KindFundingRequest, request.Status, target)
}
