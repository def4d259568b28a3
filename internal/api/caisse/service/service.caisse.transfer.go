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
	"caisseflow/internal/logger"
	"caisseflow/internal/utility"
	"caisseflow/internal/workflow"
)

// SubmitTransfer registers a pending transfer request on the source
// caisse and returns that caisse plus the generated transfer id. Both
// endpoints must exist before the request is accepted.
func (s *CaisseService) SubmitTransfer(ctx context.Context, input *dto.SubmitTransferInput) (caissemodels.Caisse, string, error) {
	var zero caissemodels.Caisse

	if err := global.Validate.Struct(input); err != nil {
		return zero, "", common.NewError(common.ErrCodeValidationInput, "Données de transfert invalides", common.StatusBadRequest, err.Error())
	}

	if _, err := s.FindByChannelID(ctx, input.ToChannelID); err != nil {
		return zero, "", err
	}

	transferID, err := s.sequences.Next(ctx, seqsvc.PrefixTransfer)
	if err != nil {
		return zero, "", err
	}

	request := caissemodels.TransferRequest{
		TransferID:  transferID,
		FromCaisse:  input.FromChannelID,
		ToCaisse:    input.ToChannelID,
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
		Push: map[string]interface{}{"transferRequests": request},
	}
	caisse, err := s.FindOneAndUpdate(ctx, bson.M{"channelId": input.FromChannelID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		return zero, "", err
	}
	return caisse, transferID, nil
}

// ApproveTransfer executes an approved transfer: it claims the pending
// request, checks the source balance, then applies the paired debit
// and credit. Both ledger entries carry the transfer id.
//
// The claim (status flip inside a guarded update) is the concurrency
// gate: a second approval of the same transfer loses the claim and
// gets InvalidState, leaving both balances untouched.
func (s *CaisseService) ApproveTransfer(ctx context.Context, transferID, approverID, comment string) (caissemodels.Caisse, error) {
	var zero caissemodels.Caisse
	now := time.Now().UnixMilli()

	// Claim first. From here on this call is the only executor.
	claimUpdate := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"transferRequests.$[t].status":         workflow.StatusApproved,
			"transferRequests.$[t].approvedBy":     approverID,
			"transferRequests.$[t].approvedAt":     now,
			"transferRequests.$[t].workflow.stage": "approved",
		},
		Push: map[string]interface{}{
			"transferRequests.$[t].workflow.history": workflow.NewEntry("approved", approverID, comment),
		},
	}
	claimFilter := bson.M{
		"transferRequests": bson.M{"$elemMatch": bson.M{
			"transferId": transferID,
			"status":     workflow.StatusPending,
		}},
	}
	claimOpts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"t.transferId": transferID}},
		})

	owner, err := s.FindOneAndUpdate(ctx, claimFilter, claimUpdate, claimOpts)
	if err != nil {
		return zero, s.explainTransferMiss(ctx, transferID, err)
	}

	request := owner.TransferRequestByID(transferID)
	if request == nil {
		return zero, common.ErrNotFound
	}

	source, err := s.FindByChannelID(ctx, request.FromCaisse)
	if err != nil {
		return zero, s.rollbackClaim(ctx, transferID, approverID, err)
	}
	if _, err := s.FindByChannelID(ctx, request.ToCaisse); err != nil {
		return zero, s.rollbackClaim(ctx, transferID, approverID, err)
	}

	// No partial transfers: the full amount must be available.
	if source.Balance(request.Currency) < request.Amount {
		return zero, s.rollbackClaim(ctx, transferID, approverID, common.ErrInsufficientFunds)
	}

	outTx, inTx := transferTransactions(request, approverID, now)

	if _, err := s.UpdateOne(ctx,
		bson.M{"channelId": request.FromCaisse},
		&basesvc.UpdateData{
			Inc:  map[string]interface{}{"balances." + request.Currency: -request.Amount},
			Push: map[string]interface{}{"transactions": outTx},
		}, nil); err != nil {
		return zero, s.rollbackClaim(ctx, transferID, approverID, err)
	}

	if _, err := s.UpdateOne(ctx,
		bson.M{"channelId": request.ToCaisse},
		&basesvc.UpdateData{
			Inc:  map[string]interface{}{"balances." + request.Currency: request.Amount},
			Push: map[string]interface{}{"transactions": inTx},
		}, nil); err != nil {
		// The debit landed but the credit failed. Undo the debit so the
		// pair stays balanced, then release the claim.
		if _, undoErr := s.UpdateOne(ctx,
			bson.M{"channelId": request.FromCaisse},
			&basesvc.UpdateData{
				Inc:  map[string]interface{}{"balances." + request.Currency: request.Amount},
				Pull: map[string]interface{}{"transactions": bson.M{"reference": transferID, "type": caissemodels.TxTransferOut}},
			}, nil); undoErr != nil {
			logger.WithModule("caisse").Errorf("transfer %s: credit failed and debit rollback failed: %v / %v",
				transferID, err, undoErr)
		}
		return zero, s.rollbackClaim(ctx, transferID, approverID, err)
	}

	// Return the owning caisse with both mutations applied.
	return s.FindByTransferID(ctx, transferID)
}

// transferTransactions builds the paired ledger entries for an
// approved transfer. Both carry the transfer id; the debit is negative,
// the credit positive, same magnitude and currency.
func transferTransactions(request *caissemodels.TransferRequest, approverID string, now int64) (out, in caissemodels.Transaction) {
	details := fmt.Sprintf("Transfert %s %s de %s vers %s",
		utility.FormatAmount(request.Amount), request.Currency, request.FromCaisse, request.ToCaisse)

	out = caissemodels.Transaction{
		Type:      caissemodels.TxTransferOut,
		Amount:    -request.Amount,
		Currency:  request.Currency,
		Reference: request.TransferID,
		Details:   details,
		Actor:     approverID,
		Timestamp: now,
	}
	in = caissemodels.Transaction{
		Type:      caissemodels.TxTransferIn,
		Amount:    request.Amount,
		Currency:  request.Currency,
		Reference: request.TransferID,
		Details:   details,
		Actor:     approverID,
		Timestamp: now,
	}
	return out, in
}

// rollbackClaim releases a claimed transfer back to pending after a
// post-claim failure, so the request can be retried.
func (s *CaisseService) rollbackClaim(ctx context.Context, transferID, actorID string, cause error) error {
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"transferRequests.$[t].status":         workflow.StatusPending,
			"transferRequests.$[t].workflow.stage": "submitted",
		},
		Unset: map[string]interface{}{
			"transferRequests.$[t].approvedBy": "",
			"transferRequests.$[t].approvedAt": "",
		},
		Push: map[string]interface{}{
			"transferRequests.$[t].workflow.history": workflow.NewEntry("approval_reverted", actorID, cause.Error()),
		},
	}
	filter := bson.M{
		"transferRequests": bson.M{"$elemMatch": bson.M{
			"transferId": transferID,
			"status":     workflow.StatusApproved,
		}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"t.transferId": transferID}},
		})

	if _, err := s.FindOneAndUpdate(ctx, filter, update, opts); err != nil {
		logger.WithModule("caisse").Errorf("transfer %s: claim rollback failed: %v", transferID, err)
	}
	return cause
}

// RejectTransfer refuses a pending transfer. No balance mutation; the
// reason is mandatory.
func (s *CaisseService) RejectTransfer(ctx context.Context, transferID, actorID, reason string) (caissemodels.Caisse, error) {
	var zero caissemodels.Caisse
	if err := workflow.RequireReason(reason); err != nil {
		return zero, err
	}

	now := time.Now().UnixMilli()
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"transferRequests.$[t].status":          workflow.StatusRejected,
			"transferRequests.$[t].rejectedBy":      actorID,
			"transferRequests.$[t].rejectedAt":      now,
			"transferRequests.$[t].rejectionReason": reason,
			"transferRequests.$[t].workflow.stage":  "rejected",
		},
		Push: map[string]interface{}{
			"transferRequests.$[t].workflow.history": workflow.NewEntry("rejected", actorID, reason),
		},
	}
	filter := bson.M{
		"transferRequests": bson.M{"$elemMatch": bson.M{
			"transferId": transferID,
			"status":     workflow.StatusPending,
		}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"t.transferId": transferID}},
		})

	caisse, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		return zero, s.explainTransferMiss(ctx, transferID, err)
	}
	return caisse, nil
}

// explainTransferMiss turns a guarded-update miss into NotFound or an
// InvalidState quoting the transfer's current status.
func (s *CaisseService) explainTransferMiss(ctx context.Context, transferID string, err error) error {
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	owner, loadErr := s.FindByTransferID(ctx, transferID)
	if loadErr != nil {
		return common.ErrNotFound
	}
	request := owner.TransferRequestByID(transferID)
	if request == nil {
		return common.ErrNotFound
	}
	switch request.Status {
	case workflow.StatusApproved:
		return common.NewInvalidState("Cette demande de transfert a déjà été approuvée", request.Status)
	case workflow.StatusRejected:
		return common.NewInvalidState("Cette demande de transfert a déjà été rejetée", request.Status)
	default:
		return common.NewInvalidState("Transition impossible depuis le statut actuel: "+request.Status, request.Status)
	}
}
