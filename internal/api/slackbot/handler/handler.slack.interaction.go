package slackhdl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/slack-go/slack"

	basehdl "caisseflow/internal/api/base/handler"
	"caisseflow/internal/api/caisse/dto"
	orderdto "caisseflow/internal/api/order/dto"
	paydto "caisseflow/internal/api/payment/dto"
	"caisseflow/internal/common"
	slackgw "caisseflow/internal/slack"
	"caisseflow/internal/utility"
)

// Modal callback ids.
const (
	callbackRejectOrder     = "reject_order_modal"
	callbackRejectPayment   = "reject_payment_modal"
	callbackRejectFunding   = "reject_funding"
	callbackRejectTransfer  = "reject_transfer_modal"
	callbackDeleteOrder     = "delete_order_modal"
	callbackEditOrder       = "edit_order_modal"
	callbackMarkPaid        = "mark_paid_modal"
	callbackChequeDetails   = "cheque_details_modal"
	callbackTransferApprove = "transfer_approval_confirmation"
	callbackProformaConfirm = "proforma_validation_confirmation"
)

// HandleInteraction dispatches block actions and modal submissions.
// Block actions are acknowledged immediately; the work runs detached.
// Modal submissions that fail validation answer with field-level
// errors, which must be returned synchronously.
func (h *SlackHandler) HandleInteraction(c fiber.Ctx) error {
	var payload slack.InteractionCallback
	if err := json.Unmarshal([]byte(c.FormValue("payload")), &payload); err != nil {
		basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		return nil
	}

	switch payload.Type {
	case slack.InteractionTypeBlockActions:
		return h.handleBlockAction(c, &payload)
	case slack.InteractionTypeViewSubmission:
		return h.handleViewSubmission(c, &payload)
	default:
		return c.SendStatus(common.StatusOK)
	}
}

func (h *SlackHandler) handleBlockAction(c fiber.Ctx, payload *slack.InteractionCallback) error {
	if len(payload.ActionCallback.BlockActions) == 0 {
		return c.SendStatus(common.StatusOK)
	}
	action := payload.ActionCallback.BlockActions[0]
	entityID := action.Value
	userID := payload.User.ID
	channelID := payload.Channel.ID
	messageTS := payload.Message.Timestamp

	h.log.WithFields(map[string]interface{}{
		"action": action.ActionID,
		"entity": entityID,
		"user":   userID,
	}).Info("💬 [SLACKBOT] block action")

	switch action.ActionID {
	case slackgw.ActionValidateOrder:
		h.detach(c.Context(), "validation commande", func(ctx context.Context) {
			order, err := h.orders.Validate(ctx, entityID, userID)
			if err != nil {
				h.fail(ctx, channelID, userID, "validation commande", err)
				return
			}
			h.notifier.UpdateMessage(ctx, channelID, messageTS, slackgw.OrderBlocks(&order)...)
			h.notifier.PostText(ctx, order.ChannelID,
				fmt.Sprintf("✅ Commande *%s* validée par <@%s>", order.IDCommande, userID))
		})

	case slackgw.ActionRejectOrder:
		return h.openReasonModal(c, payload, callbackRejectOrder, "Rejeter la commande", slackgw.Metadata{
			Kind:      slackgw.MetaOrderRejection,
			OrderID:   entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionDeleteOrder:
		return h.openReasonModal(c, payload, callbackDeleteOrder, "Supprimer la commande", slackgw.Metadata{
			Kind:      slackgw.MetaOrderDeletion,
			OrderID:   entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionEditOrder:
		return h.openEditOrderModal(c, payload, slackgw.Metadata{
			Kind:      slackgw.MetaOrderEdit,
			OrderID:   entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionValidateProforma:
		idCommande, proformaID, ok := slackgw.ParseProformaValue(entityID)
		if !ok {
			return c.SendStatus(common.StatusOK)
		}
		triggerID := payload.TriggerID
		// Precheck before the confirmation opens; the commit filter in
		// the service re-verifies the single-retained invariant anyway.
		h.detach(c.Context(), "validation proforma", func(ctx context.Context) {
			order, err := h.orders.FindByIDCommande(ctx, idCommande)
			if err != nil {
				h.fail(ctx, channelID, userID, "validation proforma", err)
				return
			}
			if err := h.orders.CheckProformaValidatable(ctx, idCommande, proformaID); err != nil {
				h.fail(ctx, channelID, userID, "validation proforma", err)
				return
			}
			proforma := order.ProformaByID(proformaID)
			if proforma == nil {
				return
			}
			encoded, err := slackgw.Metadata{
				Kind:       slackgw.MetaProformaValidation,
				OrderID:    idCommande,
				ProformaID: proformaID,
				ChannelID:  channelID,
				MessageTS:  messageTS,
			}.Encode()
			if err != nil {
				return
			}
			view := proformaConfirmView(encoded, proforma.Supplier, proforma.Amount, proforma.Currency)
			if _, err := h.notifier.Client().OpenViewContext(ctx, triggerID, view); err != nil {
				h.log.WithError(err).Error("💬 [SLACKBOT] modal open failed")
			}
		})

	case slackgw.ActionDeleteProforma:
		idCommande, proformaID, ok := slackgw.ParseProformaValue(entityID)
		if !ok {
			return c.SendStatus(common.StatusOK)
		}
		h.detach(c.Context(), "suppression proforma", func(ctx context.Context) {
			order, err := h.orders.DeleteProforma(ctx, idCommande, proformaID, userID)
			if err != nil {
				h.fail(ctx, channelID, userID, "suppression proforma", err)
				return
			}
			h.notifier.UpdateMessage(ctx, channelID, messageTS, slackgw.ProformaBlocks(&order)...)
			h.notifier.PostText(ctx, order.ChannelID,
				fmt.Sprintf("🗑️ Proforma supprimée de la commande *%s* par <@%s>", order.IDCommande, userID))
		})

	case slackgw.ActionMarkPaid:
		return h.openMarkPaidModal(c, payload, slackgw.Metadata{
			Kind:      slackgw.MetaPaymentPaid,
			PaymentID: entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionValidatePayment:
		h.detach(c.Context(), "validation paiement", func(ctx context.Context) {
			request, err := h.payments.Validate(ctx, entityID, userID)
			if err != nil {
				h.fail(ctx, channelID, userID, "validation paiement", err)
				return
			}
			h.notifier.UpdateMessage(ctx, channelID, messageTS, slackgw.PaymentRequestBlocks(&request)...)
			h.notifier.PostText(ctx, request.ChannelID,
				fmt.Sprintf("✅ Demande de paiement *%s* validée par <@%s>", request.IDPaiement, userID))
		})

	case slackgw.ActionRejectPayment:
		return h.openReasonModal(c, payload, callbackRejectPayment, "Rejeter le paiement", slackgw.Metadata{
			Kind:      slackgw.MetaPaymentRejection,
			PaymentID: entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionPreApproveFund:
		h.detach(c.Context(), "pré-approbation alimentation", func(ctx context.Context) {
			caisse, err := h.caisses.PreApproveFunding(ctx, entityID, userID)
			if err != nil {
				h.fail(ctx, channelID, userID, "pré-approbation alimentation", err)
				return
			}
			if request := caisse.FundingRequestByID(entityID); request != nil {
				h.notifier.UpdateMessage(ctx, channelID, messageTS,
					slackgw.FundingRequestBlocks(request, caisse.ChannelName)...)
				h.notifier.PostText(ctx, caisse.ChannelID,
					fmt.Sprintf("☑️ Alimentation *%s* pré-approuvée par <@%s>", entityID, userID))
			}
		})

	case slackgw.ActionApproveFundCash:
		h.detach(c.Context(), "validation alimentation", func(ctx context.Context) {
			h.finalizeFunding(ctx, entityID, userID, channelID, messageTS, nil)
		})

	case slackgw.ActionApproveFundChq:
		return h.openChequeModal(c, payload, slackgw.Metadata{
			Kind:      slackgw.MetaFundingApproval,
			RequestID: entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionRejectFund:
		return h.openReasonModal(c, payload, callbackRejectFunding, "Rejeter l'alimentation", slackgw.Metadata{
			Kind:      slackgw.MetaFundingRejection,
			RequestID: entityID,
			ChannelID: channelID,
			MessageTS: messageTS,
		})

	case slackgw.ActionApproveTransfer:
		return h.openTransferConfirmModal(c, payload, slackgw.Metadata{
			Kind:       slackgw.MetaTransferApproval,
			TransferID: entityID,
			ChannelID:  channelID,
			MessageTS:  messageTS,
		})

	case slackgw.ActionRejectTransfer:
		return h.openReasonModal(c, payload, callbackRejectTransfer, "Rejeter le transfert", slackgw.Metadata{
			Kind:       slackgw.MetaTransferRejection,
			TransferID: entityID,
			ChannelID:  channelID,
			MessageTS:  messageTS,
		})

	default:
		h.log.Warnf("💬 [SLACKBOT] unhandled action_id %s", action.ActionID)
	}

	return c.SendStatus(common.StatusOK)
}

func (h *SlackHandler) handleViewSubmission(c fiber.Ctx, payload *slack.InteractionCallback) error {
	meta, err := slackgw.DecodeMetadata(payload.View.PrivateMetadata)
	if err != nil {
		basehdl.HandleResponse(c, nil, err)
		return nil
	}
	userID := payload.User.ID

	switch payload.View.CallbackID {
	case callbackRejectOrder, callbackRejectPayment, callbackRejectFunding, callbackRejectTransfer:
		reason := strings.TrimSpace(viewValue(payload, "reason_block", "reason_input"))
		if reason == "" {
			// Field-level error, keeps the modal open.
			return c.JSON(fiber.Map{
				"response_action": "errors",
				"errors":          fiber.Map{"reason_block": "Un motif est obligatoire"},
			})
		}
		h.detach(c.Context(), "rejet", func(ctx context.Context) {
			h.executeRejection(ctx, payload.View.CallbackID, meta, userID, reason)
		})
		return c.SendStatus(common.StatusOK)

	case callbackDeleteOrder:
		reason := strings.TrimSpace(viewValue(payload, "reason_block", "reason_input"))
		if reason == "" {
			return c.JSON(fiber.Map{
				"response_action": "errors",
				"errors":          fiber.Map{"reason_block": "Un motif est obligatoire"},
			})
		}
		h.detach(c.Context(), "suppression commande", func(ctx context.Context) {
			order, err := h.orders.SoftDelete(ctx, meta.OrderID, userID, reason)
			if err != nil {
				h.fail(ctx, meta.ChannelID, userID, "suppression commande", err)
				return
			}
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS, slackgw.OrderBlocks(&order)...)
			h.notifier.PostText(ctx, order.ChannelID,
				fmt.Sprintf("🗑️ Commande *%s* supprimée par <@%s> — %s", order.IDCommande, userID, reason))
		})
		return c.SendStatus(common.StatusOK)

	case callbackEditOrder:
		raw := viewValue(payload, "articles_block", "articles_input")
		articles, badLine := parseArticlesText(raw)
		if len(articles) == 0 {
			message := "Au moins un article est requis"
			if strings.TrimSpace(badLine) != "" {
				message = fmt.Sprintf("Ligne invalide: %q (attendu: quantité unité désignation)", badLine)
			}
			return c.JSON(fiber.Map{
				"response_action": "errors",
				"errors":          fiber.Map{"articles_block": message},
			})
		}
		h.detach(c.Context(), "édition commande", func(ctx context.Context) {
			order, err := h.orders.Edit(ctx, meta.OrderID, &orderdto.EditOrderInput{
				Articles: articles,
				EditorID: userID,
			})
			if err != nil {
				h.fail(ctx, meta.ChannelID, userID, "édition commande", err)
				return
			}
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS, slackgw.OrderBlocks(&order)...)
			h.notifier.PostText(ctx, order.ChannelID,
				fmt.Sprintf("✏️ Commande *%s* modifiée par <@%s>", order.IDCommande, userID))
		})
		return c.SendStatus(common.StatusOK)

	case callbackProformaConfirm:
		h.detach(c.Context(), "validation proforma", func(ctx context.Context) {
			order, err := h.orders.ValidateProforma(ctx, meta.OrderID, meta.ProformaID, userID)
			if err != nil {
				h.fail(ctx, meta.ChannelID, userID, "validation proforma", err)
				return
			}
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS, slackgw.ProformaBlocks(&order)...)
			if p := order.ValidatedProforma(); p != nil {
				h.notifier.PostText(ctx, order.ChannelID,
					fmt.Sprintf("📋 Proforma de *%s* retenue pour la commande *%s* (%s %s) — reste à payer %s %s",
						p.Supplier, order.IDCommande,
						utility.FormatAmount(p.Amount), p.Currency,
						utility.FormatAmount(order.RemainingAmount), p.Currency))
			}
		})
		return c.SendStatus(common.StatusOK)

	case callbackMarkPaid:
		mode := strings.TrimSpace(viewValue(payload, "payment_mode_block", "payment_mode_input"))
		if mode == "" {
			return c.JSON(fiber.Map{
				"response_action": "errors",
				"errors":          fiber.Map{"payment_mode_block": "Le mode de paiement est obligatoire"},
			})
		}
		h.detach(c.Context(), "paiement effectué", func(ctx context.Context) {
			request, err := h.payments.MarkPaid(ctx, meta.PaymentID, &paydto.MarkPaidInput{
				PaymentMode: mode,
				PaidBy:      userID,
			})
			if err != nil {
				h.fail(ctx, meta.ChannelID, userID, "paiement effectué", err)
				return
			}
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS, slackgw.PaymentRequestBlocks(&request)...)
			h.notifier.PostText(ctx, request.ChannelID,
				fmt.Sprintf("💸 Demande *%s* payée (%s) par <@%s>", request.IDPaiement, mode, userID))
		})
		return c.SendStatus(common.StatusOK)

	case callbackChequeDetails:
		number := viewValue(payload, "cheque_number_block", "cheque_number_input")
		if number == "" {
			return c.JSON(fiber.Map{
				"response_action": "errors",
				"errors":          fiber.Map{"cheque_number_block": "Le numéro du chèque est obligatoire"},
			})
		}
		cheque := &dto.ChequeDetailsInput{
			Number:   number,
			Bank:     viewValue(payload, "cheque_bank_block", "cheque_bank_input"),
			IssuedTo: viewValue(payload, "cheque_issued_block", "cheque_issued_input"),
		}
		h.detach(c.Context(), "validation alimentation (chèque)", func(ctx context.Context) {
			h.finalizeFunding(ctx, meta.RequestID, userID, meta.ChannelID, meta.MessageTS, cheque)
		})
		return c.SendStatus(common.StatusOK)

	case callbackTransferApprove:
		comment := viewValue(payload, "comment_block", "comment_input")
		h.detach(c.Context(), "approbation transfert", func(ctx context.Context) {
			owner, err := h.caisses.ApproveTransfer(ctx, meta.TransferID, userID, comment)
			if err != nil {
				h.fail(ctx, meta.ChannelID, userID, "approbation transfert", err)
				return
			}
			request := owner.TransferRequestByID(meta.TransferID)
			if request == nil {
				return
			}
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS,
				slackgw.TransferRequestBlocks(request)...)
			text := fmt.Sprintf("✅ Transfert *%s* approuvé: %s %s de <#%s> vers <#%s>",
				meta.TransferID, utility.FormatAmount(request.Amount), request.Currency,
				request.FromCaisse, request.ToCaisse)
			h.notifier.PostText(ctx, request.FromCaisse, text)
			h.notifier.PostText(ctx, request.ToCaisse, text)
		})
		return c.SendStatus(common.StatusOK)

	default:
		h.log.Warnf("💬 [SLACKBOT] unhandled callback_id %s", payload.View.CallbackID)
		return c.SendStatus(common.StatusOK)
	}
}

// executeRejection runs the rejection matching the modal's callback.
func (h *SlackHandler) executeRejection(ctx context.Context, callbackID string, meta slackgw.Metadata, userID, reason string) {
	switch callbackID {
	case callbackRejectOrder:
		order, err := h.orders.Reject(ctx, meta.OrderID, userID, reason)
		if err != nil {
			h.fail(ctx, meta.ChannelID, userID, "rejet commande", err)
			return
		}
		h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS, slackgw.OrderBlocks(&order)...)
		h.notifier.PostText(ctx, order.ChannelID,
			fmt.Sprintf("❌ Commande *%s* rejetée par <@%s> — %s", order.IDCommande, userID, reason))

	case callbackRejectPayment:
		request, err := h.payments.Reject(ctx, meta.PaymentID, userID, reason)
		if err != nil {
			h.fail(ctx, meta.ChannelID, userID, "rejet paiement", err)
			return
		}
		h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS, slackgw.PaymentRequestBlocks(&request)...)
		h.notifier.PostText(ctx, request.ChannelID,
			fmt.Sprintf("❌ Demande de paiement *%s* rejetée par <@%s> — %s", request.IDPaiement, userID, reason))

	case callbackRejectFunding:
		caisse, err := h.caisses.RejectFunding(ctx, meta.RequestID, userID, reason)
		if err != nil {
			h.fail(ctx, meta.ChannelID, userID, "rejet alimentation", err)
			return
		}
		if request := caisse.FundingRequestByID(meta.RequestID); request != nil {
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS,
				slackgw.FundingRequestBlocks(request, caisse.ChannelName)...)
			h.notifier.PostText(ctx, caisse.ChannelID,
				fmt.Sprintf("❌ Alimentation *%s* rejetée par <@%s> — %s", meta.RequestID, userID, reason))
		}

	case callbackRejectTransfer:
		caisse, err := h.caisses.RejectTransfer(ctx, meta.TransferID, userID, reason)
		if err != nil {
			h.fail(ctx, meta.ChannelID, userID, "rejet transfert", err)
			return
		}
		if request := caisse.TransferRequestByID(meta.TransferID); request != nil {
			h.notifier.UpdateMessage(ctx, meta.ChannelID, meta.MessageTS,
				slackgw.TransferRequestBlocks(request)...)
			h.notifier.PostText(ctx, request.FromCaisse,
				fmt.Sprintf("❌ Transfert *%s* rejeté par <@%s> — %s", meta.TransferID, userID, reason))
		}
	}
}

// finalizeFunding commits a pre-approved funding request with its
// disbursement details and fans out the notifications.
func (h *SlackHandler) finalizeFunding(ctx context.Context, requestID, userID, channelID, messageTS string, cheque *dto.ChequeDetailsInput) {
	disbursement := "Espèces"
	if cheque != nil {
		disbursement = "Chèque"
	}

	caisse, err := h.caisses.ApproveFunding(ctx, requestID, userID, disbursement, cheque)
	if err != nil {
		h.fail(ctx, channelID, userID, "validation alimentation", err)
		return
	}

	request := caisse.FundingRequestByID(requestID)
	if request == nil {
		return
	}
	h.notifier.UpdateMessage(ctx, channelID, messageTS,
		slackgw.FundingRequestBlocks(request, caisse.ChannelName)...)
	h.notifier.PostText(ctx, caisse.ChannelID,
		fmt.Sprintf("💰 Alimentation *%s* validée (%s): +%s %s — nouveau solde %s %s",
			requestID, disbursement,
			utility.FormatAmount(request.Amount), request.Currency,
			utility.FormatAmount(caisse.Balance(request.Currency)), request.Currency))
}

// viewValue extracts one input value from a modal submission.
func viewValue(payload *slack.InteractionCallback, blockID, actionID string) string {
	values := payload.View.State.Values
	if block, ok := values[blockID]; ok {
		if input, ok := block[actionID]; ok {
			return input.Value
		}
	}
	return ""
}
