package slackhdl

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/slack-go/slack"

	orderdto "caisseflow/internal/api/order/dto"
	ordermodels "caisseflow/internal/api/order/models"
	"caisseflow/internal/common"
	slackgw "caisseflow/internal/slack"
	"caisseflow/internal/utility"
)

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

func textInputBlock(blockID, actionID, label string, optional bool) *slack.InputBlock {
	input := slack.NewInputBlock(blockID,
		plainText(label), nil,
		slack.NewPlainTextInputBlockElement(nil, actionID))
	input.Optional = optional
	return input
}

// openModal opens a view from a block action's trigger id and acks the
// action. Modal opens are time-critical: the trigger id expires after
// a few seconds, so no retry loop here.
func (h *SlackHandler) openModal(c fiber.Ctx, triggerID string, view slack.ModalViewRequest) error {
	h.detach(c.Context(), "ouverture modale", func(ctx context.Context) {
		if _, err := h.notifier.Client().OpenViewContext(ctx, triggerID, view); err != nil {
			h.log.WithError(err).Error("💬 [SLACKBOT] modal open failed")
		}
	})
	return c.SendStatus(common.StatusOK)
}

// openReasonModal asks for the mandatory rejection reason before the
// transition commits.
func (h *SlackHandler) openReasonModal(c fiber.Ctx, payload *slack.InteractionCallback, callbackID, title string, meta slackgw.Metadata) error {
	encoded, err := meta.Encode()
	if err != nil {
		return err
	}

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackID,
		PrivateMetadata: encoded,
		Title:           plainText(title),
		Submit:          plainText("Confirmer"),
		Close:           plainText("Annuler"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			textInputBlock("reason_block", "reason_input", "Motif du rejet", false),
		}},
	}
	return h.openModal(c, payload.TriggerID, view)
}

// openChequeModal collects the cheque details for a cheque
// disbursement.
func (h *SlackHandler) openChequeModal(c fiber.Ctx, payload *slack.InteractionCallback, meta slackgw.Metadata) error {
	encoded, err := meta.Encode()
	if err != nil {
		return err
	}

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackChequeDetails,
		PrivateMetadata: encoded,
		Title:           plainText("Détails du chèque"),
		Submit:          plainText("Valider"),
		Close:           plainText("Annuler"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			textInputBlock("cheque_number_block", "cheque_number_input", "Numéro du chèque", false),
			textInputBlock("cheque_bank_block", "cheque_bank_input", "Banque", true),
			textInputBlock("cheque_issued_block", "cheque_issued_input", "À l'ordre de", true),
		}},
	}
	return h.openModal(c, payload.TriggerID, view)
}

// openMarkPaidModal collects the disbursement mode before a validated
// payment request is marked paid.
func (h *SlackHandler) openMarkPaidModal(c fiber.Ctx, payload *slack.InteractionCallback, meta slackgw.Metadata) error {
	encoded, err := meta.Encode()
	if err != nil {
		return err
	}

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackMarkPaid,
		PrivateMetadata: encoded,
		Title:           plainText("Marquer comme payé"),
		Submit:          plainText("Confirmer"),
		Close:           plainText("Annuler"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			textInputBlock("payment_mode_block", "payment_mode_input", "Mode de paiement (Espèces, Chèque, Virement…)", false),
		}},
	}
	return h.openModal(c, payload.TriggerID, view)
}

// openEditOrderModal loads the order and opens the line-item editor
// prefilled with the current articles, one per line.
func (h *SlackHandler) openEditOrderModal(c fiber.Ctx, payload *slack.InteractionCallback, meta slackgw.Metadata) error {
	encoded, err := meta.Encode()
	if err != nil {
		return err
	}
	triggerID := payload.TriggerID
	userID := payload.User.ID

	// The load has to happen before the view can be built, so the whole
	// open runs detached; trigger ids stay valid a few seconds.
	h.detach(c.Context(), "ouverture modale édition", func(ctx context.Context) {
		order, err := h.orders.FindByIDCommande(ctx, meta.OrderID)
		if err != nil {
			h.fail(ctx, meta.ChannelID, userID, "édition commande", err)
			return
		}

		input := slack.NewPlainTextInputBlockElement(
			plainText("1 sac Ciment 50kg"), "articles_input")
		input.Multiline = true
		input.InitialValue = articlesText(&order)

		articles := slack.NewInputBlock("articles_block",
			plainText("Articles (un par ligne: quantité unité désignation)"), nil, input)

		view := slack.ModalViewRequest{
			Type:            slack.VTModal,
			CallbackID:      callbackEditOrder,
			PrivateMetadata: encoded,
			Title:           plainText("Modifier la commande"),
			Submit:          plainText("Enregistrer"),
			Close:           plainText("Annuler"),
			Blocks:          slack.Blocks{BlockSet: []slack.Block{articles}},
		}
		if _, err := h.notifier.Client().OpenViewContext(ctx, triggerID, view); err != nil {
			h.log.WithError(err).Error("💬 [SLACKBOT] modal open failed")
		}
	})
	return c.SendStatus(common.StatusOK)
}

// proformaConfirmView is the confirmation step of a proforma
// validation. The precheck already ran at open time; the commit filter
// re-verifies the invariant.
func proformaConfirmView(encodedMeta, supplier string, amount float64, currency string) slack.ModalViewRequest {
	text := fmt.Sprintf("Retenir la proforma de *%s* (%s %s) ?\nLes autres proformas ne pourront plus être validées.",
		supplier, utility.FormatAmount(amount), currency)
	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackProformaConfirm,
		PrivateMetadata: encodedMeta,
		Title:           plainText("Valider la proforma"),
		Submit:          plainText("Confirmer"),
		Close:           plainText("Annuler"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		}},
	}
}

// openTransferConfirmModal confirms a transfer approval before the
// balances move.
func (h *SlackHandler) openTransferConfirmModal(c fiber.Ctx, payload *slack.InteractionCallback, meta slackgw.Metadata) error {
	encoded, err := meta.Encode()
	if err != nil {
		return err
	}

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackTransferApprove,
		PrivateMetadata: encoded,
		Title:           plainText("Approuver le transfert"),
		Submit:          plainText("Approuver"),
		Close:           plainText("Annuler"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType,
					"Le transfert *"+meta.TransferID+"* va débiter la caisse source. Confirmer ?", false, false),
				nil, nil),
			textInputBlock("comment_block", "comment_input", "Commentaire (optionnel)", true),
		}},
	}
	return h.openModal(c, payload.TriggerID, view)
}

// articlesText renders an order's line items for the edit modal, one
// "quantité unité désignation" line each.
func articlesText(order *ordermodels.Order) string {
	var lines []string
	for _, a := range order.Articles {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%g %s %s",
			a.Quantity, a.Unit, a.Designation)))
	}
	return strings.Join(lines, "\n")
}

// parseArticlesText is the inverse of articlesText: each non-empty line
// becomes one article. Returns the offending line on failure.
func parseArticlesText(raw string) ([]orderdto.ArticleInput, string) {
	var articles []orderdto.ArticleInput
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, line
		}
		quantity, err := utility.ParseAmount(fields[0])
		if err != nil || quantity <= 0 {
			return nil, line
		}
		articles = append(articles, orderdto.ArticleInput{
			Quantity:    quantity,
			Unit:        fields[1],
			Designation: strings.Join(fields[2:], " "),
		})
	}
	if len(articles) == 0 {
		return nil, raw
	}
	return articles, ""
}
