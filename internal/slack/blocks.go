package slackgw

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	caissemodels "caisseflow/internal/api/caisse/models"
	ordermodels "caisseflow/internal/api/order/models"
	paymodels "caisseflow/internal/api/payment/models"
	"caisseflow/internal/utility"
)

// Action ids dispatched by the interaction handler.
const (
	ActionValidateOrder    = "validate_order"
	ActionRejectOrder      = "reject_order"
	ActionDeleteOrder      = "delete_order"
	ActionEditOrder        = "edit_order"
	ActionValidateProforma = "validate_proforma"
	ActionDeleteProforma   = "delete_proforma"
	ActionValidatePayment  = "validate_payment"
	ActionRejectPayment    = "reject_payment"
	ActionMarkPaid         = "mark_paid"
	ActionPreApproveFund   = "pre_approve_fund"
	ActionApproveFundCash  = "approve_fund_cash"
	ActionApproveFundChq   = "approve_fund_cheque"
	ActionRejectFund       = "reject_fund"
	ActionApproveTransfer  = "approve_transfer"
	ActionRejectTransfer   = "reject_transfer"
)

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func button(actionID, label, value, style string) *slack.ButtonBlockElement {
	btn := slack.NewButtonBlockElement(actionID, value,
		slack.NewTextBlockObject(slack.PlainTextType, label, false, false))
	if style != "" {
		btn.Style = slack.Style(style)
	}
	return btn
}

// OrderBlocks renders the admin approval card for an order.
func OrderBlocks(order *ordermodels.Order) []slack.Block {
	header := fmt.Sprintf("*Commande %s*\nDemandeur: <@%s>\nStatut: %s",
		order.IDCommande, order.RequesterID, order.Statut)

	articles := ""
	for _, a := range order.Articles {
		articles += fmt.Sprintf("• %s ×%g %s\n", a.Designation, a.Quantity, a.Unit)
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(header), nil, nil),
		slack.NewSectionBlock(mrkdwn(articles), nil, nil),
	}
	switch order.Statut {
	case "En attente":
		blocks = append(blocks, slack.NewActionBlock("order_actions",
			button(ActionValidateOrder, "Valider", order.IDCommande, "primary"),
			button(ActionRejectOrder, "Rejeter", order.IDCommande, "danger"),
			button(ActionEditOrder, "Modifier", order.IDCommande, ""),
			button(ActionDeleteOrder, "Supprimer", order.IDCommande, ""),
		))
	case "Validé":
		// A validated order can still be withdrawn by an admin.
		blocks = append(blocks, slack.NewActionBlock("order_actions",
			button(ActionDeleteOrder, "Supprimer", order.IDCommande, "danger"),
		))
	}
	return blocks
}

// ProformaValue packs the composite button value for per-proforma
// actions; ParseProformaValue is its inverse.
func ProformaValue(idCommande, proformaID string) string {
	return idCommande + "|" + proformaID
}

// ParseProformaValue splits a per-proforma button value back into the
// order id and the proforma id.
func ParseProformaValue(value string) (idCommande, proformaID string, ok bool) {
	return strings.Cut(value, "|")
}

// ProformaBlocks renders the quotation card for an order: one row per
// proforma, with validate/delete buttons while no quotation is
// retained yet.
func ProformaBlocks(order *ordermodels.Order) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*Proformas — Commande %s*", order.IDCommande)), nil, nil),
	}
	if len(order.Proformas) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn("_Aucune proforma pour le moment._"), nil, nil))
		return blocks
	}

	retained := order.ValidatedProforma()
	actionable := retained == nil && (order.Statut == "En attente" || order.Statut == "Validé")

	for i, p := range order.Proformas {
		row := fmt.Sprintf("%d. %s — %s %s", i+1, p.Supplier, utility.FormatAmount(p.Amount), p.Currency)
		if p.FileURL != "" {
			row += fmt.Sprintf(" (<%s|document>)", p.FileURL)
		}
		if p.Validated {
			row += " ✔ *retenue*"
		}
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(row), nil, nil))

		if actionable {
			blocks = append(blocks, slack.NewActionBlock("proforma_actions_"+p.ProformaID,
				button(ActionValidateProforma, "Valider", ProformaValue(order.IDCommande, p.ProformaID), "primary"),
				button(ActionDeleteProforma, "Supprimer", ProformaValue(order.IDCommande, p.ProformaID), "danger"),
			))
		}
	}
	return blocks
}

// PaymentRequestBlocks renders the approval card for a payment request.
func PaymentRequestBlocks(request *paymodels.PaymentRequest) []slack.Block {
	header := fmt.Sprintf("*Demande de paiement %s*\n%s\nBénéficiaire: %s\nMontant: %s %s\nStatut: %s",
		request.IDPaiement, request.Title, request.Beneficiary,
		utility.FormatAmount(request.Amount), request.Currency, request.Statut)

	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(header), nil, nil)}
	switch {
	case request.Statut == "En attente":
		blocks = append(blocks, slack.NewActionBlock("payment_actions",
			button(ActionValidatePayment, "Valider", request.IDPaiement, "primary"),
			button(ActionRejectPayment, "Rejeter", request.IDPaiement, "danger"),
		))
	case request.Statut == "Validé" && !request.PaymentDone:
		blocks = append(blocks, slack.NewActionBlock("payment_actions",
			button(ActionMarkPaid, "Marquer payé", request.IDPaiement, "primary"),
		))
	case request.PaymentDone:
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn("💸 Payée — "+request.PaymentMode), nil, nil))
	}
	return blocks
}

// FundingRequestBlocks renders the finance card for a funding request,
// with the action row matching its current stage.
func FundingRequestBlocks(request *caissemodels.FundingRequest, channelName string) []slack.Block {
	header := fmt.Sprintf("*Alimentation %s* — caisse %s\nMontant: %s %s\nMotif: %s\nStatut: %s",
		request.RequestID, channelName,
		utility.FormatAmount(request.Amount), request.Currency, request.Motif, request.Status)

	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(header), nil, nil)}
	switch request.Status {
	case "En attente":
		blocks = append(blocks, slack.NewActionBlock("funding_actions",
			button(ActionPreApproveFund, "Pré-approuver", request.RequestID, "primary"),
			button(ActionRejectFund, "Rejeter", request.RequestID, "danger"),
		))
	case "Pré-approuvé":
		blocks = append(blocks, slack.NewActionBlock("funding_final_actions",
			button(ActionApproveFundCash, "Valider (Espèces)", request.RequestID, "primary"),
			button(ActionApproveFundChq, "Valider (Chèque)", request.RequestID, ""),
			button(ActionRejectFund, "Rejeter", request.RequestID, "danger"),
		))
	}
	return blocks
}

// TransferRequestBlocks renders the admin card for a transfer request.
func TransferRequestBlocks(request *caissemodels.TransferRequest) []slack.Block {
	header := fmt.Sprintf("*Transfert %s*\nDe <#%s> vers <#%s>\nMontant: %s %s\nMotif: %s\nStatut: %s",
		request.TransferID, request.FromCaisse, request.ToCaisse,
		utility.FormatAmount(request.Amount), request.Currency, request.Motif, request.Status)

	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(header), nil, nil)}
	if request.Status == "En attente" {
		blocks = append(blocks, slack.NewActionBlock("transfer_actions",
			button(ActionApproveTransfer, "Approuver", request.TransferID, "primary"),
			button(ActionRejectTransfer, "Rejeter", request.TransferID, "danger"),
		))
	}
	return blocks
}

// CaisseBlocks renders the balances card for a caisse.
func CaisseBlocks(caisse *caissemodels.Caisse) []slack.Block {
	text := fmt.Sprintf("*Caisse %s* (<#%s>)\n", caisse.Type, caisse.ChannelID)
	for _, currency := range caissemodels.Currencies {
		text += fmt.Sprintf("• %s: %s\n", currency, utility.FormatAmount(caisse.Balance(currency)))
	}
	return []slack.Block{slack.NewSectionBlock(mrkdwn(text), nil, nil)}
}
