package slackgw

import (
	"testing"

	"github.com/slack-go/slack"

	ordermodels "caisseflow/internal/api/order/models"
	paymodels "caisseflow/internal/api/payment/models"
)

func actionIDs(blocks []slack.Block) []string {
	var ids []string
	for _, b := range blocks {
		actions, ok := b.(*slack.ActionBlock)
		if !ok {
			continue
		}
		for _, el := range actions.Elements.ElementSet {
			if btn, ok := el.(*slack.ButtonBlockElement); ok {
				ids = append(ids, btn.ActionID)
			}
		}
	}
	return ids
}

func contains(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestProformaValueRoundTrip(t *testing.T) {
	value := ProformaValue("CMD/2025/04/0031", "f3c9")
	idCommande, proformaID, ok := ParseProformaValue(value)
	if !ok || idCommande != "CMD/2025/04/0031" || proformaID != "f3c9" {
		t.Errorf("ParseProformaValue(%q) = (%q, %q, %v)", value, idCommande, proformaID, ok)
	}
	if _, _, ok := ParseProformaValue("no-separator"); ok {
		t.Error("a value without separator must not parse")
	}
}

func TestProformaBlocksOfferValidation(t *testing.T) {
	order := &ordermodels.Order{
		IDCommande: "CMD/2025/04/0031",
		Statut:     "Validé",
		Proformas: []ordermodels.Proforma{
			{ProformaID: "p1", Supplier: "Fournisseur A", Amount: 1200, Currency: "XOF"},
			{ProformaID: "p2", Supplier: "Fournisseur B", Amount: 1100, Currency: "XOF"},
		},
	}

	ids := actionIDs(ProformaBlocks(order))
	if !contains(ids, ActionValidateProforma) || !contains(ids, ActionDeleteProforma) {
		t.Errorf("pending quotations must carry validate/delete buttons, got %v", ids)
	}
}

func TestProformaBlocksFreezeOnceRetained(t *testing.T) {
	order := &ordermodels.Order{
		IDCommande: "CMD/2025/04/0031",
		Statut:     "Validé",
		Proformas: []ordermodels.Proforma{
			{ProformaID: "p1", Supplier: "Fournisseur A", Amount: 1200, Currency: "XOF", Validated: true},
			{ProformaID: "p2", Supplier: "Fournisseur B", Amount: 1100, Currency: "XOF"},
		},
	}

	if ids := actionIDs(ProformaBlocks(order)); len(ids) != 0 {
		t.Errorf("a retained quotation freezes the card, got buttons %v", ids)
	}
}

func TestOrderBlocksButtonsFollowStatus(t *testing.T) {
	order := &ordermodels.Order{IDCommande: "CMD/2025/04/0031", Statut: "En attente"}

	ids := actionIDs(OrderBlocks(order))
	for _, want := range []string{ActionValidateOrder, ActionRejectOrder, ActionEditOrder, ActionDeleteOrder} {
		if !contains(ids, want) {
			t.Errorf("pending order card misses %q, got %v", want, ids)
		}
	}

	order.Statut = "Rejeté"
	if ids := actionIDs(OrderBlocks(order)); len(ids) != 0 {
		t.Errorf("a rejected order card must carry no buttons, got %v", ids)
	}
}

func TestPaymentRequestBlocksOfferMarkPaid(t *testing.T) {
	request := &paymodels.PaymentRequest{
		IDPaiement: "PAY/2025/04/0005",
		Title:      "Achat ciment",
		Statut:     "Validé",
	}

	if ids := actionIDs(PaymentRequestBlocks(request)); !contains(ids, ActionMarkPaid) {
		t.Errorf("a validated unpaid request must offer the paid button, got %v", ids)
	}

	request.PaymentDone = true
	request.PaymentMode = "Espèces"
	if ids := actionIDs(PaymentRequestBlocks(request)); len(ids) != 0 {
		t.Errorf("a paid request card must carry no buttons, got %v", ids)
	}
}
