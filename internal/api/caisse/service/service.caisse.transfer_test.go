package caissesvc

import (
	"testing"
	"time"

	"caisseflow/internal/api/caisse/dto"
	caissemodels "caisseflow/internal/api/caisse/models"
	"caisseflow/internal/global"
)

func TestTransferTransactionsArePaired(t *testing.T) {
	request := &caissemodels.TransferRequest{
		TransferID: "TRANS/2025/03/0007",
		FromCaisse: "C_SRC",
		ToCaisse:   "C_DST",
		Amount:     400,
		Currency:   "XOF",
	}
	now := time.Now().UnixMilli()

	out, in := transferTransactions(request, "U_ADMIN", now)

	if out.Reference != request.TransferID || in.Reference != request.TransferID {
		t.Errorf("both entries must carry the transfer id: out=%q in=%q", out.Reference, in.Reference)
	}
	if out.Amount != -400 {
		t.Errorf("debit amount = %v, want -400", out.Amount)
	}
	if in.Amount != 400 {
		t.Errorf("credit amount = %v, want 400", in.Amount)
	}
	if out.Amount+in.Amount != 0 {
		t.Errorf("pair must net to zero, got %v", out.Amount+in.Amount)
	}
	if out.Currency != in.Currency || out.Currency != "XOF" {
		t.Errorf("currency mismatch: out=%q in=%q", out.Currency, in.Currency)
	}
	if out.Type != caissemodels.TxTransferOut || in.Type != caissemodels.TxTransferIn {
		t.Errorf("unexpected types: out=%q in=%q", out.Type, in.Type)
	}
	if out.Timestamp != in.Timestamp {
		t.Error("pair must share a timestamp")
	}
}

func TestSubmitTransferInputRejectsSameChannel(t *testing.T) {
	input := dto.SubmitTransferInput{
		FromChannelID: "C_SAME",
		ToChannelID:   "C_SAME",
		Amount:        100,
		Currency:      "XOF",
		RequesterID:   "U1",
	}
	if err := global.Validate.Struct(&input); err == nil {
		t.Error("a transfer with identical source and destination must fail validation")
	}

	input.ToChannelID = "C_OTHER"
	if err := global.Validate.Struct(&input); err != nil {
		t.Errorf("distinct channels must pass validation, got %v", err)
	}
}
