package caissesvc

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	caissemodels "caisseflow/internal/api/caisse/models"
	"caisseflow/internal/common"
	"caisseflow/internal/workflow"
)

// toBsonD round-trips a model through bson so it can be primed as a
// mock server response.
func toBsonD(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	if err != nil {
		t.Fatalf("marshal mock document: %v", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal mock document: %v", err)
	}
	return doc
}

func transferFixture(status string) (caissemodels.TransferRequest, caissemodels.Caisse, caissemodels.Caisse) {
	request := caissemodels.TransferRequest{
		TransferID: "TRANS/2025/04/0002",
		FromCaisse: "C_SRC",
		ToCaisse:   "C_DST",
		Amount:     250,
		Currency:   "USD",
		Status:     status,
	}
	source := caissemodels.Caisse{
		Type:             "Centrale",
		ChannelID:        "C_SRC",
		Balances:         map[string]float64{"USD": 1000},
		TransferRequests: []caissemodels.TransferRequest{request},
	}
	dest := caissemodels.Caisse{
		Type:      "Chantier",
		ChannelID: "C_DST",
		Balances:  map[string]float64{"USD": 50},
	}
	return request, source, dest
}

// collectUpdateCommands drains the started-command queue and returns
// the update commands in the order the driver sent them.
func collectUpdateCommands(mt *mtest.T) []bson.Raw {
	var updates []bson.Raw
	for {
		evt := mt.GetStartedEvent()
		if evt == nil {
			return updates
		}
		if evt.CommandName == "update" {
			updates = append(updates, evt.Command)
		}
	}
}

func firstUpdateDoc(mt *mtest.T, cmd bson.Raw) bson.Raw {
	mt.Helper()
	elems, err := cmd.Lookup("updates").Array().Values()
	if err != nil || len(elems) == 0 {
		mt.Fatalf("update command carries no statements: %v", err)
	}
	return elems[0].Document()
}

func TestApproveTransferDebitsThenCredits(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("paired ledger entries", func(mt *mtest.T) {
		request, source, dest := transferFixture(workflow.StatusApproved)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		debited := source
		debited.Balances = map[string]float64{"USD": 750}
		credited := dest
		credited.Balances = map[string]float64{"USD": 300}

		mt.AddMockResponses(
			// Claim: the pending request flips to approved.
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: toBsonD(mt.T, source)}},
			// Endpoint loads.
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, source)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, dest)),
			// Debit write plus its re-read.
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, debited)),
			// Credit write plus its re-read.
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, credited)),
			// Final owner load.
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, source)),
		)

		service := NewCaisseService(mt.Coll, nil)
		owner, err := service.ApproveTransfer(context.Background(), request.TransferID, "U_ADMIN", "ok")
		if err != nil {
			mt.Fatalf("ApproveTransfer() error = %v", err)
		}
		if got := owner.TransferRequestByID(request.TransferID); got == nil || got.Status != workflow.StatusApproved {
			mt.Errorf("returned owner misses the approved request: %+v", got)
		}

		updates := collectUpdateCommands(mt)
		if len(updates) != 2 {
			mt.Fatalf("balance writes = %d, want debit then credit", len(updates))
		}

		debit := firstUpdateDoc(mt, updates[0])
		if got := debit.Lookup("u", "$inc", "balances.USD").Double(); got != -250 {
			mt.Errorf("debit $inc = %v, want -250", got)
		}
		if got := debit.Lookup("u", "$push", "transactions", "reference").StringValue(); got != request.TransferID {
			mt.Errorf("debit entry reference = %q, want %q", got, request.TransferID)
		}
		if got := debit.Lookup("u", "$push", "transactions", "type").StringValue(); got != caissemodels.TxTransferOut {
			mt.Errorf("debit entry type = %q, want %q", got, caissemodels.TxTransferOut)
		}

		credit := firstUpdateDoc(mt, updates[1])
		if got := credit.Lookup("u", "$inc", "balances.USD").Double(); got != 250 {
			mt.Errorf("credit $inc = %v, want 250", got)
		}
		if got := credit.Lookup("u", "$push", "transactions", "reference").StringValue(); got != request.TransferID {
			mt.Errorf("credit entry reference = %q, want %q", got, request.TransferID)
		}
		if got := credit.Lookup("u", "$push", "transactions", "type").StringValue(); got != caissemodels.TxTransferIn {
			mt.Errorf("credit entry type = %q, want %q", got, caissemodels.TxTransferIn)
		}
	})
}

func TestApproveTransferInsufficientFundsReleasesClaim(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no balance mutation", func(mt *mtest.T) {
		request, source, dest := transferFixture(workflow.StatusApproved)
		source.Balances = map[string]float64{"USD": 100} // less than the 250 requested
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: toBsonD(mt.T, source)}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, source)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, dest)),
			// Claim release.
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: toBsonD(mt.T, source)}},
		)

		service := NewCaisseService(mt.Coll, nil)
		_, err := service.ApproveTransfer(context.Background(), request.TransferID, "U_ADMIN", "")
		if !errors.Is(err, common.ErrInsufficientFunds) {
			mt.Fatalf("ApproveTransfer() error = %v, want ErrInsufficientFunds", err)
		}

		if updates := collectUpdateCommands(mt); len(updates) != 0 {
			mt.Errorf("balances were written despite the shortfall: %d update(s)", len(updates))
		}
	})
}

func TestApproveTransferRefusesAlreadyApproved(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second approval loses the claim", func(mt *mtest.T) {
		request, source, _ := transferFixture(workflow.StatusApproved)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(
			// The guarded claim matches nothing: the request is no longer
			// pending.
			mtest.CreateSuccessResponse(),
			// The explain load finds it already approved.
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toBsonD(mt.T, source)),
		)

		service := NewCaisseService(mt.Coll, nil)
		_, err := service.ApproveTransfer(context.Background(), request.TransferID, "U_OTHER", "")
		if err == nil {
			mt.Fatal("ApproveTransfer() must refuse a terminal request")
		}
		if got, want := err.Error(), "Cette demande de transfert a déjà été approuvée"; got != want {
			mt.Errorf("error = %q, want %q", got, want)
		}

		if updates := collectUpdateCommands(mt); len(updates) != 0 {
			mt.Errorf("balances were written on a lost claim: %d update(s)", len(updates))
		}
	})
}
