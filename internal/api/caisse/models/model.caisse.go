package caissemodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"caisseflow/internal/workflow"
)

// Supported currencies for caisse balances.
var Currencies = []string{"XOF", "USD", "EUR"}

// Disbursement types for funding requests.
const (
	DisbursementCash   = "Espèces"
	DisbursementCheque = "Chèque"
)

// Transaction types recorded in the ledger.
const (
	TxFunding     = "funding"
	TxTransferOut = "transfer_out"
	TxTransferIn  = "transfer_in"
)

// Transaction is one append-only ledger entry. Every balance mutation
// leaves exactly one of these on the caisse it touched.
type Transaction struct {
	Type      string  `json:"type" bson:"type"`
	Amount    float64 `json:"amount" bson:"amount"`
	Currency  string  `json:"currency" bson:"currency"`
	Reference string  `json:"reference" bson:"reference"` // requestId or transferId
	Details   string  `json:"details,omitempty" bson:"details,omitempty"`
	Actor     string  `json:"actor,omitempty" bson:"actor,omitempty"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// ChequeDetails carries the optional cheque information on a funding
// disbursement.
type ChequeDetails struct {
	Number   string `json:"number" bson:"number"`
	Bank     string `json:"bank,omitempty" bson:"bank,omitempty"`
	IssuedTo string `json:"issuedTo,omitempty" bson:"issuedTo,omitempty"`
}

// FundingRequest asks to credit a caisse with outside money. Two-step
// approval: finance pre-approves, then finalizes with disbursement
// details.
type FundingRequest struct {
	RequestID string  `json:"requestId" bson:"requestId"`
	Amount    float64 `json:"amount" bson:"amount"`
	Currency  string  `json:"currency" bson:"currency"`
	Motif     string  `json:"motif,omitempty" bson:"motif,omitempty"`

	RequesterID string `json:"requesterId" bson:"requesterId"`
	SubmittedAt int64  `json:"submittedAt" bson:"submittedAt"`

	Status   string         `json:"status" bson:"status"`
	Workflow workflow.State `json:"workflow" bson:"workflow"`

	DisbursementType string         `json:"disbursementType,omitempty" bson:"disbursementType,omitempty"`
	ChequeDetails    *ChequeDetails `json:"chequeDetails,omitempty" bson:"chequeDetails,omitempty"`

	PreApprovedBy   string `json:"preApprovedBy,omitempty" bson:"preApprovedBy,omitempty"`
	PreApprovedAt   int64  `json:"preApprovedAt,omitempty" bson:"preApprovedAt,omitempty"`
	ApprovedBy      string `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt      int64  `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	RejectedBy      string `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectedAt      int64  `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
}

// TransferRequest asks to move balance between two caisses. Single-step
// admin approval.
type TransferRequest struct {
	TransferID string  `json:"transferId" bson:"transferId"`
	FromCaisse string  `json:"fromCaisse" bson:"fromCaisse"` // channel id
	ToCaisse   string  `json:"toCaisse" bson:"toCaisse"`     // channel id
	Amount     float64 `json:"amount" bson:"amount"`
	Currency   string  `json:"currency" bson:"currency"`
	Motif      string  `json:"motif,omitempty" bson:"motif,omitempty"`

	RequesterID string `json:"requesterId" bson:"requesterId"`
	SubmittedAt int64  `json:"submittedAt" bson:"submittedAt"`

	Status   string         `json:"status" bson:"status"`
	Workflow workflow.State `json:"workflow" bson:"workflow"`

	ApprovedBy      string `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt      int64  `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	RejectedBy      string `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectedAt      int64  `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
}

// Caisse is a cash register tied to a Slack channel, holding
// multi-currency balances and its embedded request sub-collections.
type Caisse struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type        string             `json:"type" bson:"type"` // "Centrale" or a named register
	ChannelID   string             `json:"channelId" bson:"channelId"`
	ChannelName string             `json:"channelName,omitempty" bson:"channelName,omitempty"`

	Balances map[string]float64 `json:"balances" bson:"balances"`

	FundingRequests  []FundingRequest  `json:"fundingRequests" bson:"fundingRequests"`
	TransferRequests []TransferRequest `json:"transferRequests" bson:"transferRequests"`
	Transactions     []Transaction     `json:"transactions" bson:"transactions"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// Balance returns the balance for a currency, zero when absent.
func (c *Caisse) Balance(currency string) float64 {
	if c.Balances == nil {
		return 0
	}
	return c.Balances[currency]
}

// FundingRequestByID looks up an embedded funding request by id.
func (c *Caisse) FundingRequestByID(requestID string) *FundingRequest {
	for i := range c.FundingRequests {
		if c.FundingRequests[i].RequestID == requestID {
			return &c.FundingRequests[i]
		}
	}
	return nil
}

// TransferRequestByID looks up an embedded transfer request by id.
func (c *Caisse) TransferRequestByID(transferID string) *TransferRequest {
	for i := range c.TransferRequests {
		if c.TransferRequests[i].TransferID == transferID {
			return &c.TransferRequests[i]
		}
	}
	return nil
}
