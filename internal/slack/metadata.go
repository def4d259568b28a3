package slackgw

import (
	"encoding/json"

	"caisseflow/internal/common"
)

// Modal flows carried through private_metadata. The kind discriminates
// which continuation fields are meaningful, so every multi-step modal
// flow is exhaustively typed instead of an implicit object shape.
const (
	MetaOrderRejection     = "order_rejection"
	MetaOrderDeletion      = "order_deletion"
	MetaOrderEdit          = "order_edit"
	MetaPaymentRejection   = "payment_rejection"
	MetaPaymentPaid        = "payment_mark_paid"
	MetaProformaValidation = "proforma_validation"
	MetaFundingApproval    = "funding_approval"
	MetaFundingRejection   = "funding_rejection"
	MetaTransferApproval   = "transfer_approval"
	MetaTransferRejection  = "transfer_rejection"
)

// Metadata is the tagged union serialized into a modal's
// private_metadata field.
type Metadata struct {
	Kind string `json:"kind"`

	// Entity references; which ones are set depends on Kind.
	OrderID    string `json:"orderId,omitempty"`
	PaymentID  string `json:"paymentId,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	TransferID string `json:"transferId,omitempty"`
	ProformaID string `json:"proformaId,omitempty"`

	// Message anchor to update once the flow completes.
	ChannelID string `json:"channelId,omitempty"`
	MessageTS string `json:"messageTs,omitempty"`
}

// Encode serializes metadata for private_metadata.
func (m Metadata) Encode() (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", common.ErrInvalidFormat
	}
	return string(raw), nil
}

// DecodeMetadata parses a private_metadata payload and checks the kind
// discriminator is present.
func DecodeMetadata(raw string) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, common.ErrInvalidFormat
	}
	if m.Kind == "" {
		return Metadata{}, common.ErrInvalidFormat
	}
	return m, nil
}
