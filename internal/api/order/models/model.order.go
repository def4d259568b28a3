package ordermodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"caisseflow/internal/workflow"
)

// Article is one line item on an order.
type Article struct {
	ArticleID   string   `json:"articleId" bson:"articleId"`
	Designation string   `json:"designation" bson:"designation" validate:"required"`
	Quantity    float64  `json:"quantity" bson:"quantity" validate:"gt=0"`
	Unit        string   `json:"unit" bson:"unit"`
	Photos      []string `json:"photos,omitempty" bson:"photos,omitempty"`
}

// Proforma is a supplier quotation attached to an order. At most one
// proforma per order may have Validated = true.
type Proforma struct {
	ProformaID  string  `json:"proformaId" bson:"proformaId"`
	Supplier    string  `json:"supplier" bson:"supplier"`
	Amount      float64 `json:"amount" bson:"amount" validate:"gt=0"`
	Currency    string  `json:"currency" bson:"currency" validate:"currency"`
	FileURL     string  `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	Validated   bool    `json:"validated" bson:"validated"`
	ValidatedBy string  `json:"validatedBy,omitempty" bson:"validatedBy,omitempty"`
	ValidatedAt int64   `json:"validatedAt,omitempty" bson:"validatedAt,omitempty"`
	UploadedBy  string  `json:"uploadedBy" bson:"uploadedBy"`
	UploadedAt  int64   `json:"uploadedAt" bson:"uploadedAt"`
}

// Payment is one partial payment recorded against an order.
type Payment struct {
	PaymentID string  `json:"paymentId" bson:"paymentId"`
	Mode      string  `json:"mode" bson:"mode" validate:"required"`
	Amount    float64 `json:"amount" bson:"amount" validate:"gt=0"`
	Currency  string  `json:"currency" bson:"currency" validate:"currency"`
	ProofURL  string  `json:"proofUrl,omitempty" bson:"proofUrl,omitempty"`
	PaidBy    string  `json:"paidBy" bson:"paidBy"`
	PaidAt    int64   `json:"paidAt" bson:"paidAt"`
}

// DelayEntry records one reminder event in the append-only delay log.
type DelayEntry struct {
	Type      string `json:"type" bson:"type"`
	Timestamp int64  `json:"timestamp" bson:"timestamp"`
	Details   string `json:"details,omitempty" bson:"details,omitempty"`
}

// Order is a purchase order submitted from Slack.
type Order struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	IDCommande string             `json:"id_commande" bson:"id_commande"`

	RequesterID   string `json:"requesterId" bson:"requesterId"`
	RequesterName string `json:"requesterName" bson:"requesterName"`
	ChannelID     string `json:"channelId" bson:"channelId"`
	ChannelName   string `json:"channelName,omitempty" bson:"channelName,omitempty"`

	Statut   string         `json:"statut" bson:"statut"`
	Workflow workflow.State `json:"workflow" bson:"workflow"`

	Articles  []Article  `json:"articles" bson:"articles"`
	Proformas []Proforma `json:"proformas" bson:"proformas"`
	Payments  []Payment  `json:"payments" bson:"payments"`

	AmountPaid      float64 `json:"amountPaid" bson:"amountPaid"`
	RemainingAmount float64 `json:"remainingAmount" bson:"remainingAmount"`

	ValidatedBy     string `json:"validatedBy,omitempty" bson:"validatedBy,omitempty"`
	ValidatedAt     int64  `json:"validatedAt,omitempty" bson:"validatedAt,omitempty"`
	RejectedBy      string `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectedAt      int64  `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`

	// Soft delete. Orders are never physically removed.
	Deleted        bool   `json:"deleted" bson:"deleted"`
	DeletedAt      int64  `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	DeletedBy      string `json:"deletedBy,omitempty" bson:"deletedBy,omitempty"`
	DeletionReason string `json:"deletionReason,omitempty" bson:"deletionReason,omitempty"`

	// Each flag guards exactly one reminder dispatch.
	AdminReminderSent    bool         `json:"admin_reminder_sent" bson:"admin_reminder_sent"`
	PaymentReminderSent  bool         `json:"payment_reminder_sent" bson:"payment_reminder_sent"`
	ProformaReminderSent bool         `json:"proforma_reminder_sent" bson:"proforma_reminder_sent"`
	DelayHistory         []DelayEntry `json:"delay_history" bson:"delay_history"`

	// Slack message anchor for in-place updates.
	MessageTS string `json:"messageTs,omitempty" bson:"messageTs,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// ValidatedProforma returns the currently validated proforma, if any.
func (o *Order) ValidatedProforma() *Proforma {
	for i := range o.Proformas {
		if o.Proformas[i].Validated {
			return &o.Proformas[i]
		}
	}
	return nil
}

// ProformaByID looks up a proforma by its stable sub-id.
func (o *Order) ProformaByID(proformaID string) *Proforma {
	for i := range o.Proformas {
		if o.Proformas[i].ProformaID == proformaID {
			return &o.Proformas[i]
		}
	}
	return nil
}

// TotalAmount returns the validated proforma amount, or 0 when no
// proforma has been validated yet.
func (o *Order) TotalAmount() float64 {
	if p := o.ValidatedProforma(); p != nil {
		return p.Amount
	}
	return 0
}
