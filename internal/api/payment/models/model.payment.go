package paymodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	ordermodels "caisseflow/internal/api/order/models"
	"caisseflow/internal/workflow"
)

// Justificatif is one proof of payment, either a file uploaded to Slack
// or an external URL.
type Justificatif struct {
	Type       string `json:"type" bson:"type"` // "file" | "url"
	URL        string `json:"url" bson:"url"`
	Title      string `json:"title,omitempty" bson:"title,omitempty"`
	UploadedBy string `json:"uploadedBy" bson:"uploadedBy"`
	UploadedAt int64  `json:"uploadedAt" bson:"uploadedAt"`
}

// PaymentRequest is a direct payment ask, following the same lifecycle
// pattern as an order but without articles or proformas.
type PaymentRequest struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	IDPaiement string             `json:"id_paiement" bson:"id_paiement"`

	RequesterID   string `json:"requesterId" bson:"requesterId"`
	RequesterName string `json:"requesterName" bson:"requesterName"`
	ChannelID     string `json:"channelId" bson:"channelId"`

	Title       string  `json:"title" bson:"title"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Beneficiary string  `json:"beneficiary" bson:"beneficiary"`
	Amount      float64 `json:"amount" bson:"amount"`
	Currency    string  `json:"currency" bson:"currency"`

	Statut   string         `json:"statut" bson:"statut"`
	Workflow workflow.State `json:"workflow" bson:"workflow"`

	PaymentDone   bool           `json:"paymentDone" bson:"paymentDone"`
	PaymentMode   string         `json:"paymentMode,omitempty" bson:"paymentMode,omitempty"`
	PaidBy        string         `json:"paidBy,omitempty" bson:"paidBy,omitempty"`
	PaidAt        int64          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	Justificatifs []Justificatif `json:"justificatifs" bson:"justificatifs"`

	ValidatedBy     string `json:"validatedBy,omitempty" bson:"validatedBy,omitempty"`
	ValidatedAt     int64  `json:"validatedAt,omitempty" bson:"validatedAt,omitempty"`
	RejectedBy      string `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectedAt      int64  `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`

	Deleted        bool   `json:"deleted" bson:"deleted"`
	DeletedAt      int64  `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	DeletedBy      string `json:"deletedBy,omitempty" bson:"deletedBy,omitempty"`
	DeletionReason string `json:"deletionReason,omitempty" bson:"deletionReason,omitempty"`

	AdminReminderSent bool                     `json:"admin_reminder_sent" bson:"admin_reminder_sent"`
	DelayHistory      []ordermodels.DelayEntry `json:"delay_history" bson:"delay_history"`

	MessageTS string `json:"messageTs,omitempty" bson:"messageTs,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
