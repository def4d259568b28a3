// Package dto - inputs for the payment request domain.
package dto

// CreatePaymentRequestInput is the payload of a payment request form.
type CreatePaymentRequestInput struct {
	RequesterID   string  `json:"requesterId" validate:"required"`
	RequesterName string  `json:"requesterName"`
	ChannelID     string  `json:"channelId" validate:"required"`
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description"`
	Beneficiary   string  `json:"beneficiary" validate:"required"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency" validate:"currency"`
}

// MarkPaidInput records the actual disbursement on a validated request.
type MarkPaidInput struct {
	PaymentMode string `json:"paymentMode" validate:"required"`
	PaidBy      string `json:"paidBy" validate:"required"`
}

// AddJustificatifInput attaches one proof of payment.
type AddJustificatifInput struct {
	Type       string `json:"type" validate:"required,oneof=file url"`
	URL        string `json:"url" validate:"required"`
	Title      string `json:"title"`
	UploadedBy string `json:"uploadedBy" validate:"required"`
}
