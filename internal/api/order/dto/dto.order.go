// Package dto - inputs for the order domain.
package dto

// ArticleInput is one line item on a create or edit submission.
type ArticleInput struct {
	Designation string   `json:"designation" validate:"required"`
	Quantity    float64  `json:"quantity" validate:"gt=0"`
	Unit        string   `json:"unit"`
	Photos      []string `json:"photos,omitempty"`
}

// CreateOrderInput is the payload of an order form submission.
type CreateOrderInput struct {
	RequesterID   string         `json:"requesterId" validate:"required"`
	RequesterName string         `json:"requesterName"`
	ChannelID     string         `json:"channelId" validate:"required"`
	ChannelName   string         `json:"channelName"`
	Articles      []ArticleInput `json:"articles" validate:"required,min=1,dive"`
}

// EditOrderInput replaces the line items of a pending order.
type EditOrderInput struct {
	Articles []ArticleInput `json:"articles" validate:"required,min=1,dive"`
	EditorID string         `json:"editorId" validate:"required"`
}

// AddProformaInput attaches a supplier quotation to an order.
type AddProformaInput struct {
	Supplier   string  `json:"supplier" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	Currency   string  `json:"currency" validate:"currency"`
	FileURL    string  `json:"fileUrl,omitempty"`
	UploadedBy string  `json:"uploadedBy" validate:"required"`
}

// RecordPaymentInput records one partial payment against a validated order.
type RecordPaymentInput struct {
	Mode     string  `json:"mode" validate:"required"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency" validate:"currency"`
	ProofURL string  `json:"proofUrl,omitempty"`
	PaidBy   string  `json:"paidBy" validate:"required"`
}
