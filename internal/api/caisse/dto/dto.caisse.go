// Package dto - inputs for the caisse domain.
package dto

// CreateCaisseInput registers a new cash register on a channel.
type CreateCaisseInput struct {
	Type        string `json:"type" validate:"required"`
	ChannelID   string `json:"channelId" validate:"required"`
	ChannelName string `json:"channelName"`
}

// SubmitFundingInput asks to credit a caisse with outside money.
type SubmitFundingInput struct {
	ChannelID   string  `json:"channelId" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Currency    string  `json:"currency" validate:"currency"`
	Motif       string  `json:"motif"`
	RequesterID string  `json:"requesterId" validate:"required"`
}

// ChequeDetailsInput carries cheque information on a cheque
// disbursement finalization.
type ChequeDetailsInput struct {
	Number   string `json:"number" validate:"required"`
	Bank     string `json:"bank"`
	IssuedTo string `json:"issuedTo"`
}

// SubmitTransferInput asks to move balance between two caisses.
type SubmitTransferInput struct {
	FromChannelID string  `json:"fromChannelId" validate:"required"`
	ToChannelID   string  `json:"toChannelId" validate:"required,nefield=FromChannelID"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency" validate:"currency"`
	Motif         string  `json:"motif"`
	RequesterID   string  `json:"requesterId" validate:"required"`
}
