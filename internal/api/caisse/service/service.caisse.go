// Package caissesvc implements the cash registers: balances, funding
// requests, inter-caisse transfers and the append-only ledger.
package caissesvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	basesvc "caisseflow/internal/api/base/service"
	"caisseflow/internal/api/caisse/dto"
	caissemodels "caisseflow/internal/api/caisse/models"
	seqsvc "caisseflow/internal/api/sequence/service"
	"caisseflow/internal/common"
	"caisseflow/internal/global"
)

// CaisseService owns the caisses collection.
type CaisseService struct {
	*basesvc.BaseServiceMongoImpl[caissemodels.Caisse]
	sequences *seqsvc.SequenceService
}

// NewCaisseService wires the service over its collection and the
// shared sequence generator.
func NewCaisseService(collection *mongo.Collection, sequences *seqsvc.SequenceService) *CaisseService {
	return &CaisseService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[caissemodels.Caisse](collection),
		sequences:            sequences,
	}
}

// Create registers a new caisse with zeroed balances in every
// supported currency. The unique channelId index rejects duplicates.
func (s *CaisseService) Create(ctx context.Context, input *dto.CreateCaisseInput) (caissemodels.Caisse, error) {
	var zero caissemodels.Caisse

	if err := global.Validate.Struct(input); err != nil {
		return zero, common.NewError(common.ErrCodeValidationInput, "Données de caisse invalides", common.StatusBadRequest, err.Error())
	}

	balances := make(map[string]float64, len(caissemodels.Currencies))
	for _, currency := range caissemodels.Currencies {
		balances[currency] = 0
	}

	caisse := caissemodels.Caisse{
		Type:             input.Type,
		ChannelID:        input.ChannelID,
		ChannelName:      input.ChannelName,
		Balances:         balances,
		FundingRequests:  []caissemodels.FundingRequest{},
		TransferRequests: []caissemodels.TransferRequest{},
		Transactions:     []caissemodels.Transaction{},
	}

	return s.InsertOne(ctx, caisse)
}

// FindByChannelID loads the caisse tied to a Slack channel.
func (s *CaisseService) FindByChannelID(ctx context.Context, channelID string) (caissemodels.Caisse, error) {
	return s.FindOne(ctx, bson.M{"channelId": channelID}, nil)
}

// FindByFundingRequestID loads the caisse owning a funding request.
func (s *CaisseService) FindByFundingRequestID(ctx context.Context, requestID string) (caissemodels.Caisse, error) {
	return s.FindOne(ctx, bson.M{"fundingRequests.requestId": requestID}, nil)
}

// FindByTransferID loads the caisse owning a transfer request.
func (s *CaisseService) FindByTransferID(ctx context.Context, transferID string) (caissemodels.Caisse, error) {
	return s.FindOne(ctx, bson.M{"transferRequests.transferId": transferID}, nil)
}
