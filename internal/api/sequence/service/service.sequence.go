// Package seqsvc generates the human-readable, month-scoped identifiers
// used across the application (CMD/2025/03/0042 and friends).
package seqsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "caisseflow/internal/api/base/service"
	seqmodels "caisseflow/internal/api/sequence/models"
	"caisseflow/internal/common"
	"caisseflow/internal/utility"
)

// Prefixes of the sequences handed out by this service.
const (
	PrefixOrder    = "CMD"
	PrefixPayment  = "PAY"
	PrefixFunding  = "FUND"
	PrefixTransfer = "TRANS"
)

// SequenceService hands out sequential IDs. Every prefix goes through
// the same atomic counter document, so concurrent submissions can never
// compute the same number.
type SequenceService struct {
	*basesvc.BaseServiceMongoImpl[seqmodels.Sequence]
}

// NewSequenceService creates the service over the sequences collection.
func NewSequenceService(collection *mongo.Collection) *SequenceService {
	return &SequenceService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[seqmodels.Sequence](collection),
	}
}

// Next reserves the next number for (prefix, current year-month) and
// returns the formatted identifier, e.g. "TRANS/2025/03/0007".
// The upsert-with-$inc runs as a single document operation.
func (s *SequenceService) Next(ctx context.Context, prefix string) (string, error) {
	return s.NextAt(ctx, prefix, time.Now())
}

// NextAt is Next pinned to a given time. Used by tests and backfills.
func (s *SequenceService) NextAt(ctx context.Context, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		return "", common.ErrRequiredField
	}
	yearMonth := utility.YearMonth(at)

	filter := bson.M{"prefix": prefix, "yearMonth": yearMonth}
	update := &basesvc.UpdateData{
		Inc:         map[string]interface{}{"currentNumber": int64(1)},
		SetOnInsert: map[string]interface{}{"createdAt": at.UnixMilli()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	seq, err := s.FindOneAndUpdate(ctx, filter, update, opts)
	if err != nil {
		return "", err
	}

	return FormatID(prefix, yearMonth, seq.CurrentNumber), nil
}

// FormatID renders an identifier as PREFIX/YYYY/MM/NNNN. Numbers past
// 9999 keep their full width rather than wrapping.
func FormatID(prefix, yearMonth string, number int64) string {
	return fmt.Sprintf("%s/%s/%04d", prefix, yearMonth, number)
}
