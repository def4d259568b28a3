package seqmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// Sequence is one counter document per (prefix, yearMonth) pair.
// CurrentNumber is only ever moved by atomic $inc.
type Sequence struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Prefix        string             `json:"prefix" bson:"prefix"`
	YearMonth     string             `json:"yearMonth" bson:"yearMonth"`
	CurrentNumber int64              `json:"currentNumber" bson:"currentNumber"`
	CreatedAt     int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt     int64              `json:"updatedAt" bson:"updatedAt"`
}
