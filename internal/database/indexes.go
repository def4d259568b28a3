package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"caisseflow/internal/logger"
)

// EnsureIndexes creates the indexes the workflow queries depend on.
// Safe to run on every startup; Mongo treats existing indexes as no-ops.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	log := logger.WithModule("database")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id_commande", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("order_id_unique"),
		},
		// Reminder scan: stale pending orders by creation time.
		{
			Keys:    bson.D{{Key: "statut", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("order_statut_created"),
		},
		{
			Keys:    bson.D{{Key: "channelId", Value: 1}},
			Options: options.Index().SetName("order_channel"),
		},
	}
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return err
	}

	paymentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id_paiement", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("payment_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "statut", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("payment_statut_created"),
		},
	}
	if _, err := db.Collection("payment_requests").Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return err
	}

	caisseIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "channelId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("caisse_channel_unique"),
		},
		{
			Keys:    bson.D{{Key: "transferRequests.transferId", Value: 1}},
			Options: options.Index().SetName("caisse_transfer_id"),
		},
		{
			Keys:    bson.D{{Key: "fundingRequests.requestId", Value: 1}},
			Options: options.Index().SetName("caisse_funding_id"),
		},
	}
	if _, err := db.Collection("caisses").Indexes().CreateMany(ctx, caisseIndexes); err != nil {
		return err
	}

	seqIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "prefix", Value: 1}, {Key: "yearMonth", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("sequence_prefix_month_unique"),
		},
	}
	if _, err := db.Collection("sequences").Indexes().CreateMany(ctx, seqIndexes); err != nil {
		return err
	}

	log.Info("MongoDB indexes ensured")
	return nil
}
