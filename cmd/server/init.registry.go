package main

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"caisseflow/config"
	"caisseflow/internal/global"
)

// InitRegistry registers every MongoDB collection the application uses in
// the shared collection registry.
func InitRegistry() {
	if err := InitCollections(global.MongoDB_Session, global.ServerConfig); err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// InitCollections registers the application collections against the
// configured database.
func InitCollections(client *mongo.Client, cfg *config.Configuration) error {
	db := client.Database(cfg.MongoDB_DBName)

	colNames := []string{
		global.ColNames.Orders,
		global.ColNames.PaymentRequests,
		global.ColNames.Caisses,
		global.ColNames.Sequences,
	}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}
		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Warnf("Collection %s already registered", name)
		}
	}

	return nil
}

// mustCollection fetches a registered collection or dies. Only called during
// startup, after InitRegistry.
func mustCollection(name string) *mongo.Collection {
	col, ok := global.RegistryCollections.Get(name)
	if !ok {
		logrus.Fatalf("Collection %s is not registered", name)
	}
	return col
}
