package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"caisseflow/config"
	"caisseflow/internal/database"
	"caisseflow/internal/global"
)

// InitGlobal populates the process-wide singletons: configuration first,
// then the MongoDB session. Any failure here is fatal.
func InitGlobal() {
	initConfig()
	initDatabase_MongoDB()
}

func initConfig() {
	cfg := config.NewConfig()
	if cfg == nil {
		logrus.Fatal("Failed to load configuration")
	}
	global.ServerConfig = cfg
	logrus.Info("Initialized server configuration")
}

func initDatabase_MongoDB() {
	client, err := database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	global.MongoDB_Session = client

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db := client.Database(global.ServerConfig.MongoDB_DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logrus.Fatalf("Failed to ensure MongoDB indexes: %v", err)
	}
	logrus.Info("Initialized MongoDB session and indexes")
}
