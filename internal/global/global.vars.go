// Package global holds process-wide singletons: the server configuration,
// the Mongo session, collection names and the shared registries.
package global

import (
	"caisseflow/config"
	"caisseflow/internal/registry"

	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionNames lists every MongoDB collection the application uses.
type CollectionNames struct {
	Orders          string // purchase orders, with embedded proformas/payments
	PaymentRequests string // direct payment requests
	Caisses         string // cash registers, with embedded funding/transfer requests
	Sequences       string // per-prefix/per-month id counters
}

// ColNames is the single source of collection naming.
var ColNames = CollectionNames{
	Orders:          "orders",
	PaymentRequests: "payment_requests",
	Caisses:         "caisses",
	Sequences:       "sequences",
}

// Process-wide singletons, assigned once during startup (cmd/server/init.go).
var (
	MongoDB_Session *mongo.Client
	ServerConfig    *config.Configuration
)

// Registries for shared Mongo handles.
var (
	RegistryCollections = registry.NewRegistry[*mongo.Collection]()
	RegistryDatabase    = registry.NewRegistry[*mongo.Database]()
)
