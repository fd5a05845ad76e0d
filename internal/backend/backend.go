// Package backend selects which transaction store serves the API and keeps
// responses consistent when the durable store misbehaves.
package backend

import (
	"context"
	"fmt"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"

	applog "fintrack/internal/log"
	memstore "fintrack/internal/store/memory"
	mongostore "fintrack/internal/store/mongo"
)

// Type identifies a store implementation.
type Type string

const (
	// TypeMongo is the durable document-store backend.
	TypeMongo Type = "mongo"
	// TypeMemory is the in-process fallback backend.
	TypeMemory Type = "memory"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeMongo, TypeMemory:
		return true
	default:
		return false
	}
}

// Config holds everything the factory needs to build the stores.
type Config struct {
	// MongoURI selects the durable backend; empty means fallback-only mode
	// for the process lifetime.
	MongoURI string
	// MongoDatabase is the database holding the transactions collection.
	MongoDatabase string
	// ConnectTimeout bounds the startup connection attempt.
	ConnectTimeout time.Duration
	// SeedFallback pre-populates the memory store with demo records.
	SeedFallback bool
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func(ctx context.Context) error

// Factory builds the coordinator from configuration, once at process start.
type Factory struct {
	logger *applog.Logger
}

// NewFactory creates a backend factory.
func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateCoordinator builds the fallback store, attempts the Mongo primary
// when configured, and wires both into a Coordinator. A primary that cannot
// be reached at startup is logged and skipped: the process runs fallback-only,
// exactly as if no URI had been configured.
func (f *Factory) CreateCoordinator(ctx context.Context, config Config) (*Coordinator, CleanupFunc, error) {
	fallback := f.createFallback(config)

	if config.MongoURI == "" {
		f.logger.Info("No MongoDB URI configured, using in-memory fallback store",
			applog.FieldBackend, TypeMemory.String())
		return NewCoordinator(nil, fallback, f.logger), noCleanup, nil
	}

	client, err := mongostore.Connect(ctx, config.MongoURI, config.ConnectTimeout)
	if err != nil {
		f.logger.Warn("MongoDB unavailable at startup, using in-memory fallback store",
			applog.FieldError, err,
			applog.FieldBackend, TypeMemory.String())
		return NewCoordinator(nil, fallback, f.logger), noCleanup, nil
	}

	if config.MongoDatabase == "" {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo database name is required when a URI is configured")
	}

	primary := mongostore.NewStore(client, config.MongoDatabase)
	f.logger.Info("Initialized MongoDB backend",
		applog.FieldBackend, TypeMongo.String(),
		"database", config.MongoDatabase)

	cleanup := func(ctx context.Context) error {
		return disconnect(ctx, client)
	}
	return NewCoordinator(primary, fallback, f.logger), cleanup, nil
}

func (f *Factory) createFallback(config Config) *memstore.Store {
	if config.SeedFallback {
		f.logger.Info("Seeded in-memory fallback store with sample data",
			applog.FieldBackend, TypeMemory.String())
		return memstore.NewWithSampleData()
	}
	return memstore.New()
}

func noCleanup(context.Context) error { return nil }

func disconnect(ctx context.Context, client *mongodrv.Client) error {
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect MongoDB client: %w", err)
	}
	return nil
}
