package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect establishes and pings a MongoDB connection within the given
// timeout. The caller owns the returned client and must Disconnect it.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "component", "store")
	return client, nil
}
