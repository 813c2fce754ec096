package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "marketplace"

// Connect opens a MongoDB client, pings the primary and returns the named database
// together with a disconnect function.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, func(context.Context) error, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, nil, fmt.Errorf("mongo URI is empty")
	}
	if strings.TrimSpace(database) == "" {
		database = DefaultDatabase
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(database), client.Disconnect, nil
}
