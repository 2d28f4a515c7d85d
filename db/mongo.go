package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/backend/logging"
)

const (
	connectAttempts = 5
	initialBackoff  = 2 * time.Second
)

// Connect establishes a MongoDB client, retrying with doubling backoff
// before giving up. The returned client is owned by the caller, which is
// responsible for Disconnect on shutdown.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongo.Connect(attemptCtx, options.Client().ApplyURI(uri))
		if err == nil {
			err = client.Ping(attemptCtx, nil)
			if err == nil {
				cancel()
				logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", uri)
				return client, nil
			}
			_ = client.Disconnect(attemptCtx)
		}
		cancel()

		lastErr = err
		logging.Logger.Warnf("Event ID: DB_CONNECT_RETRY, Description: MongoDB connection attempt %d/%d failed: %v", attempt, connectAttempts, err)

		if attempt < connectAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("mongodb connection failed after %d attempts: %v", connectAttempts, lastErr)
}

// Disconnect closes the client, logging rather than failing on error.
func Disconnect(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: Error closing MongoDB connection: %v", err)
		return
	}
	logging.Logger.Info("Event ID: DB_DISCONNECTED, Description: MongoDB connection closed.")
}
