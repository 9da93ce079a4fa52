// Package mongo implements storage.IndexClient on MongoDB. Documents are
// stored with their key as _id and merged field by field with $set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Config selects the MongoDB collection that holds search documents.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Client implements storage.IndexClient with unordered bulk upserts.
type Client struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

var _ storage.IndexClient = (*Client)(nil)

func newClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" || cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.New("mongo: uri, database and collection are required")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	return &Client{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     slog.Default().With("component", "mongo-index"),
	}, nil
}

// NewClient connects to MongoDB and verifies the connection.
//
// Returns storage.IndexClient interface to enforce abstraction.
func NewClient(ctx context.Context, cfg Config) (storage.IndexClient, error) {
	return newClient(ctx, cfg)
}

// Close disconnects from MongoDB.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// MergeOrUpload upserts every keyed document in one unordered bulk write.
func (c *Client) MergeOrUpload(ctx context.Context, docs []core.SearchDocument) ([]storage.IndexResult, error) {
	results := make([]storage.IndexResult, len(docs))
	models, positions := buildWriteModels(docs, results)
	if len(models) == 0 {
		return results, nil
	}

	res, err := c.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err := collectResults(docs, positions, res, err, results); err != nil {
		c.logger.Error("bulk write failed", "docs", len(models), "err", err)
		return nil, err
	}
	return results, nil
}

// buildWriteModels creates one upsert per keyed document. positions maps each
// model back to its document; documents without a key are resolved in results.
func buildWriteModels(docs []core.SearchDocument, results []storage.IndexResult) ([]mongo.WriteModel, []int) {
	models := make([]mongo.WriteModel, 0, len(docs))
	positions := make([]int, 0, len(docs))
	for i, doc := range docs {
		key := doc.Key()
		if key == "" {
			results[i] = storage.MissingKey(doc)
			continue
		}

		fields := bson.M{}
		for k, v := range doc {
			if k == core.FieldID {
				continue
			}
			fields[k] = v
		}
		update := bson.M{"$setOnInsert": bson.M{core.FieldID: key}}
		if len(fields) > 0 {
			update["$set"] = fields
		}

		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": key}).
			SetUpdate(update).
			SetUpsert(true))
		positions = append(positions, i)
	}
	return models, positions
}

// collectResults fills results from a bulk write outcome. Per-document write
// errors fail only their document; any other error fails the request.
func collectResults(docs []core.SearchDocument, positions []int, res *mongo.BulkWriteResult, err error, results []storage.IndexResult) error {
	failed := map[int]mongo.BulkWriteError{}
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
			return fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
		}
		for _, we := range bwe.WriteErrors {
			failed[we.Index] = we
		}
	}

	for m, i := range positions {
		key := docs[i].Key()
		if we, ok := failed[m]; ok {
			results[i] = storage.Failed(key, storage.Status(http.StatusBadRequest), errors.New(we.Message))
			continue
		}
		status := http.StatusOK
		if res != nil {
			if _, inserted := res.UpsertedIDs[int64(m)]; inserted {
				status = http.StatusCreated
			}
		}
		results[i] = storage.Succeeded(key, status)
	}
	return nil
}
