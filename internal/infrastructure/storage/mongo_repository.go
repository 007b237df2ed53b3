package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/ports"
)

// MongoRepository stores one document per project keyed by source_url.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ ports.RecordRepository = (*MongoRepository)(nil)

// NewMongoRepository connects, pings and ensures the unique source_url index.
func NewMongoRepository(ctx context.Context, dsn, database, collection string) (*MongoRepository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo := &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: domain.ConflictKey, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.collection.Indexes().CreateOne(connectCtx, index); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create source_url index: %w", err)
	}

	return repo, nil
}

// Upsert replaces the whole document for the row's source URL.
func (r *MongoRepository) Upsert(ctx context.Context, row domain.ProjectRow) error {
	if r.collection == nil {
		return ErrNoDatabase
	}

	filter := bson.D{{Key: domain.ConflictKey, Value: row.SourceURL()}}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, toDocument(row), opts); err != nil {
		return fmt.Errorf("replace project %s: %w", row.SourceURL(), err)
	}

	return nil
}

// Close disconnects the client.
func (r *MongoRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

// toDocument keeps every column, in column order, so absent optionals are stored as null.
func toDocument(row domain.ProjectRow) bson.D {
	doc := make(bson.D, 0, len(domain.Columns))
	for _, col := range domain.Columns {
		doc = append(doc, bson.E{Key: col, Value: row[col]})
	}
	return doc
}
