package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retroprofile-api/internal/logging"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCache stores entries as documents keyed by cache key. A TTL index on
// expires_at lets the server drop expired documents.
type MongoCache struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// NewMongoCache connects to MongoDB and prepares the collection.
func NewMongoCache(uri, database, collection string) (*MongoCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		logging.Warn().Err(err).Msg("[MongoCache] failed to create TTL index")
	}

	logging.Info().Str("database", database).Str("collection", collection).Msg("[MongoCache] connected")
	return &MongoCache{client: client, collection: coll}, nil
}

// Get retrieves a value by key.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoEntry
	err := c.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	// The TTL monitor runs about once a minute, so expiry is checked here too.
	if !time.Now().Before(doc.ExpiresAt) {
		return nil, ErrCacheMiss
	}
	return doc.Payload, nil
}

// Set stores a value with the given TTL.
func (c *MongoCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	doc := mongoEntry{Key: key, Payload: value, ExpiresAt: time.Now().Add(ttl)}
	_, err := c.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Delete removes a value by key.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client.
func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}
