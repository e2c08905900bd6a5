package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cartoflow/cartoflow/pkg/errors"
	"github.com/cartoflow/cartoflow/pkg/observability"
)

// MongoStore persists documents in a MongoDB collection, keyed by the
// document ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings it before returning, so a
// bad URI fails here rather than on the first operation.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Get retrieves a document by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	start := time.Now()
	var doc Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		observability.Store().OnStoreGet(ctx, id, false, time.Since(start))
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	if err != nil {
		observability.Store().OnStoreError(ctx, "get", id, err)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get layout %s", id)
	}
	observability.Store().OnStoreGet(ctx, id, true, time.Since(start))
	return &doc, nil
}

// Put upserts a document and refreshes its UpdatedAt.
func (s *MongoStore) Put(ctx context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document must have an ID")
	}
	start := time.Now()
	doc.UpdatedAt = time.Now().UTC()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		observability.Store().OnStoreError(ctx, "put", doc.ID, err)
		return errors.Wrap(errors.ErrCodeInternal, err, "put layout %s", doc.ID)
	}
	observability.Store().OnStorePut(ctx, doc.ID, len(doc.Payload), time.Since(start))
	return nil
}

// List returns all documents ordered by creation time, oldest first.
func (s *MongoStore) List(ctx context.Context) ([]*Document, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		observability.Store().OnStoreError(ctx, "list", "", err)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list layouts")
	}
	var docs []*Document
	if err := cur.All(ctx, &docs); err != nil {
		observability.Store().OnStoreError(ctx, "list", "", err)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode layouts")
	}
	return docs, nil
}

// Delete removes a document. Deleting an absent ID is a no-op.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		observability.Store().OnStoreError(ctx, "delete", id, err)
		return errors.Wrap(errors.ErrCodeInternal, err, "delete layout %s", id)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "disconnect mongodb")
	}
	return nil
}
