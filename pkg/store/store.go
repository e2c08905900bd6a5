// Package store persists named layout documents for the HTTP service.
//
// A [Document] is an opaque serialized layout (the JSON interchange form
// produced by pkg/io) with identity and bookkeeping metadata. Two backends
// are provided: [MemoryStore] for development and tests, and [MongoStore]
// for deployments that need durable multi-instance storage.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cartoflow/cartoflow/pkg/errors"
)

// Document is one stored layout.
type Document struct {
	// ID is the storage key, a UUID assigned at creation.
	ID string `bson:"_id" json:"id"`

	// Name is the user-facing label. Validated on creation; not unique.
	Name string `bson:"name" json:"name"`

	// Payload is the serialized layout document.
	Payload []byte `bson:"payload" json:"payload"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewDocument creates a document with a fresh UUID and creation time.
// The name is validated; the payload is stored as given.
func NewDocument(name string, payload []byte) (*Document, error) {
	if err := errors.ValidateLayoutName(name); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.NewString(),
		Name:      name,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Store is the interface layout persistence backends implement.
//
// Get returns an error with code [errors.ErrCodeLayoutNotFound] when no
// document has the given ID. Put upserts and refreshes UpdatedAt. Delete
// of an absent ID is not an error.
type Store interface {
	Get(ctx context.Context, id string) (*Document, error)
	Put(ctx context.Context, doc *Document) error
	List(ctx context.Context) ([]*Document, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}
