package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Doc pairs a decoded entity with its document metadata.
type Doc[T any] struct {
	ID         string
	Data       T
	UpdateTime time.Time
}

// Repo provides typed helpers over one Firestore collection.
type Repo[T any] struct {
	client     *Client
	collection string
}

// NewRepo binds a typed repository to a collection.
func NewRepo[T any](client *Client, collection string) *Repo[T] {
	return &Repo[T]{client: client, collection: collection}
}

func (r *Repo[T]) coll() *firestore.CollectionRef {
	return r.client.fs.Collection(r.collection)
}

func (r *Repo[T]) op(name string) string {
	return "store: " + r.collection + " " + name
}

// Get fetches and decodes one document by id.
func (r *Repo[T]) Get(ctx context.Context, id string) (Doc[T], error) {
	snap, err := r.coll().Doc(id).Get(ctx)
	if err != nil {
		return Doc[T]{}, WrapError(r.op("get"), err)
	}
	return r.decode(snap)
}

// Set upserts the value under the provided document id.
func (r *Repo[T]) Set(ctx context.Context, id string, value T) error {
	_, err := r.coll().Doc(id).Set(ctx, value)
	return WrapError(r.op("set"), err)
}

// Create stores the value under a generated document id.
func (r *Repo[T]) Create(ctx context.Context, value T) (string, error) {
	ref := r.coll().NewDoc()
	if _, err := ref.Set(ctx, value); err != nil {
		return "", WrapError(r.op("create"), err)
	}
	return ref.ID, nil
}

// Update applies partial field updates to the document.
func (r *Repo[T]) Update(ctx context.Context, id string, updates []firestore.Update) error {
	_, err := r.coll().Doc(id).Update(ctx, updates)
	return WrapError(r.op("update"), err)
}

// Delete removes the document. Deleting a missing document is not an error.
func (r *Repo[T]) Delete(ctx context.Context, id string) error {
	_, err := r.coll().Doc(id).Delete(ctx)
	return WrapError(r.op("delete"), err)
}

// QueryBuilder customises a collection query before execution.
type QueryBuilder func(q firestore.Query) firestore.Query

// Query runs a collection query and decodes every matching document.
func (r *Repo[T]) Query(ctx context.Context, build QueryBuilder) ([]Doc[T], error) {
	query := r.coll().Query
	if build != nil {
		query = build(query)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Doc[T]
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(r.op("query"), err)
		}
		doc, err := r.decode(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Repo[T]) decode(snap *firestore.DocumentSnapshot) (Doc[T], error) {
	var data T
	if err := snap.DataTo(&data); err != nil {
		return Doc[T]{}, WrapError(r.op("decode"), err)
	}
	return Doc[T]{ID: snap.Ref.ID, Data: data, UpdateTime: snap.UpdateTime}, nil
}
