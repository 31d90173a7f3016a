// Package docstore is the single place where queries against the backing
// document store are expressed. Repositories describe what they want with
// Filter and FindOptions values and one of the Store implementations
// (mongostore, pgstore, memstore) turns that into driver calls.
package docstore

import (
	"context"
	"errors"
)

// IDField is the document key that carries the store-assigned identifier.
const IDField = "id"

// Errors returned by every Store implementation. Driver errors are wrapped so
// errors.Is works against these sentinels.
var (
	ErrUnavailable   = errors.New("docstore: store unavailable")
	ErrTimeout       = errors.New("docstore: operation timed out")
	ErrNotFound      = errors.New("docstore: document not found")
	ErrInvalidID     = errors.New("docstore: malformed document id")
	ErrDuplicateKey  = errors.New("docstore: duplicate key")
	ErrInvalidFilter = errors.New("docstore: invalid filter")
)

// Document is a schemaless record. Values are JSON-compatible: string,
// float64, bool, nil, []any and map[string]any.
type Document map[string]any

// ID returns the store-assigned identifier, or "" when the document has none.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// SortField orders results by one document field.
type SortField struct {
	Field      string
	Descending bool
}

// FindOptions controls ordering and paging of FindMany. Zero Skip and Limit
// mean "from the start" and "no limit". Without Sort the order is whatever
// the store returns and must not be relied on.
type FindOptions struct {
	Sort  []SortField
	Skip  int64
	Limit int64
}

// Store is the capability the rest of the service has over the document store.
type Store interface {
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	FindMany(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	// UpdateFields sets only the given fields on the document with the id.
	UpdateFields(ctx context.Context, collection, id string, fields Document) error
	DeleteByID(ctx context.Context, collection, id string) error
	// DeleteMany removes every matching document and reports how many went away.
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)
	// Upsert sets doc's fields on the first document matching filter, or inserts
	// doc when nothing matches.
	Upsert(ctx context.Context, collection string, filter Filter, doc Document) (id string, created bool, err error)
	EnsureUniqueIndex(ctx context.Context, collection, field string) error
	// ValidateID checks the id syntax for this store without any I/O.
	ValidateID(id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Validate checks paging bounds and sort field names.
func (o FindOptions) Validate() error {
	if o.Skip < 0 || o.Limit < 0 {
		return ErrInvalidFilter
	}
	for _, s := range o.Sort {
		if err := ValidateField(s.Field); err != nil {
			return err
		}
	}
	return nil
}

// WithoutID returns a shallow copy of the document minus the id key.
func (d Document) WithoutID() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}
