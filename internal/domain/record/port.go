package record

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
)

// Store maps (collection, id) to a JSON document. Implementations must be safe for
// concurrent use; writes to one record must not corrupt another.
type Store interface {
	Create(ctx context.Context, collection, id string, data []byte) error
	Read(ctx context.Context, collection, id string) ([]byte, error)
	Update(ctx context.Context, collection, id string, data []byte) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]string, error)
}
