package blob

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors returned by blob store implementations.
var (
	// ErrNotFound indicates the requested key does not exist in the store.
	ErrNotFound = errors.New("blob not found")
)

// Store is pure key→bytes storage. It has no awareness of the tree and
// performs no locking; keys are opaque strings generated by the services.
type Store interface {
	// Put writes the stream under the given key, overwriting any existing
	// object. size is the declared length of the stream.
	Put(ctx context.Context, key string, body io.Reader, size int64) error

	// Get returns a reader over the object's bytes.
	// The caller must close the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
