package block

import (
	"context"
	"errors"
	"io"
)

var (
	ErrDataNotFound = errors.New("not found")
)

// Adapter is the storage side of the index: uploaded distribution archives
// are stored and served through it, keyed by their deterministic path under
// the index. Adapters are not transactional; callers that pair a Put with
// database writes own the compensating Remove on failure.
type Adapter interface {
	Put(ctx context.Context, key string, reader io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
	BlockstoreType() string
}
