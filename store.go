package params

import "context"

// Store is the remote parameter store consumed by the engine. Keys are
// path-like strings (see KeyFor). Get returns ErrNotFound when the key is
// absent. Implementations own their timeout and retry policy.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
}
