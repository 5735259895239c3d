package metadata

import "context"

// Repository stores string values by key. Get reports found=false for an
// absent key rather than an error.
type Repository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
