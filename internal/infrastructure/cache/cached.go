package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cached returns the value stored under key, or computes it with fetch and
// stores the result for ttl. Values are serialized as JSON. Cache read and
// write failures are swallowed so a broken cache degrades to a fetch per
// request instead of failing the caller.
func Cached[T any](ctx context.Context, store Store, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if store != nil {
		if raw, ok, err := store.Get(ctx, key); err == nil && ok {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	if store != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = store.Set(ctx, key, raw, ttl)
		}
	}
	return value, nil
}
