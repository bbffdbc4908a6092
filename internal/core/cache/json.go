package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

const keyPrefix = "lostfound:"

// Key joins parts under the application prefix, e.g. Key("admin",
// "dashboard") is "lostfound:admin:dashboard".
func Key(parts ...string) string { return keyPrefix + strings.Join(parts, ":") }

// GetOrLoadJSON caches the JSON form of the loaded value. The caller that
// ran the loader gets its value back as is; an entry that no longer decodes
// into T is dropped and loaded again.
func GetOrLoadJSON[T any](c *Cache, ctx context.Context, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	var fresh *T
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		fresh = v
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		return fresh, nil
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		_ = c.Invalidate(ctx, key)
		return load(ctx)
	}
	return &out, nil
}
