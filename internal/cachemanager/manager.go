// Package cachemanager holds short-lived values, such as weather reports,
// so slow sources are not asked again before their data goes stale.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key with a per-item time to live.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
