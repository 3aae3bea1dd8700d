package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is reported by the
// boolean, not by an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes per stage.
const (
	TTLExtract = 24 * time.Hour
	TTLCompose = 7 * 24 * time.Hour
	TTLRender  = 7 * 24 * time.Hour
	TTLPlan    = time.Hour
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every backend name.
var Backends = []string{BackendNone, BackendFile, BackendMemory, BackendRedis, BackendMongo}
