// Package cache stores pipeline results keyed by content hashes.
//
// # Backends
//
// Every backend implements [Cache]:
//
//   - [NullCache]: stores nothing, disables caching
//   - [FileCache]: one JSON file per entry, the CLI default
//   - [MemoryCache]: in-process, the API server default
//   - [RedisCache]: shared cache for several servers
//   - [MongoCache]: shared cache with a TTL index
//
// [Open] builds a backend from [Options], which mirrors the [cache] section
// of the configuration file.
//
// # Keys
//
// A [Keyer] derives keys for each pipeline stage. Keys hash their inputs,
// so a document edited in any way gets a new composition key:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ComposeKey(cache.Hash(docJSON))
//
// [NewScopedKeyer] prefixes every key, isolating tenants that share a
// backend.
//
// # Retries
//
// Network backends wrap transient failures with [Retryable]; [Backoff.Do]
// retries only those.
package cache
