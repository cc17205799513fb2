package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// keyPrefix namespaces this application's keys in the shared store.
const keyPrefix = "ytkw:"

var (
	tierHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytkw_cache_hits_total",
			Help: "Cache hits by tier (memory, redis).",
		},
		[]string{"tier"},
	)
	tierMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytkw_cache_misses_total",
			Help: "Lookups that missed both cache tiers.",
		},
	)
)

func init() {
	prometheus.MustRegister(tierHits, tierMisses)
}

// Tiered is a two-level cache: a bounded in-memory LRU in front of an
// optional shared Redis store. Values are JSON on the durable tier and
// opaque to it. All durable-tier failures degrade to a miss for that
// call only; they never reach the caller.
type Tiered[V any] struct {
	memory *LRU[V]
	rdb    *redis.Client
}

// NewTiered wraps memory with an optional durable tier. rdb may be nil.
func NewTiered[V any](memory *LRU[V], rdb *redis.Client) *Tiered[V] {
	return &Tiered[V]{memory: memory, rdb: rdb}
}

// Get checks memory first, then the durable store. A durable hit
// re-populates the memory tier under the given TTL.
func (t *Tiered[V]) Get(ctx context.Context, key string, ttl time.Duration) (V, bool) {
	var zero V
	if v, ok := t.memory.Get(key); ok {
		tierHits.WithLabelValues("memory").Inc()
		return v, true
	}

	if t.rdb == nil {
		tierMisses.Inc()
		return zero, false
	}

	data, err := t.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("cache: durable read failed")
		}
		tierMisses.Inc()
		return zero, false
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache: durable entry undecodable")
		tierMisses.Inc()
		return zero, false
	}

	t.memory.SetTTL(key, value, ttl)
	tierHits.WithLabelValues("redis").Inc()
	return value, true
}

// Set writes to the memory tier and, when configured, the durable store.
// Durable write errors are swallowed; the memory tier is authoritative
// for this process.
func (t *Tiered[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	t.memory.SetTTL(key, value, ttl)

	if t.rdb == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache: durable encode failed")
		return
	}
	if err := t.rdb.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache: durable write failed")
	}
}

// StaleEntry returns an expired-but-present memory entry for key, used
// as a fallback candidate when a refresh is rate limited.
func (t *Tiered[V]) StaleEntry(key string) (V, bool) {
	var zero V
	entry, ok := t.memory.GetEntry(key)
	if !ok || !entry.Expired(time.Now()) {
		return zero, false
	}
	return entry.Value, true
}

// Memory exposes the in-memory tier for direct operations (delete, clear).
func (t *Tiered[V]) Memory() *LRU[V] {
	return t.memory
}
