// Package presence publishes which clients are connected to this engine
// instance to a shared Redis keyspace, so a front-of-fleet router (outside
// this core's scope, per spec §9) can tell which of several engine
// instances currently holds a given account without asking each one.
//
// Grounded on the teacher's internal/storage/redis_position_repo.go
// (RedisConfig shape, key-prefix + TTL convention, one *redis.Client per
// repository) — generalized from caching hot player positions to a much
// smaller online/offline flag, since this core's own worldstore.Store is
// already the source of truth for everything else a repository like that
// would cache.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/mmo-game/internal/logging"
	"github.com/go-redis/redis/v8"
)

// Config mirrors the teacher's RedisConfig fields this registry actually
// needs; batching fields from the teacher's position repo don't apply to a
// single SET/DEL per connect/disconnect.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
	NodeID    string // identifies this engine instance in the stored value
}

func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "mmo:presence:",
		TTL:       2 * time.Minute,
		NodeID:    "node-1",
	}
}

// Registry is nil-safe: every method no-ops on a nil *Registry, so engine
// code can hold one unconditionally and only pay for Redis when an
// operator actually configures it (§9 — presence fan-out is an optional
// outer concern, not a core invariant).
type Registry struct {
	client *redis.Client
	cfg    Config
}

func New(cfg Config) *Registry {
	return &Registry{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		cfg: cfg,
	}
}

func (r *Registry) key(clientStable uint64) string {
	return fmt.Sprintf("%s%d", r.cfg.KeyPrefix, clientStable)
}

// MarkOnline records clientStable as resident on this node, refreshed on
// every call so a crashed instance's entries expire instead of sticking
// around forever (teacher's TTL convention, same role as its position
// cache's staleness guard).
func (r *Registry) MarkOnline(ctx context.Context, clientStable uint64) {
	if r == nil {
		return
	}
	if err := r.client.Set(ctx, r.key(clientStable), r.cfg.NodeID, r.cfg.TTL).Err(); err != nil {
		logging.LogWarn("presence: MarkOnline(%d) failed: %v", clientStable, err)
	}
}

// MarkOffline clears the entry immediately on a clean disconnect, rather
// than waiting out the TTL.
func (r *Registry) MarkOffline(ctx context.Context, clientStable uint64) {
	if r == nil {
		return
	}
	if err := r.client.Del(ctx, r.key(clientStable)).Err(); err != nil {
		logging.LogWarn("presence: MarkOffline(%d) failed: %v", clientStable, err)
	}
}

// NodeOf reports which node currently holds clientStable, or ok=false if
// no instance has claimed it (or Redis is unreachable — a router should
// treat that the same as "unknown", not "offline").
func (r *Registry) NodeOf(ctx context.Context, clientStable uint64) (node string, ok bool) {
	if r == nil {
		return "", false
	}
	v, err := r.client.Get(ctx, r.key(clientStable)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Close releases the underlying Redis connection pool.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}
