// Package redis persists session state as named slot snapshots in Redis.
//
// Every value is an opaque jx-encoded snapshot under a session- or
// order-scoped key. The adapter is deliberately failure-tolerant: reads
// degrade to the slot's default and writes are best-effort, both logged and
// never surfaced, since a storage hiccup must not block a cart mutation.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient connects to the Redis at url and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return rdb, nil
}

// Sessions hands out the per-session and per-order slots. Slot values share
// one TTL; every write refreshes it, so active sessions never expire
// mid-use while abandoned ones age out.
type Sessions struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewSessions creates a Sessions store over rdb.
func NewSessions(rdb *goredis.Client, ttl time.Duration) *Sessions {
	return &Sessions{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID, slot string) string {
	return "cart:sess:" + sessionID + ":" + slot
}

func editKey(orderID string) string {
	return "cart:edit:" + orderID
}

// load fetches the raw snapshot for key. Missing keys and Redis failures
// both come back as (nil, false); failures are logged here and nowhere else.
func (s *Sessions) load(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			zctx.From(ctx).Warn("Slot read failed, using default",
				zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// save writes the snapshot for key, refreshing the TTL. Failures are logged
// and swallowed.
func (s *Sessions) save(ctx context.Context, key string, data []byte) {
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		zctx.From(ctx).Warn("Slot write failed",
			zap.String("key", key), zap.Error(err))
	}
}

// clear deletes the key outright, as opposed to saving an empty value,
// so cleared slots leave no orphaned keys behind.
func (s *Sessions) clear(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		zctx.From(ctx).Warn("Slot delete failed",
			zap.String("key", key), zap.Error(err))
	}
}

// decodeWarn logs a snapshot that failed to decode. The slot then behaves
// as if it were empty.
func decodeWarn(ctx context.Context, key string, err error) {
	zctx.From(ctx).Warn("Slot snapshot corrupt, using default",
		zap.String("key", key), zap.Error(err))
}
