package limiter

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a limiter sharing counters across server replicas. A failure
// counter expires one window after the first failure; a block is a key
// with a TTL.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	p      Policy
}

// NewRedis constructs a Redis-backed limiter.
func NewRedis(rdb redis.Cmdable, p Policy) *Redis {
	return &Redis{rdb: rdb, prefix: "vesting:login:", p: p}
}

func (l *Redis) keys(username string, ipHash []byte) (fails, block string) {
	k := l.prefix + username + ":" + hex.EncodeToString(ipHash)
	return k + ":fails", k + ":block"
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Redis) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	_, block := l.keys(username, ipHash)
	ttl, err := l.rdb.PTTL(ctx, block).Result()
	if err != nil {
		return false, 0, err
	}
	// -2: no key, -1: key without expiry (never written by us)
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Success resets counters for (username, ip).
func (l *Redis) Success(ctx context.Context, username string, ipHash []byte) error {
	fails, block := l.keys(username, ipHash)
	return l.rdb.Del(ctx, fails, block).Err()
}

// Failure records a failed attempt; may set a block for the policy duration.
func (l *Redis) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	fails, block := l.keys(username, ipHash)
	n, err := l.rdb.Incr(ctx, fails).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := l.rdb.PExpire(ctx, fails, l.p.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if n < int64(l.p.MaxFails) {
		return false, 0, nil
	}
	_, err = l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, block, 1, l.p.BlockFor)
		p.Del(ctx, fails)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return true, l.p.BlockFor, nil
}
