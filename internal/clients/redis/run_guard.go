// Package redis holds the optional Redis-backed duplicate-run guard. A
// simulation run for a (user, request) pair can take minutes of exclusive
// accelerator time; the guard keeps a second submission for the same pair
// from queueing behind the first.
package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

type RunGuard interface {
	// Acquire takes the lease for a run. It returns false when another run
	// for the same pair already holds it.
	Acquire(ctx context.Context, userID, requestID int64) (bool, error)
	Release(ctx context.Context, userID, requestID int64) error
	Close() error
}

type runGuard struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRunGuard(log *logger.Logger) (RunGuard, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_RUN_GUARD_PREFIX"))
	if prefix == "" {
		prefix = "hairsim:run"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &runGuard{
		log:    log.With("service", "RedisRunGuard"),
		rdb:    rdb,
		prefix: prefix,
		// The lease expires on its own so a crashed worker cannot wedge a
		// pair forever.
		ttl: 30 * time.Minute,
	}, nil
}

func (g *runGuard) key(userID, requestID int64) string {
	return fmt.Sprintf("%s:%d:%d", g.prefix, userID, requestID)
}

func (g *runGuard) Acquire(ctx context.Context, userID, requestID int64) (bool, error) {
	if g == nil || g.rdb == nil {
		return false, fmt.Errorf("run guard not initialized")
	}
	ok, err := g.rdb.SetNX(ctx, g.key(userID, requestID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *runGuard) Release(ctx context.Context, userID, requestID int64) error {
	if g == nil || g.rdb == nil {
		return fmt.Errorf("run guard not initialized")
	}
	return g.rdb.Del(ctx, g.key(userID, requestID)).Err()
}

func (g *runGuard) Close() error {
	if g == nil || g.rdb == nil {
		return nil
	}
	return g.rdb.Close()
}

// NoopGuard admits every run. It stands in when REDIS_ADDR is not configured,
// which is fine for single-instance deployments where the in-process run
// table already serializes submissions.
type NoopGuard struct{}

func (NoopGuard) Acquire(ctx context.Context, userID, requestID int64) (bool, error) {
	return true, nil
}
func (NoopGuard) Release(ctx context.Context, userID, requestID int64) error { return nil }
func (NoopGuard) Close() error                                               { return nil }
