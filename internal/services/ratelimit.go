package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitResult is the outcome of a limiter check.
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// CounterStore records hits per key and reports how many fall inside the
// sliding window ending at now, plus the oldest hit still in the window.
type CounterStore interface {
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (count int64, oldest time.Time, err error)
}

// NewCounterStore selects the shared Redis store when Redis is enabled and
// reachable, otherwise the in-process store. The in-process store is
// best-effort only: counters are not shared across server instances.
func NewCounterStore(cfg *config.RedisConfig) CounterStore {
	if cfg != nil && cfg.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("[RateLimit] Redis unavailable, falling back to in-process counters: %v", err)
			return NewMemoryCounterStore()
		}
		logger.Infof("[RateLimit] Shared counter store initialized with Redis at %s", cfg.Addr)
		return &RedisCounterStore{client: client}
	}
	logger.Infof("[RateLimit] In-process counter store initialized (Redis disabled)")
	return NewMemoryCounterStore()
}

// RedisCounterStore keeps one sorted set per key, scored by hit timestamp.
type RedisCounterStore struct {
	client *redis.Client
}

func (s *RedisCounterStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	redisKey := "ratelimit:" + key
	windowStart := now.Add(-window)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.Expire(ctx, redisKey, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	oldestAt := now
	if vals, err := oldest.Result(); err == nil && len(vals) > 0 {
		oldestAt = time.Unix(0, int64(vals[0].Score))
	}
	return card.Val(), oldestAt, nil
}

// MemoryCounterStore is the in-process fallback. Not authoritative across
// multiple server instances.
type MemoryCounterStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{hits: make(map[string][]time.Time)}
}

func (s *MemoryCounterStore) Count(_ context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowStart := now.Add(-window)
	kept := s.hits[key][:0]
	for _, ts := range s.hits[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	s.hits[key] = kept

	return int64(len(kept)), kept[0], nil
}

// RateLimiter gates high-frequency endpoints with a sliding-window counter.
type RateLimiter struct {
	store CounterStore
}

func NewRateLimiter(store CounterStore) *RateLimiter {
	return &RateLimiter{store: store}
}

// Check records a hit for key and decides whether it fits within limit hits
// per window. Denials carry remaining=0 and the time the window frees up.
// A counter-store failure fails open: blocking all traffic on a cache outage
// would be worse than briefly not limiting it.
func (l *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	count, oldest, err := l.store.Count(ctx, key, now, window)
	if err != nil {
		logger.Errorf("[RateLimit] counter store error for %s: %v", key, err)
		return &RateLimitResult{Allowed: true, Remaining: 0, ResetAt: now.Add(window)}, nil
	}

	if count > int64(limit) {
		return &RateLimitResult{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   oldest.Add(window),
		}, nil
	}

	return &RateLimitResult{
		Allowed:   true,
		Remaining: limit - int(count),
		ResetAt:   oldest.Add(window),
	}, nil
}
