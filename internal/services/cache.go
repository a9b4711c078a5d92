package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// TeamStatus is the cached, read-through view of a team's seat situation.
// It is an optimization only and is never used for access decisions.
type TeamStatus struct {
	TeamID        uint `json:"team_id"`
	MemberCount   int  `json:"member_count"`
	Seats         int  `json:"seats"`
	OverSeatLimit bool `json:"over_seat_limit"`
}

const teamStatusTTL = 5 * time.Minute

// TeamStatusCache caches team seat status. Writers invalidate, never update:
// stale reads are tolerated until invalidation completes.
type TeamStatusCache interface {
	Get(ctx context.Context, teamID uint) (*TeamStatus, bool)
	Set(ctx context.Context, status *TeamStatus)
	Invalidate(ctx context.Context, teamID uint)
}

// NewTeamStatusCache mirrors the counter-store selection: Redis when
// enabled and reachable, otherwise an in-process map.
func NewTeamStatusCache(cfg *config.RedisConfig) TeamStatusCache {
	if cfg != nil && cfg.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("[Cache] Redis unavailable, falling back to in-process team status cache: %v", err)
			return NewMemoryTeamStatusCache()
		}
		return &RedisTeamStatusCache{client: client}
	}
	return NewMemoryTeamStatusCache()
}

type RedisTeamStatusCache struct {
	client *redis.Client
}

func teamStatusKey(teamID uint) string {
	return fmt.Sprintf("team:status:%d", teamID)
}

func (c *RedisTeamStatusCache) Get(ctx context.Context, teamID uint) (*TeamStatus, bool) {
	data, err := c.client.Get(ctx, teamStatusKey(teamID)).Bytes()
	if err != nil {
		return nil, false
	}
	var status TeamStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false
	}
	return &status, true
}

func (c *RedisTeamStatusCache) Set(ctx context.Context, status *TeamStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, teamStatusKey(status.TeamID), data, teamStatusTTL).Err(); err != nil {
		logger.Warnf("[Cache] failed to set team status %d: %v", status.TeamID, err)
	}
}

func (c *RedisTeamStatusCache) Invalidate(ctx context.Context, teamID uint) {
	if err := c.client.Del(ctx, teamStatusKey(teamID)).Err(); err != nil {
		logger.Warnf("[Cache] failed to invalidate team status %d: %v", teamID, err)
	}
}

// MemoryTeamStatusCache is the in-process fallback.
type MemoryTeamStatusCache struct {
	mu      sync.RWMutex
	entries map[uint]memoryStatusEntry
}

type memoryStatusEntry struct {
	status  TeamStatus
	expires time.Time
}

func NewMemoryTeamStatusCache() *MemoryTeamStatusCache {
	return &MemoryTeamStatusCache{entries: make(map[uint]memoryStatusEntry)}
}

func (c *MemoryTeamStatusCache) Get(_ context.Context, teamID uint) (*TeamStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[teamID]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	status := entry.status
	return &status, true
}

func (c *MemoryTeamStatusCache) Set(_ context.Context, status *TeamStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[status.TeamID] = memoryStatusEntry{status: *status, expires: time.Now().Add(teamStatusTTL)}
}

func (c *MemoryTeamStatusCache) Invalidate(_ context.Context, teamID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, teamID)
}
