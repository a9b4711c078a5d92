package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskRunClosed = "notify:run_closed"
)

// RunClosedPayload is the task payload dispatched when a run is closed.
type RunClosedPayload struct {
	RunID uint `json:"run_id"`
}

// TaskQueue abstracts background task dispatch.
type TaskQueue interface {
	// Enqueue schedules a task for processing.
	Enqueue(ctx context.Context, taskType string, payload interface{}) error
	// IsAsync returns true if tasks are processed by a separate worker.
	IsAsync() bool
	// Close gracefully shuts down the queue.
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config. With Redis
// enabled and reachable, tasks go through asynq and are handled by the
// worker; otherwise they run in-process.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance.
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue.
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a task to the async queue.
func (q *AsyncQueue) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(taskType, data),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, type=%s", info.ID, taskType)
	return nil
}

// IsAsync returns true for async queue.
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client.
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process handling (no Redis).
type SyncQueue struct {
	mu       sync.RWMutex
	handlers map[string]func(ctx context.Context, payload []byte) error
}

// NewSyncQueue creates a new synchronous queue.
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{handlers: make(map[string]func(ctx context.Context, payload []byte) error)}
}

// SetHandler registers the in-process handler for a task type.
func (q *SyncQueue) SetHandler(taskType string, handler func(ctx context.Context, payload []byte) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = handler
}

// Enqueue runs the task in a goroutine so callers are not blocked.
func (q *SyncQueue) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	q.mu.RLock()
	handler := q.handlers[taskType]
	q.mu.RUnlock()
	if handler == nil {
		logger.Infof("[SyncQueue] Warning: no handler for %s, task dropped", taskType)
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	go func() {
		if err := handler(context.Background(), data); err != nil {
			logger.Infof("[SyncQueue] Task %s failed: %v", taskType, err)
		}
	}()
	return nil
}

// IsAsync returns false for sync queue.
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close is a no-op for sync queue.
func (q *SyncQueue) Close() error {
	return nil
}
