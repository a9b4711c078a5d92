package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/hibiken/asynq"
)

// Worker consumes queued notification tasks when Redis is enabled.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier *NotificationService
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewWorker creates a worker, or nil when Redis is disabled and there is
// nothing to consume.
func NewWorker(cfg *config.RedisConfig, notifier *NotificationService) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Infof("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		notifier: notifier,
	}
}

// Start begins processing tasks.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskRunClosed, w.handleRunClosed)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Infof("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handleRunClosed(ctx context.Context, t *asynq.Task) error {
	var payload RunClosedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Infof("[Worker] Failed to unmarshal task: %v", err)
		return err
	}

	logger.Infof("[Worker] Dispatching run-closed notifications: run_id=%d", payload.RunID)
	return w.notifier.DispatchRunClosed(ctx, payload.RunID)
}

// RegisterSyncHandlers wires the in-process fallback queue to the notifier
// so run-closed events are delivered even without Redis.
func RegisterSyncHandlers(queue TaskQueue, notifier *NotificationService) {
	sq, ok := queue.(*SyncQueue)
	if !ok {
		return
	}
	sq.SetHandler(TaskRunClosed, func(ctx context.Context, data []byte) error {
		var payload RunClosedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return notifier.DispatchRunClosed(ctx, payload.RunID)
	})
}
