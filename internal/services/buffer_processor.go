package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/internal/infrastructure/buffer"
	"github.com/fastygo/studytracker/repository"
	"github.com/fastygo/studytracker/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention drops items that could not be replayed for this long; zero keeps them.
	Retention time.Duration
}

// BufferProcessor replays buffered course, task and profile writes once PostgreSQL is back.
type BufferProcessor struct {
	store      *buffer.Store
	monitor    ConnectionHealth
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	taskRepo   repository.TaskRepository
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        ProcessorConfig
	draining   sync.Mutex
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	taskRepo repository.TaskRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:      store,
		monitor:    monitor,
		userRepo:   userRepo,
		courseRepo: courseRepo,
		taskRepo:   taskRepo,
		logger:     logger.Named("buffer"),
		cfg:        cfg,
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = bp.cron.AddFunc(schedule, bp.drainInBackground)

	if cfg.Retention > 0 {
		_, _ = bp.cron.AddFunc("@hourly", func() {
			removed, err := bp.store.Cleanup(time.Now().Add(-cfg.Retention))
			if err != nil {
				bp.logger.Error("buffer cleanup failed", zap.Error(err))
				return
			}
			if removed > 0 {
				bp.logger.Warn("expired buffered writes dropped", zap.Int("count", removed))
			}
		})
	}

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// drainInBackground is used by the cron job and the monitor's recovery hook.
func (bp *BufferProcessor) drainInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), bp.cfg.Interval)
	defer cancel()
	if err := bp.Drain(ctx); err != nil {
		bp.logger.Error("buffer drain failed", zap.Error(err))
	}
}

// TriggerDrain starts a drain without waiting for the next tick.
func (bp *BufferProcessor) TriggerDrain() {
	if bp == nil {
		return
	}
	go bp.drainInBackground()
}

// Drain replays one batch synchronously. Concurrent calls return immediately.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if !bp.draining.TryLock() {
		return nil
	}
	defer bp.draining.Unlock()

	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := bp.processItem(ctx, item)
		switch {
		case err == nil:
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
			}
		case !usecase.Bufferable(err):
			bp.logger.Warn("dropping buffer item rejected by storage",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.String("operation", item.Operation),
				zap.Error(err))
			_ = bp.store.Remove(item)
		default:
			item.Retries++
			bp.logger.Error("failed to process buffer item",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.Int("retries", item.Retries),
				zap.Error(err))
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffer item (max retries reached)", zap.String("item_id", item.ID))
				_ = bp.store.Remove(item)
				continue
			}
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.Error(err))
			}
		}
	}
	return nil
}

// BufferOperation attempts to run the operation immediately and falls back to persisting it.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.processItem(ctx, item)
		if err == nil {
			return nil
		}
		if !usecase.Bufferable(err) {
			return err
		}
		bp.logger.Warn("immediate processing failed, buffering", zap.Error(err))
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	switch item.Entity {
	case buffer.EntityProfile:
		var user domain.User
		if err := item.Decode(&user); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt buffered profile", err)
		}
		switch item.Operation {
		case buffer.OperationCreate, buffer.OperationUpdate:
			return bp.userRepo.Upsert(ctx, &user)
		case buffer.OperationDelete:
			return ignoreNotFound(bp.userRepo.Delete(ctx, user.ID))
		}

	case buffer.EntityCourse:
		var course domain.Course
		if err := item.Decode(&course); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt buffered course", err)
		}
		switch item.Operation {
		case buffer.OperationCreate:
			_, err := bp.courseRepo.Create(ctx, &course)
			return err
		case buffer.OperationDelete:
			return ignoreNotFound(bp.courseRepo.Delete(ctx, course.ID))
		}

	case buffer.EntityTask:
		var task domain.Task
		if err := item.Decode(&task); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt buffered task", err)
		}
		switch item.Operation {
		case buffer.OperationCreate:
			_, err := bp.taskRepo.Create(ctx, &task)
			return err
		case buffer.OperationUpdate:
			return bp.taskRepo.UpdateState(ctx, &task)
		case buffer.OperationDelete:
			return ignoreNotFound(bp.taskRepo.Delete(ctx, task.ID))
		}

	default:
		return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unsupported entity %s", item.Entity))
	}
	return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unsupported operation %s on %s", item.Operation, item.Entity))
}

// Deletes replayed after the row is already gone count as applied.
func ignoreNotFound(err error) error {
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil
	}
	return err
}
