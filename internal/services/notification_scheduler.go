package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
)

// NotificationRunner executes one notification run.
type NotificationRunner interface {
	RunNotifications(ctx context.Context, reference *domain.Date) (domain.RunSummary, error)
}

// SchedulerConfig controls when the daily notification run fires.
type SchedulerConfig struct {
	// Schedule is a six-field cron spec (seconds first).
	Schedule   string
	Location   *time.Location
	RunTimeout time.Duration
}

// NotificationScheduler fires a notification run on a cron schedule. A firing that
// finds the previous run still going is skipped.
type NotificationScheduler struct {
	runner NotificationRunner
	logger *zap.Logger
	cfg    SchedulerConfig
	cron   *cron.Cron
	entry  cron.EntryID

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewNotificationScheduler(runner NotificationRunner, logger *zap.Logger, cfg SchedulerConfig) (*NotificationScheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 0 8 * * *"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")

	s := &NotificationScheduler{
		runner: runner,
		logger: logger,
		cfg:    cfg,
		ctx:    context.Background(),
	}
	cl := cronLogger{logger.Sugar()}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	entry, err := s.cron.AddFunc(cfg.Schedule, s.fire)
	if err != nil {
		return nil, fmt.Errorf("invalid notification schedule %q: %w", cfg.Schedule, err)
	}
	s.entry = entry
	return s, nil
}

// Start begins firing. Runs started by the scheduler are cancelled when ctx ends.
func (s *NotificationScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("notification scheduler started",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("timezone", s.cfg.Location.String()),
		zap.Time("next_run", s.Next()))
}

// Stop halts the schedule and waits for an in-flight run or ctx, whichever ends first.
func (s *NotificationScheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()
	}
	s.logger.Info("notification scheduler stopped")
}

// Next reports when the run fires next.
func (s *NotificationScheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *NotificationScheduler) fire() {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.cfg.RunTimeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// RunOnce performs a run for today and logs its summary.
func (s *NotificationScheduler) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	summary, err := s.runner.RunNotifications(ctx, nil)
	if err != nil {
		s.logger.Error("scheduled notification run failed",
			zap.String("run_id", summary.RunID),
			zap.Error(err))
		return summary, err
	}
	s.logger.Info("scheduled notification run finished",
		zap.String("run_id", summary.RunID),
		zap.String("reference_date", summary.ReferenceDate.String()),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
