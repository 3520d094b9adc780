package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

// Runner orchestrates notification runs: clock, selection, dispatch, summary.
type Runner struct {
	clock      Clock
	selector   *Selector
	dispatcher *Dispatcher
	history    repository.RunSummaryRepository
	logger     *zap.Logger

	slot  chan struct{}
	mu    sync.RWMutex
	state domain.RunState
}

// NewRunner wires a runner. history is optional; when set every summary is saved to it.
func NewRunner(clock Clock, selector *Selector, dispatcher *Dispatcher, history repository.RunSummaryRepository, logger *zap.Logger) *Runner {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		clock:      clock,
		selector:   selector,
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
		slot:       make(chan struct{}, 1),
		state:      domain.RunIdle,
	}
}

// State reports the state of the most recent run.
func (r *Runner) State() domain.RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// RunNotifications executes one run for reference (today per the clock when nil).
// Runs on the same Runner are serialized. The summary always reaches the completed
// state; the only error returned is StoreUnavailable (or ctx's error while waiting
// for a previous run), in which case nothing was sent.
func (r *Runner) RunNotifications(ctx context.Context, reference *domain.Date) (domain.RunSummary, error) {
	select {
	case r.slot <- struct{}{}:
	case <-ctx.Done():
		return domain.RunSummary{State: domain.RunIdle, Outcomes: []domain.NotificationOutcome{}}, ctx.Err()
	}
	defer func() { <-r.slot }()

	ref := r.clock.Today()
	if reference != nil && !reference.IsZero() {
		ref = *reference
	}

	summary := domain.RunSummary{
		RunID:         uuid.NewString(),
		ReferenceDate: ref,
		TargetDate:    ref.AddDays(1),
		StartedAt:     time.Now(),
		Outcomes:      []domain.NotificationOutcome{},
	}
	log := r.logger.With(zap.String("run_id", summary.RunID), zap.String("reference_date", ref.String()))

	r.setState(domain.RunRunning)
	summary.State = domain.RunRunning
	log.Info("notification run started")

	selection, err := r.selector.Select(ctx, ref)
	if err != nil {
		summary.Failure = err.Error()
		r.complete(ctx, &summary)
		log.Error("notification run aborted", zap.Error(err))
		return summary, err
	}

	dispatched := r.dispatcher.Dispatch(ctx, selection.Target, selection.Groups)

	summary.UsersEvaluated = selection.UsersEvaluated()
	summary.Outcomes = append(summary.Outcomes, selection.Skipped...)
	summary.Outcomes = append(summary.Outcomes, dispatched...)
	sort.SliceStable(summary.Outcomes, func(i, j int) bool {
		return summary.Outcomes[i].UserID < summary.Outcomes[j].UserID
	})
	summary.Tally()
	r.complete(ctx, &summary)

	log.Info("notification run completed",
		zap.Int("users_evaluated", summary.UsersEvaluated),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("dropped_tasks", selection.Dropped))
	return summary, nil
}

func (r *Runner) complete(ctx context.Context, summary *domain.RunSummary) {
	summary.State = domain.RunCompleted
	summary.FinishedAt = time.Now()
	r.setState(domain.RunCompleted)

	if r.history == nil {
		return
	}
	if err := r.history.Save(context.WithoutCancel(ctx), summary); err != nil {
		r.logger.Warn("failed to record run summary", zap.String("run_id", summary.RunID), zap.Error(err))
	}
}

func (r *Runner) setState(state domain.RunState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}
