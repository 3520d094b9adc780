package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fastygo/studytracker/domain"
)

// Sender delivers one rendered message. Implementations report failures as errors and
// are expected to bound each call with their own timeout.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DispatcherConfig controls dispatch parallelism.
type DispatcherConfig struct {
	Workers int
}

// Dispatcher sends one digest per eligible user and records every outcome.
type Dispatcher struct {
	sender   Sender
	renderer *Renderer
	logger   *zap.Logger
	cfg      DispatcherConfig
}

func NewDispatcher(sender Sender, renderer *Renderer, logger *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = MustRenderer(RendererConfig{})
	}
	return &Dispatcher{
		sender:   sender,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Dispatch delivers groups with bounded parallelism and returns outcomes in group order.
// Once ctx is cancelled no new sends start; the remaining users are recorded as
// skipped-cancelled while sends already in flight finish and record their result.
func (d *Dispatcher) Dispatch(ctx context.Context, due domain.Date, groups []Group) []domain.NotificationOutcome {
	outcomes := make([]domain.NotificationOutcome, len(groups))
	if len(groups) == 0 {
		return outcomes
	}

	sem := semaphore.NewWeighted(int64(d.cfg.Workers))
	inflight := context.WithoutCancel(ctx)
	var g errgroup.Group

	for i := range groups {
		if err := ctx.Err(); err != nil {
			d.cancelRemaining(outcomes, groups, i, err)
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			d.cancelRemaining(outcomes, groups, i, err)
			break
		}

		g.Go(func() error {
			defer sem.Release(1)
			outcomes[i] = d.deliver(inflight, due, groups[i])
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) deliver(ctx context.Context, due domain.Date, group Group) (outcome domain.NotificationOutcome) {
	outcome = domain.NotificationOutcome{
		UserID: group.Recipient.UserID,
		Email:  group.Recipient.Email,
	}
	log := d.logger.With(zap.String("user_id", group.Recipient.UserID))

	defer func() {
		if r := recover(); r != nil {
			outcome.Result = domain.OutcomeFailed
			outcome.TaskIDs = nil
			outcome.Reason = fmt.Sprintf("transport panic: %v", r)
			log.Error("notification send panicked", zap.Any("panic", r))
		}
	}()

	if len(group.Tasks) == 0 {
		outcome.Result = domain.OutcomeSkippedNoTasks
		return outcome
	}

	digest, err := Compose(group.Recipient, due, group.Tasks)
	if err != nil {
		log.DPanic("digest composition failed", zap.Error(err))
		outcome.Result = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	msg, err := d.renderer.Render(digest)
	if err != nil {
		log.Error("digest rendering failed", zap.Error(err))
		outcome.Result = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		err = classifySendError(err)
		log.Warn("notification send failed", zap.String("email", msg.ToAddress), zap.Error(err))
		outcome.Result = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Result = domain.OutcomeSent
	outcome.TaskIDs = digest.TaskIDs()
	log.Info("notification sent", zap.String("email", msg.ToAddress), zap.Int("tasks", len(outcome.TaskIDs)))
	return outcome
}

func (d *Dispatcher) cancelRemaining(outcomes []domain.NotificationOutcome, groups []Group, from int, cause error) {
	d.logger.Warn("notification dispatch cancelled", zap.Int("remaining", len(groups)-from), zap.Error(cause))
	for j := from; j < len(groups); j++ {
		outcomes[j] = domain.NotificationOutcome{
			UserID: groups[j].Recipient.UserID,
			Email:  groups[j].Recipient.Email,
			Result: domain.OutcomeSkippedCancelled,
			Reason: cause.Error(),
		}
	}
}

func classifySendError(err error) error {
	switch {
	case domain.IsTransportFailure(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return domain.TransportTimeout(err)
	default:
		return domain.TransportFailure(err)
	}
}
