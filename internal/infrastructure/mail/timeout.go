package mail

import (
	"context"
	"errors"
	"time"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/usecase/notification"
)

type timeoutSender struct {
	next    notification.Sender
	timeout time.Duration
}

// WithTimeout bounds every send to d. A send that runs out of time fails with a
// TransportTimeout error; the caller's own cancellation is passed through unchanged.
func WithTimeout(next notification.Sender, d time.Duration) notification.Sender {
	if d <= 0 {
		return next
	}
	return &timeoutSender{next: next, timeout: d}
}

func (s *timeoutSender) Send(ctx context.Context, msg notification.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.next.Send(sendCtx, msg) }()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil && errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return domain.TransportTimeout(err)
		}
		return err
	case <-sendCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.TransportTimeout(sendCtx.Err())
	}
}
