package notification

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
)

func group(userID string, tasks ...domain.DueTask) Group {
	return Group{
		Recipient: domain.Recipient{UserID: userID, Username: userID, Email: userID + "@example.edu", NotificationsEnabled: true},
		Tasks:     tasks,
	}
}

func TestDispatcher_OneMessagePerUser(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, nil, nil, DispatcherConfig{Workers: 2})

	groups := []Group{
		group("u1",
			dueTask("a", "Essay", "History", domain.PriorityHigh, domain.TaskAssignment, ""),
			dueTask("b", "Lab Report", "Chemistry", domain.PriorityLow, domain.TaskAssignment, "")),
		group("u2", dueTask("c", "Quiz 3", "Physics", domain.PriorityMedium, domain.TaskQuiz, "")),
	}

	outcomes := d.Dispatch(context.Background(), refDate.AddDays(1), groups)

	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.OutcomeSent, outcomes[0].Result)
	assert.Equal(t, []string{"a", "b"}, outcomes[0].TaskIDs)
	assert.Equal(t, domain.OutcomeSent, outcomes[1].Result)
	assert.Len(t, sender.messagesTo("u1@example.edu"), 1)
	assert.Len(t, sender.messagesTo("u2@example.edu"), 1)
	assert.Equal(t, 2, sender.callCount())
}

func TestDispatcher_FailureDoesNotStopBatch(t *testing.T) {
	sender := &recordingSender{failFor: map[string]error{"u1@example.edu": errMailbox}}
	d := NewDispatcher(sender, nil, nil, DispatcherConfig{Workers: 1})

	groups := []Group{
		group("u1", dueTask("a", "Essay", "History", domain.PriorityHigh, domain.TaskAssignment, "")),
		group("u2", dueTask("b", "Quiz", "Physics", domain.PriorityHigh, domain.TaskQuiz, "")),
		group("u3", dueTask("c", "Exam", "Biology", domain.PriorityHigh, domain.TaskExam, "")),
	}

	outcomes := d.Dispatch(context.Background(), refDate.AddDays(1), groups)

	assert.Equal(t, domain.OutcomeFailed, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Reason, "550 mailbox unavailable")
	assert.Empty(t, outcomes[0].TaskIDs)
	assert.Equal(t, domain.OutcomeSent, outcomes[1].Result)
	assert.Equal(t, domain.OutcomeSent, outcomes[2].Result)
	assert.Equal(t, 3, sender.callCount())
}

func TestDispatcher_TimeoutIsRecordedAsFailure(t *testing.T) {
	sender := &recordingSender{failFor: map[string]error{
		"u1@example.edu": fmt.Errorf("smtp dial: %w", context.DeadlineExceeded),
	}}
	d := NewDispatcher(sender, nil, nil, DispatcherConfig{})

	outcomes := d.Dispatch(context.Background(), refDate.AddDays(1), []Group{
		group("u1", dueTask("a", "Essay", "History", domain.PriorityHigh, domain.TaskAssignment, "")),
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeFailed, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Reason, "transport timeout")
}

func TestDispatcher_EmptyGroupIsSkipped(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, nil, nil, DispatcherConfig{})

	outcomes := d.Dispatch(context.Background(), refDate.AddDays(1), []Group{group("u1")})

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeSkippedNoTasks, outcomes[0].Result)
	assert.Zero(t, sender.callCount())
}

type panickingSender struct{}

func (panickingSender) Send(ctx context.Context, msg Message) error {
	panic("driver bug")
}

func TestDispatcher_PanicIsRecorded(t *testing.T) {
	d := NewDispatcher(panickingSender{}, nil, nil, DispatcherConfig{})

	outcomes := d.Dispatch(context.Background(), refDate.AddDays(1), []Group{
		group("u1", dueTask("a", "Essay", "History", domain.PriorityHigh, domain.TaskAssignment, "")),
	})

	assert.Equal(t, domain.OutcomeFailed, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Reason, "driver bug")
}

// gatedSender blocks every send until release is closed.
type gatedSender struct {
	started  chan struct{}
	release  chan struct{}
	inflight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (s *gatedSender) Send(ctx context.Context, msg Message) error {
	s.calls.Add(1)
	n := s.inflight.Add(1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	s.started <- struct{}{}
	<-s.release
	s.inflight.Add(-1)
	if ctx.Err() != nil {
		return errors.New("in-flight send observed cancellation")
	}
	return nil
}

func TestDispatcher_CancellationStopsNewSends(t *testing.T) {
	sender := &gatedSender{started: make(chan struct{}, 10), release: make(chan struct{})}
	d := NewDispatcher(sender, nil, nil, DispatcherConfig{Workers: 1})

	groups := []Group{
		group("u1", dueTask("a", "Essay", "History", domain.PriorityHigh, domain.TaskAssignment, "")),
		group("u2", dueTask("b", "Quiz", "Physics", domain.PriorityHigh, domain.TaskQuiz, "")),
		group("u3", dueTask("c", "Exam", "Biology", domain.PriorityHigh, domain.TaskExam, "")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []domain.NotificationOutcome)
	go func() { done <- d.Dispatch(ctx, refDate.AddDays(1), groups) }()

	<-sender.started
	cancel()
	// give the dispatch loop a chance to observe cancellation while u1 is in flight
	time.Sleep(20 * time.Millisecond)
	close(sender.release)

	outcomes := <-done
	require.Len(t, outcomes, 3)
	assert.Equal(t, domain.OutcomeSent, outcomes[0].Result, "in-flight send must resolve")
	assert.Equal(t, domain.OutcomeSkippedCancelled, outcomes[1].Result)
	assert.Equal(t, domain.OutcomeSkippedCancelled, outcomes[2].Result)
	assert.Equal(t, int32(1), sender.calls.Load())
}

func TestDispatcher_BoundedParallelism(t *testing.T) {
	sender := &gatedSender{started: make(chan struct{}, 10), release: make(chan struct{})}
	d := NewDispatcher(sender, nil, nil, DispatcherConfig{Workers: 2})

	var groups []Group
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("u%d", i)
		groups = append(groups, group(id, dueTask("t-"+id, "Essay", "History", domain.PriorityHigh, domain.TaskAssignment, "")))
	}

	done := make(chan []domain.NotificationOutcome)
	go func() { done <- d.Dispatch(context.Background(), refDate.AddDays(1), groups) }()

	<-sender.started
	<-sender.started
	close(sender.release)

	outcomes := <-done
	for _, o := range outcomes {
		assert.Equal(t, domain.OutcomeSent, o.Result)
	}
	assert.LessOrEqual(t, sender.maxSeen.Load(), int32(2))
	assert.Equal(t, int32(6), sender.calls.Load())
}
