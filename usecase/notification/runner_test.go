package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository/memory"
)

func newRunner(f *fixture, sender Sender) *Runner {
	return NewRunner(
		FixedClock(refDate),
		f.selector(),
		NewDispatcher(sender, nil, nil, DispatcherConfig{Workers: 3}),
		memory.NewRunSummaryRepository(f.db),
		nil,
	)
}

func TestRunner_ScenarioSingleUser(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", true)
	f.course(t, "c", "u", "Data Structures")
	f.task(t, "A", "c", domain.NewDate(2024, 1, 2), domain.StatusPending, domain.PriorityHigh)
	f.task(t, "B", "c", domain.NewDate(2024, 1, 2), domain.StatusPending, domain.PriorityLow)
	f.task(t, "C", "c", domain.NewDate(2024, 1, 3), domain.StatusPending, domain.PriorityHigh)

	sender := &recordingSender{}
	runner := newRunner(f, sender)
	assert.Equal(t, domain.RunIdle, runner.State())

	summary, err := runner.RunNotifications(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, summary.State)
	assert.Equal(t, domain.RunCompleted, runner.State())
	assert.Equal(t, "2024-01-01", summary.ReferenceDate.String())
	assert.Equal(t, "2024-01-02", summary.TargetDate.String())
	assert.Equal(t, 1, summary.UsersEvaluated)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, []string{"A", "B"}, summary.Outcomes[0].TaskIDs)
	require.Len(t, sender.messagesTo("u@example.edu"), 1)
	assert.Equal(t, "Task Reminder: 2 tasks due tomorrow!", sender.messagesTo("u@example.edu")[0].Subject)
}

func TestRunner_PartialTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", true)
	f.user(t, "u2", true)
	f.course(t, "c1", "u1", "History")
	f.course(t, "c2", "u2", "Physics")
	f.task(t, "t1", "c1", refDate.AddDays(1), domain.StatusPending, domain.PriorityHigh)
	f.task(t, "t2", "c2", refDate.AddDays(1), domain.StatusInProgress, domain.PriorityMedium)

	sender := &recordingSender{failFor: map[string]error{"u2@example.edu": errMailbox}}

	summary, err := newRunner(f, sender).RunNotifications(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, summary.State)
	assert.Equal(t, 2, summary.UsersEvaluated)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, domain.OutcomeSent, summary.Outcomes[0].Result)
	assert.Equal(t, domain.OutcomeFailed, summary.Outcomes[1].Result)
	assert.Empty(t, summary.Failure)
}

func TestRunner_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", true)
	f.course(t, "c", "u", "History")
	f.task(t, "t", "c", refDate.AddDays(1), domain.StatusPending, domain.PriorityHigh)
	f.db.FailWith(errors.New("connection refused"))

	sender := &recordingSender{}
	summary, err := newRunner(f, sender).RunNotifications(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStoreUnavailable))
	assert.Equal(t, domain.RunCompleted, summary.State)
	assert.Zero(t, summary.UsersEvaluated)
	assert.Zero(t, summary.Failed)
	assert.NotEmpty(t, summary.Failure)
	assert.Zero(t, sender.callCount())
}

func TestRunner_NoEligibleUsersStillReportsCounts(t *testing.T) {
	f := newFixture(t)
	f.user(t, "quiet", false)
	f.user(t, "free", true)

	summary, err := newRunner(f, &recordingSender{}).RunNotifications(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.UsersEvaluated)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, domain.OutcomeSkippedNoTasks, summary.Outcomes[0].Result)
	assert.Equal(t, domain.OutcomeSkippedNoTasks, summary.Outcomes[1].Result)
}

func TestRunner_ExplicitReferenceDateAndRepeatRun(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", true)
	f.course(t, "c", "u", "History")
	f.task(t, "t", "c", domain.NewDate(2024, 3, 16), domain.StatusPending, domain.PriorityHigh)

	sender := &recordingSender{}
	runner := newRunner(f, sender)
	ref := domain.NewDate(2024, 3, 15)

	first, err := runner.RunNotifications(context.Background(), &ref)
	require.NoError(t, err)
	second, err := runner.RunNotifications(context.Background(), &ref)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Sent)
	assert.Equal(t, 1, second.Sent)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, sender.messagesTo("u@example.edu"), 2, "there is no sent ledger, re-runs send again")

	latest, err := memory.NewRunSummaryRepository(f.db).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.RunID)
}

func TestRunner_DeletedCourseBetweenRuns(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", true)
	f.course(t, "c", "u", "History")
	f.task(t, "t", "c", refDate.AddDays(1), domain.StatusPending, domain.PriorityHigh)

	require.NoError(t, f.courses.Delete(context.Background(), "c"))

	summary, err := newRunner(f, &recordingSender{}).RunNotifications(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, domain.OutcomeSkippedNoTasks, summary.Outcomes[0].Result)
}
