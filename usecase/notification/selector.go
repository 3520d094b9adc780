package notification

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

// Group is one eligible user with the tasks their digest will cover, in digest order.
type Group struct {
	Recipient domain.Recipient
	Tasks     []domain.DueTask
}

func (g Group) TaskIDs() []string {
	ids := make([]string, 0, len(g.Tasks))
	for _, t := range g.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// Selection is the result of evaluating every known user against a target date.
type Selection struct {
	Reference domain.Date
	Target    domain.Date
	// Groups holds users with at least one eligible task, ordered by user ID.
	Groups []Group
	// Skipped holds the remaining roster users with the reason they get no digest.
	Skipped []domain.NotificationOutcome
	// Dropped counts task rows whose course or owner disappeared during the read.
	Dropped int
}

// UsersEvaluated is the size of the roster the selection was computed from.
func (s Selection) UsersEvaluated() int {
	return len(s.Groups) + len(s.Skipped)
}

// ByUser returns the eligibility mapping keyed by user ID.
func (s Selection) ByUser() map[string][]domain.DueTask {
	out := make(map[string][]domain.DueTask, len(s.Groups))
	for _, g := range s.Groups {
		out[g.Recipient.UserID] = g.Tasks
	}
	return out
}

// Selector decides which users receive a digest for a reference date.
type Selector struct {
	source repository.NotificationSource
	logger *zap.Logger
}

func NewSelector(source repository.NotificationSource, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{source: source, logger: logger}
}

// Select reads a snapshot for reference+1 and groups eligible tasks per user.
// A task is eligible when it is due on the target date, not completed, and its owner
// has notifications enabled. Any read failure yields StoreUnavailable and no selection.
func (s *Selector) Select(ctx context.Context, reference domain.Date) (Selection, error) {
	target := reference.AddDays(1)

	snapshot, err := s.source.Snapshot(ctx, target)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeStoreUnavailable) {
			return Selection{}, err
		}
		return Selection{}, domain.StoreUnavailable(err)
	}
	if snapshot == nil {
		return Selection{}, domain.StoreUnavailable(nil)
	}

	recipients := make(map[string]domain.Recipient, len(snapshot.Recipients))
	for _, r := range snapshot.Recipients {
		recipients[r.UserID] = r
	}

	sel := Selection{Reference: reference, Target: target}
	due := make(map[string][]domain.DueTask)
	for _, row := range snapshot.Tasks {
		if !row.DueDate.Equal(target) || row.IsCompleted() {
			continue
		}
		if _, ok := recipients[row.UserID]; !ok || row.CourseName == "" {
			sel.Dropped++
			s.logger.Warn("skipping orphaned task",
				zap.String("task_id", row.ID),
				zap.String("course_id", row.CourseID),
				zap.String("user_id", row.UserID))
			continue
		}
		due[row.UserID] = append(due[row.UserID], row)
	}

	ids := make([]string, 0, len(recipients))
	for id := range recipients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r := recipients[id]
		tasks := due[id]
		switch {
		case len(tasks) == 0:
			sel.Skipped = append(sel.Skipped, domain.NotificationOutcome{
				UserID: id,
				Email:  r.Email,
				Result: domain.OutcomeSkippedNoTasks,
			})
		case !r.NotificationsEnabled:
			sel.Skipped = append(sel.Skipped, domain.NotificationOutcome{
				UserID: id,
				Email:  r.Email,
				Result: domain.OutcomeSkippedDisabled,
			})
		default:
			sortForDigest(tasks)
			sel.Groups = append(sel.Groups, Group{Recipient: r, Tasks: tasks})
		}
	}

	return sel, nil
}

// sortForDigest orders by priority (high first), then task ID for determinism.
func sortForDigest(tasks []domain.DueTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return tasks[i].ID < tasks[j].ID
	})
}
