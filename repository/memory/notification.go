package memory

import (
	"context"
	"sort"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type notificationSource struct {
	db *DB
}

func NewNotificationSource(db *DB) repository.NotificationSource {
	return &notificationSource{db: db}
}

func (s *notificationSource) Snapshot(ctx context.Context, target domain.Date) (*domain.NotificationSnapshot, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if s.db.failure != nil {
		return nil, s.db.failure
	}

	snap := &domain.NotificationSnapshot{Target: target}
	for _, u := range s.db.users {
		snap.Recipients = append(snap.Recipients, domain.Recipient{
			UserID:               u.ID,
			Username:             u.Username,
			Email:                u.Email,
			NotificationsEnabled: u.NotificationsEnabled,
		})
	}
	for _, t := range s.db.tasks {
		if !t.DueDate.Equal(target) || t.IsCompleted() {
			continue
		}
		row := domain.DueTask{Task: *t}
		if c, ok := s.db.courses[t.CourseID]; ok {
			row.CourseName = c.Name
			row.UserID = c.UserID
		}
		snap.Tasks = append(snap.Tasks, row)
	}

	sort.Slice(snap.Recipients, func(i, j int) bool { return snap.Recipients[i].UserID < snap.Recipients[j].UserID })
	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].ID < snap.Tasks[j].ID })
	return snap, nil
}

type runSummaryRepository struct {
	db *DB
}

func NewRunSummaryRepository(db *DB) repository.RunSummaryRepository {
	return &runSummaryRepository{db: db}
}

func (r *runSummaryRepository) Save(ctx context.Context, summary *domain.RunSummary) error {
	if summary == nil {
		return domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	r.db.runs = append(r.db.runs, *summary)
	return nil
}

func (r *runSummaryRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	if len(r.db.runs) == 0 {
		return nil, domain.ErrRunNotFound
	}
	out := r.db.runs[len(r.db.runs)-1]
	return &out, nil
}

func (r *runSummaryRepository) GetByDate(ctx context.Context, reference domain.Date) (*domain.RunSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	for i := len(r.db.runs) - 1; i >= 0; i-- {
		if r.db.runs[i].ReferenceDate.Equal(reference) {
			out := r.db.runs[i]
			return &out, nil
		}
	}
	return nil, domain.ErrRunNotFound
}
