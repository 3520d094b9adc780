package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
	"github.com/fastygo/studytracker/repository/memory"
)

var refDate = domain.NewDate(2024, time.January, 1)

type fixture struct {
	db      *memory.DB
	users   repository.UserRepository
	courses repository.CourseRepository
	tasks   repository.TaskRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.Open()
	return &fixture{
		db:      db,
		users:   memory.NewUserRepository(db),
		courses: memory.NewCourseRepository(db),
		tasks:   memory.NewTaskRepository(db),
	}
}

func (f *fixture) user(t *testing.T, id string, enabled bool) domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{
		ID:                   id,
		Username:             id,
		Email:                id + "@example.edu",
		NotificationsEnabled: enabled,
	})
	require.NoError(t, err)
	return *u
}

func (f *fixture) course(t *testing.T, id, userID, name string) domain.Course {
	t.Helper()
	c, err := f.courses.Create(context.Background(), &domain.Course{ID: id, UserID: userID, Name: name})
	require.NoError(t, err)
	return *c
}

func (f *fixture) task(t *testing.T, id, courseID string, due domain.Date, status domain.TaskStatus, priority domain.Priority) domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), &domain.Task{
		ID:       id,
		CourseID: courseID,
		Title:    "Task " + id,
		DueDate:  due,
		Type:     domain.TaskAssignment,
		Status:   status,
		Priority: priority,
	})
	require.NoError(t, err)
	return *task
}

func (f *fixture) selector() *Selector {
	return NewSelector(memory.NewNotificationSource(f.db), nil)
}

// recordingSender captures messages and fails for configured recipients.
type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[string]error
	delay   time.Duration
	calls   int
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.failFor[msg.ToAddress]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messagesTo(address string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.sent {
		if m.ToAddress == address {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var errMailbox = errors.New("550 mailbox unavailable")
