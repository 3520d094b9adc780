package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type repos struct {
	db       *DB
	users    repository.UserRepository
	courses  repository.CourseRepository
	tasks    repository.TaskRepository
	sessions repository.SessionRepository
}

func setup(t *testing.T) repos {
	t.Helper()
	db := Open()
	r := repos{
		db:       db,
		users:    NewUserRepository(db),
		courses:  NewCourseRepository(db),
		tasks:    NewTaskRepository(db),
		sessions: NewSessionRepository(db, time.Hour),
	}
	ctx := context.Background()
	_, err := r.users.Create(ctx, &domain.User{ID: "u1", Username: "ada", Email: "ada@example.edu", NotificationsEnabled: true})
	require.NoError(t, err)
	_, err = r.users.Create(ctx, &domain.User{ID: "u2", Username: "bob", Email: "bob@example.edu"})
	require.NoError(t, err)
	_, err = r.courses.Create(ctx, &domain.Course{ID: "c1", UserID: "u1", Name: "Physics"})
	require.NoError(t, err)
	_, err = r.courses.Create(ctx, &domain.Course{ID: "c2", UserID: "u1", Name: "Algebra"})
	require.NoError(t, err)
	_, err = r.courses.Create(ctx, &domain.Course{ID: "c3", UserID: "u2", Name: "History"})
	require.NoError(t, err)
	return r
}

func (r repos) addTask(t *testing.T, id, courseID string, due domain.Date, status domain.TaskStatus) {
	t.Helper()
	_, err := r.tasks.Create(context.Background(), &domain.Task{
		ID: id, CourseID: courseID, Title: id, DueDate: due,
		Type: domain.TaskQuiz, Status: status, Priority: domain.PriorityMedium,
	})
	require.NoError(t, err)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	_, err := r.users.Create(ctx, &domain.User{Username: "ada", Email: "other@example.edu"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	_, err = r.users.Create(ctx, &domain.User{Username: "eve", Email: "bob@example.edu"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	created, err := r.users.Create(ctx, &domain.User{Username: "eve", Email: "eve@example.edu"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	err = r.users.Upsert(ctx, &domain.User{ID: created.ID, Username: "eve", Email: "ada@example.edu"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	r.addTask(t, "t1", "c1", domain.NewDate(2024, 1, 2), domain.StatusPending)
	r.addTask(t, "t2", "c3", domain.NewDate(2024, 1, 2), domain.StatusPending)
	require.NoError(t, r.sessions.Save(ctx, &domain.Session{ID: "s1", UserID: "u1", Username: "ada"}))

	require.NoError(t, r.users.Delete(ctx, "u1"))

	_, err := r.users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = r.courses.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
	_, err = r.tasks.GetByID(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = r.sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	rest, err := r.tasks.List(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "t2", rest[0].ID)

	assert.ErrorIs(t, r.users.Delete(ctx, "u1"), domain.ErrUserNotFound)
}

func TestCourseRepository_ListAndDelete(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	r.addTask(t, "t1", "c1", domain.NewDate(2024, 1, 2), domain.StatusPending)
	r.addTask(t, "t2", "c1", domain.NewDate(2024, 1, 3), domain.StatusCompleted)

	courses, err := r.courses.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algebra", courses[0].Name)
	assert.Equal(t, "Physics", courses[1].Name)
	assert.Equal(t, 2, courses[1].TaskCount)

	_, err = r.courses.Create(ctx, &domain.Course{UserID: "ghost", Name: "Nope"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, r.courses.Delete(ctx, "c1"))
	remaining, err := r.tasks.List(ctx, repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.ErrorIs(t, r.courses.Delete(ctx, "c1"), domain.ErrCourseNotFound)
}

func TestTaskRepository_ListOrderingAndFilters(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	r.addTask(t, "b", "c1", domain.NewDate(2024, 1, 5), domain.StatusPending)
	r.addTask(t, "a", "c2", domain.NewDate(2024, 1, 5), domain.StatusInProgress)
	r.addTask(t, "c", "c1", domain.NewDate(2024, 1, 2), domain.StatusCompleted)
	r.addTask(t, "d", "c3", domain.NewDate(2024, 1, 1), domain.StatusPending)

	all, err := r.tasks.List(ctx, repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, rec := range all {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, "Algebra", all[1].CourseName)
	assert.Equal(t, "u1", all[1].UserID)

	pending, err := r.tasks.List(ctx, repository.TaskFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	page, err := r.tasks.List(ctx, repository.TaskFilter{UserID: "u1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)

	_, err = r.tasks.Create(ctx, &domain.Task{CourseID: "missing", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestTaskRepository_UpdateStateTouchesOnlyStateFields(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	r.addTask(t, "t1", "c1", domain.NewDate(2024, 1, 2), domain.StatusPending)

	err := r.tasks.UpdateState(ctx, &domain.Task{ID: "t1", Title: "changed", Status: domain.StatusCompleted, Priority: domain.PriorityHigh})
	require.NoError(t, err)

	got, err := r.tasks.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.Title)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.PriorityHigh, got.Priority)

	assert.ErrorIs(t, r.tasks.UpdateState(ctx, &domain.Task{ID: "nope"}), domain.ErrTaskNotFound)
}

func TestNotificationSource_Snapshot(t *testing.T) {
	r := setup(t)
	target := domain.NewDate(2024, 1, 2)
	r.addTask(t, "t2", "c1", target, domain.StatusPending)
	r.addTask(t, "t1", "c3", target, domain.StatusInProgress)
	r.addTask(t, "t3", "c1", target, domain.StatusCompleted)
	r.addTask(t, "t4", "c1", target.AddDays(1), domain.StatusPending)

	snap, err := NewNotificationSource(r.db).Snapshot(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, snap.Recipients, 2)
	assert.Equal(t, "u1", snap.Recipients[0].UserID)
	assert.True(t, snap.Recipients[0].NotificationsEnabled)
	assert.False(t, snap.Recipients[1].NotificationsEnabled)

	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, "t1", snap.Tasks[0].ID)
	assert.Equal(t, "u2", snap.Tasks[0].UserID)
	assert.Equal(t, "History", snap.Tasks[0].CourseName)
	assert.Equal(t, "t2", snap.Tasks[1].ID)
}

func TestFailWith(t *testing.T) {
	r := setup(t)
	boom := errors.New("disk on fire")
	r.db.FailWith(boom)

	_, err := NewNotificationSource(r.db).Snapshot(context.Background(), domain.NewDate(2024, 1, 2))
	assert.ErrorIs(t, err, boom)
	_, err = r.users.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	r.db.FailWith(nil)
	_, err = r.users.GetByID(context.Background(), "u1")
	assert.NoError(t, err)
}

func TestRunSummaryRepository(t *testing.T) {
	db := Open()
	runs := NewRunSummaryRepository(db)
	ctx := context.Background()

	_, err := runs.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	day := domain.NewDate(2024, 1, 1)
	require.NoError(t, runs.Save(ctx, &domain.RunSummary{RunID: "r1", ReferenceDate: day}))
	require.NoError(t, runs.Save(ctx, &domain.RunSummary{RunID: "r2", ReferenceDate: day.AddDays(1)}))

	latest, err := runs.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.RunID)

	byDate, err := runs.GetByDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "r1", byDate.RunID)
}

func TestSessionRepository_Expiry(t *testing.T) {
	db := Open()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }
	sessions := NewSessionRepository(db, time.Minute)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, &domain.Session{ID: "s", UserID: "u"}))
	_, err := sessions.Get(ctx, "s")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = sessions.Get(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, sessions.Extend(ctx, "s", 600))
	_, err = sessions.Get(ctx, "s")
	assert.NoError(t, err)
}

func TestSessionRepository_DeleteByUser(t *testing.T) {
	sessions := NewSessionRepository(Open(), time.Hour)
	ctx := context.Background()
	for _, s := range []domain.Session{{ID: "a", UserID: "u1"}, {ID: "b", UserID: "u1"}, {ID: "c", UserID: "u2"}} {
		s := s
		require.NoError(t, sessions.Save(ctx, &s))
	}

	require.NoError(t, sessions.DeleteByUser(ctx, "u1"))

	for _, id := range []string{"a", "b"} {
		_, err := sessions.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, id)
	}
	_, err := sessions.Get(ctx, "c")
	assert.NoError(t, err)
}
