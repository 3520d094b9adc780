package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type taskRepository struct {
	db *DB
}

func NewTaskRepository(db *DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*repository.TaskRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	t, ok := r.db.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	rec := r.record(*t)
	return &rec, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]repository.TaskRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}

	var out []repository.TaskRecord
	for _, t := range r.db.tasks {
		rec := r.record(*t)
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if filter.CourseID != "" && rec.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	if _, ok := r.db.courses[task.CourseID]; !ok {
		return nil, domain.ErrCourseNotFound
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	r.db.touch(&task.CreatedAt, &task.UpdatedAt)
	stored := *task
	r.db.tasks[task.ID] = &stored
	return task, nil
}

func (r *taskRepository) UpdateState(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	stored, ok := r.db.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	stored.Status = task.Status
	stored.Priority = task.Priority
	r.db.touch(&stored.CreatedAt, &stored.UpdatedAt)
	task.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	if _, ok := r.db.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.db.tasks, id)
	return nil
}

func (r *taskRepository) record(t domain.Task) repository.TaskRecord {
	rec := repository.TaskRecord{Task: t}
	if c, ok := r.db.courses[t.CourseID]; ok {
		rec.CourseName = c.Name
		rec.UserID = c.UserID
	}
	return rec
}
