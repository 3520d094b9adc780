package repository

import (
	"context"

	"github.com/fastygo/studytracker/domain"
)

type TaskFilter struct {
	UserID   string
	CourseID string
	Status   domain.TaskStatus
	Limit    int
	Offset   int
}

// TaskRecord is a stored task with the name of its course.
type TaskRecord struct {
	domain.Task
	CourseName string
	UserID     string
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*TaskRecord, error)
	// List returns tasks ordered by due date, then ID.
	List(ctx context.Context, filter TaskFilter) ([]TaskRecord, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// UpdateState persists status and priority; other fields are immutable after creation.
	UpdateState(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
