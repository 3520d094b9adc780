package repository

import (
	"context"

	"github.com/fastygo/studytracker/domain"
)

type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Course, error)
	Create(ctx context.Context, course *domain.Course) (*domain.Course, error)
	// Delete removes the course and its tasks in one transaction.
	Delete(ctx context.Context, id string) error
}
