package course

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
	"github.com/fastygo/studytracker/usecase"
)

type UseCase struct {
	courses repository.CourseRepository
	buffer  usecase.OperationBuffer
	logger  *zap.Logger
}

func New(courses repository.CourseRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{courses: courses, buffer: buffer, logger: logger}
}

func (uc *UseCase) ListCourses(ctx context.Context, userID string) ([]domain.Course, error) {
	courses, err := uc.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return courses, nil
}

// GetCourse returns the course if userID owns it.
func (uc *UseCase) GetCourse(ctx context.Context, userID, courseID string) (*domain.Course, error) {
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return course, nil
}

func (uc *UseCase) CreateCourse(ctx context.Context, userID, name string) (*domain.Course, error) {
	course := &domain.Course{UserID: userID, Name: strings.TrimSpace(name)}
	if err := course.Validate(); err != nil {
		return nil, err
	}
	created, err := uc.courses.Create(ctx, course)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, course, err) {
			return course, nil
		}
		return nil, err
	}
	return created, nil
}

// DeleteCourse removes an owned course together with its tasks.
func (uc *UseCase) DeleteCourse(ctx context.Context, userID, courseID string) error {
	course, err := uc.GetCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if err := uc.courses.Delete(ctx, course.ID); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationDelete, course, err) {
			return nil
		}
		return err
	}
	return nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, course *domain.Course, cause error) bool {
	if uc.buffer == nil || !usecase.Bufferable(cause) {
		return false
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if err := uc.buffer.BufferCourse(ctx, operation, course); err != nil {
		uc.logger.Error("failed to buffer course operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("course operation buffered", zap.String("operation", operation), zap.Error(cause))
	return true
}
