package task

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
	"github.com/fastygo/studytracker/usecase"
)

// Clock supplies the date urgency is computed against.
type Clock interface {
	Today() domain.Date
}

// ListFilter narrows a user's task list.
type ListFilter struct {
	CourseID string
	Status   domain.TaskStatus
	Limit    int
	Offset   int
}

// NewTask is the input for CreateTask.
type NewTask struct {
	CourseID    string
	Title       string
	Description string
	DueDate     domain.Date
	Type        domain.TaskType
	Status      domain.TaskStatus
	Priority    domain.Priority
}

// StateChange carries the only task fields that may change after creation.
type StateChange struct {
	Status   *domain.TaskStatus
	Priority *domain.Priority
}

type UseCase struct {
	tasks   repository.TaskRepository
	courses repository.CourseRepository
	clock   Clock
	buffer  usecase.OperationBuffer
	logger  *zap.Logger
}

func New(tasks repository.TaskRepository, courses repository.CourseRepository, clock Clock, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:   tasks,
		courses: courses,
		clock:   clock,
		buffer:  buffer,
		logger:  logger,
	}
}

// ListTasks returns the user's tasks ordered by due date, each with its urgency for today.
func (uc *UseCase) ListTasks(ctx context.Context, userID string, filter ListFilter) ([]domain.TaskView, error) {
	if filter.CourseID != "" {
		if _, err := uc.ownedCourse(ctx, userID, filter.CourseID); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown task status filter")
	}

	records, err := uc.tasks.List(ctx, repository.TaskFilter{
		UserID:   userID,
		CourseID: filter.CourseID,
		Status:   filter.Status,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, err
	}

	today := uc.clock.Today()
	views := make([]domain.TaskView, 0, len(records))
	for _, rec := range records {
		views = append(views, domain.NewTaskView(rec.Task, rec.CourseName, today))
	}
	return views, nil
}

func (uc *UseCase) GetTask(ctx context.Context, userID, taskID string) (*domain.TaskView, error) {
	rec, err := uc.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	view := domain.NewTaskView(rec.Task, rec.CourseName, uc.clock.Today())
	return &view, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, userID string, input NewTask) (*domain.TaskView, error) {
	course, err := uc.ownedCourse(ctx, userID, input.CourseID)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		CourseID:    course.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Type:        input.Type,
		Status:      input.Status,
		Priority:    input.Priority,
	}
	task.ApplyDefaults()
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if !uc.shouldBuffer(ctx, usecase.OperationCreate, task, err) {
			return nil, err
		}
		created = task
	}
	view := domain.NewTaskView(*created, course.Name, uc.clock.Today())
	return &view, nil
}

// UpdateTask changes status and/or priority of an owned task.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, taskID string, change StateChange) (*domain.TaskView, error) {
	rec, err := uc.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if change.Status == nil && change.Priority == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "nothing to update: only status and priority can change")
	}

	task := rec.Task
	if change.Status != nil {
		task.Status = *change.Status
	}
	if change.Priority != nil {
		task.Priority = *change.Priority
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := uc.tasks.UpdateState(ctx, &task); err != nil {
		if !uc.shouldBuffer(ctx, usecase.OperationUpdate, &task, err) {
			return nil, err
		}
	}
	view := domain.NewTaskView(task, rec.CourseName, uc.clock.Today())
	return &view, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, taskID string) error {
	rec, err := uc.ownedTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, rec.ID); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationDelete, &rec.Task, err) {
			return nil
		}
		return err
	}
	return nil
}

func (uc *UseCase) ownedCourse(ctx context.Context, userID, courseID string) (*domain.Course, error) {
	if courseID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "course_id is required")
	}
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return course, nil
}

func (uc *UseCase) ownedTask(ctx context.Context, userID, taskID string) (*repository.TaskRecord, error) {
	rec, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return rec, nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task, cause error) bool {
	if uc.buffer == nil || !usecase.Bufferable(cause) {
		return false
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation), zap.Error(cause))
	return true
}
