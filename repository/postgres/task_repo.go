package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskSelect = `
	SELECT t.id, t.course_id, t.title, t.description, t.due_date, t.task_type, t.status, t.priority,
		t.created_at, t.updated_at, c.name, c.user_id
	FROM tasks t
	JOIN courses c ON c.id = t.course_id
`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*repository.TaskRecord, error) {
	row := r.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]repository.TaskRecord, error) {
	const where = `
	WHERE ($1 = '' OR c.user_id = $1)
	  AND ($2 = '' OR t.course_id = $2)
	  AND ($3 = '' OR t.status = $3)
	ORDER BY t.due_date, t.id
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, taskSelect+where,
		filter.UserID,
		filter.CourseID,
		string(filter.Status),
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []repository.TaskRecord
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, course_id, title, description, due_date, task_type, status, priority)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.CourseID,
		task.Title,
		task.Description,
		dateParam(task.DueDate),
		string(task.Type),
		string(task.Status),
		string(task.Priority),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if isViolation(err, foreignKeyViolation) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) UpdateState(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET status = $2,
		priority = $3,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query, task.ID, string(task.Status), string(task.Priority)).
		Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*repository.TaskRecord, error) {
	var (
		rec      repository.TaskRecord
		due      time.Time
		taskType string
		status   string
		priority string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CourseID,
		&rec.Title,
		&rec.Description,
		&due,
		&taskType,
		&status,
		&priority,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.CourseName,
		&rec.UserID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	rec.DueDate = domain.DateOf(due)
	rec.Type = domain.TaskType(taskType)
	rec.Status = domain.TaskStatus(status)
	rec.Priority = domain.Priority(priority)
	return &rec, nil
}
