package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type courseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository returns a Postgres-backed implementation of CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) repository.CourseRepository {
	return &courseRepository{pool: pool}
}

const courseSelect = `
	SELECT c.id, c.user_id, c.name, COUNT(t.id), c.created_at, c.updated_at
	FROM courses c
	LEFT JOIN tasks t ON t.course_id = c.id
`

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	row := r.pool.QueryRow(ctx, courseSelect+` WHERE c.id = $1 GROUP BY c.id`, id)
	return scanCourse(row)
}

func (r *courseRepository) ListByUser(ctx context.Context, userID string) ([]domain.Course, error) {
	rows, err := r.pool.Query(ctx, courseSelect+` WHERE c.user_id = $1 GROUP BY c.id ORDER BY c.name, c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	if course == nil {
		return nil, domain.ErrInvalidPayload
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO courses (id, user_id, name)
	VALUES ($1, $2, $3)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query, course.ID, course.UserID, course.Name).
		Scan(&course.CreatedAt, &course.UpdatedAt); err != nil {
		if isViolation(err, foreignKeyViolation) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return course, nil
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE course_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return tx.Commit(ctx)
}

func scanCourse(row scanner) (*domain.Course, error) {
	var (
		course domain.Course
		count  int64
	)
	if err := row.Scan(
		&course.ID,
		&course.UserID,
		&course.Name,
		&count,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	course.TaskCount = int(count)
	return &course, nil
}
