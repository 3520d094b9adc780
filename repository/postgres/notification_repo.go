package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type notificationSource struct {
	pool *pgxpool.Pool
}

// NewNotificationSource returns the Postgres reader used by notification runs.
func NewNotificationSource(pool *pgxpool.Pool) repository.NotificationSource {
	return &notificationSource{pool: pool}
}

// Snapshot reads the roster and the due rows inside one REPEATABLE READ, READ ONLY
// transaction so both queries observe the same database state.
func (s *notificationSource) Snapshot(ctx context.Context, target domain.Date) (*domain.NotificationSnapshot, error) {
	if s.pool == nil {
		return nil, domain.StoreUnavailable(errors.New("postgres pool is not configured"))
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap := &domain.NotificationSnapshot{Target: target}

	users, err := tx.Query(ctx, `
	SELECT id, username, email, notifications_enabled
	FROM users
	ORDER BY id
	`)
	if err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	for users.Next() {
		var rcp domain.Recipient
		if err := users.Scan(&rcp.UserID, &rcp.Username, &rcp.Email, &rcp.NotificationsEnabled); err != nil {
			users.Close()
			return nil, domain.StoreUnavailable(err)
		}
		snap.Recipients = append(snap.Recipients, rcp)
	}
	users.Close()
	if err := users.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	// LEFT JOIN keeps rows whose course vanished; the selector drops them as orphans.
	tasks, err := tx.Query(ctx, `
	SELECT t.id, t.course_id, t.title, t.description, t.due_date, t.task_type, t.status, t.priority,
		t.created_at, t.updated_at, COALESCE(c.name, ''), COALESCE(c.user_id, '')
	FROM tasks t
	LEFT JOIN courses c ON c.id = t.course_id
	WHERE t.due_date = $1 AND t.status <> $2
	ORDER BY t.id
	`, dateParam(target), string(domain.StatusCompleted))
	if err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	defer tasks.Close()
	for tasks.Next() {
		var (
			row      domain.DueTask
			due      time.Time
			taskType string
			status   string
			priority string
		)
		if err := tasks.Scan(
			&row.ID,
			&row.CourseID,
			&row.Title,
			&row.Description,
			&due,
			&taskType,
			&status,
			&priority,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.CourseName,
			&row.UserID,
		); err != nil {
			return nil, domain.StoreUnavailable(err)
		}
		row.DueDate = domain.DateOf(due)
		row.Type = domain.TaskType(taskType)
		row.Status = domain.TaskStatus(status)
		row.Priority = domain.Priority(priority)
		snap.Tasks = append(snap.Tasks, row)
	}
	if err := tasks.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	return snap, nil
}
