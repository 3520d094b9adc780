package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type courseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) repository.CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	c, ok := r.db.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	out := r.withCount(*c)
	return &out, nil
}

func (r *courseRepository) ListByUser(ctx context.Context, userID string) ([]domain.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	var out []domain.Course
	for _, c := range r.db.courses {
		if c.UserID == userID {
			out = append(out, r.withCount(*c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	if course == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	if _, ok := r.db.users[course.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	r.db.touch(&course.CreatedAt, &course.UpdatedAt)
	stored := *course
	r.db.courses[course.ID] = &stored
	return course, nil
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	if _, ok := r.db.courses[id]; !ok {
		return domain.ErrCourseNotFound
	}
	r.db.deleteCourseLocked(id)
	return nil
}

func (r *courseRepository) withCount(c domain.Course) domain.Course {
	c.TaskCount = 0
	for _, t := range r.db.tasks {
		if t.CourseID == c.ID {
			c.TaskCount++
		}
	}
	return c
}
