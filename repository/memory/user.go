package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	for _, u := range r.db.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	for _, u := range r.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.db.touch(&user.CreatedAt, &user.UpdatedAt)
	stored := *user
	r.db.users[user.ID] = &stored
	return user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	for id, u := range r.db.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return domain.ErrUserExists
		}
	}
	if existing, ok := r.db.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}
	r.db.touch(&user.CreatedAt, &user.UpdatedAt)
	stored := *user
	r.db.users[user.ID] = &stored
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	if _, ok := r.db.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	for courseID, c := range r.db.courses {
		if c.UserID == id {
			r.db.deleteCourseLocked(courseID)
		}
	}
	for sessionID, s := range r.db.sessions {
		if s.UserID == id {
			delete(r.db.sessions, sessionID)
		}
	}
	delete(r.db.users, id)
	return nil
}
