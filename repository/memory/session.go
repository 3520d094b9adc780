package memory

import (
	"context"
	"time"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

type sessionRepository struct {
	db  *DB
	ttl time.Duration
}

func NewSessionRepository(db *DB, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{db: db, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if r.db.failure != nil {
		return nil, r.db.failure
	}
	s, ok := r.db.sessions[id]
	if !ok || s.IsExpired(r.db.now()) {
		return nil, domain.ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.db.now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	stored := *session
	r.db.sessions[session.ID] = &stored
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	delete(r.db.sessions, id)
	return nil
}

func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	s, ok := r.db.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	d := time.Duration(ttlSeconds) * time.Second
	if d <= 0 {
		d = r.ttl
	}
	s.ExpiresAt = r.db.now().Add(d)
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failure != nil {
		return r.db.failure
	}
	for id, s := range r.db.sessions {
		if s.UserID == userID {
			delete(r.db.sessions, id)
		}
	}
	return nil
}
