package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "session:user:"
)

// sessionRepository stores sessions as JSON under session:<id> and indexes them per
// user in the set session:user:<user_id>. Index entries may outlive their session;
// readers treat a missing session key as gone.
type sessionRepository struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.write(ctx, session, ttl)
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionPrefix+id)
	if session != nil {
		pipe.SRem(ctx, userSessionPrefix+session.UserID, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Extend pushes the expiry of an existing session ttlSeconds into the future.
func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}

	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ExpiresAt = time.Now().Add(duration)
	return r.write(ctx, session, duration)
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	index := userSessionPrefix + userID
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redislib.Nil) {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionPrefix+id)
	}
	keys = append(keys, index)
	return r.client.Del(ctx, keys...).Err()
}

// write stores the session and refreshes the user index so it lives at least as
// long as the session.
func (r *sessionRepository) write(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	index := userSessionPrefix + session.UserID

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionPrefix+session.ID, payload, ttl)
	pipe.SAdd(ctx, index, session.ID)
	pipe.ExpireNX(ctx, index, ttl)
	pipe.ExpireGT(ctx, index, ttl)
	_, err = pipe.Exec(ctx)
	return err
}
