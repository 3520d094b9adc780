package repository

import (
	"context"

	"github.com/fastygo/studytracker/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
	// DeleteByUser removes every session belonging to userID.
	DeleteByUser(ctx context.Context, userID string) error
}
