package repository

import (
	"context"

	"github.com/fastygo/studytracker/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// Delete removes the user together with all owned courses and tasks atomically.
	Delete(ctx context.Context, id string) error
}
