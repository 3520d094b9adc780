package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
	"github.com/fastygo/studytracker/usecase"
)

// Update carries the profile fields a user may change; nil means unchanged.
type Update struct {
	Email                *string
	NotificationsEnabled *bool
}

type UseCase struct {
	users  repository.UserRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(users repository.UserRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		buffer: buffer,
		logger: logger,
	}
}

// Register creates a user. Notifications default to enabled when enabled is nil.
func (uc *UseCase) Register(ctx context.Context, username, email string, enabled *bool) (*domain.User, error) {
	user := &domain.User{
		Username:             strings.TrimSpace(username),
		Email:                strings.TrimSpace(email),
		NotificationsEnabled: true,
	}
	if enabled != nil {
		user.NotificationsEnabled = *enabled
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	created, err := uc.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.String("user_id", created.ID))
	return created, nil
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, update Update) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Email != nil {
		user.Email = strings.TrimSpace(*update.Email)
	}
	if update.NotificationsEnabled != nil {
		user.NotificationsEnabled = *update.NotificationsEnabled
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := uc.users.Upsert(ctx, user); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, user, err) {
			return user, nil
		}
		return nil, err
	}
	return user, nil
}

// DeleteProfile removes the user with every course and task they own.
func (uc *UseCase) DeleteProfile(ctx context.Context, userID string) error {
	if err := uc.users.Delete(ctx, userID); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationDelete, &domain.User{ID: userID}, err) {
			return nil
		}
		return err
	}
	uc.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, user *domain.User, cause error) bool {
	if uc.buffer == nil || !usecase.Bufferable(cause) {
		return false
	}
	if err := uc.buffer.BufferProfile(ctx, operation, user); err != nil {
		uc.logger.Error("failed to buffer profile operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("profile operation buffered due to repository error", zap.String("operation", operation), zap.Error(cause))
	return true
}
