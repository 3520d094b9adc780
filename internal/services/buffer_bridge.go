package services

import (
	"context"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/internal/infrastructure/buffer"
	"github.com/fastygo/studytracker/usecase"
)

// BufferBridge turns use case writes into buffer items.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, operation string, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	return b.enqueue(ctx, user.ID, buffer.EntityProfile, operation, user)
}

func (b *BufferBridge) BufferCourse(ctx context.Context, operation string, course *domain.Course) error {
	if course == nil {
		return domain.ErrInvalidPayload
	}
	return b.enqueue(ctx, course.UserID, buffer.EntityCourse, operation, course)
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return b.enqueue(ctx, "", buffer.EntityTask, operation, task)
}

func (b *BufferBridge) enqueue(ctx context.Context, userID, entity, operation string, payload interface{}) error {
	if b.processor == nil {
		return domain.ErrInvalidPayload
	}
	item, err := buffer.NewItem(userID, entity, operation, payload)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
