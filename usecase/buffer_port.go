package usecase

import (
	"context"
	"errors"

	"github.com/fastygo/studytracker/domain"
)

// Operations replayed by the write buffer.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, operation string, user *domain.User) error
	BufferCourse(ctx context.Context, operation string, course *domain.Course) error
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
}

// Bufferable reports whether err came from unreachable storage rather than from the
// request itself; only such writes are worth replaying later.
func Bufferable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == domain.ErrCodeStoreUnavailable
	}
	return true
}
