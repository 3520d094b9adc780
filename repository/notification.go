package repository

import (
	"context"

	"github.com/fastygo/studytracker/domain"
)

// NotificationSource reads the data a notification run selects from.
// Snapshot returns the full user roster and every non-completed task due on target,
// read consistently; it never writes.
type NotificationSource interface {
	Snapshot(ctx context.Context, target domain.Date) (*domain.NotificationSnapshot, error)
}

// RunSummaryRepository keeps recent notification run summaries for inspection.
type RunSummaryRepository interface {
	Save(ctx context.Context, summary *domain.RunSummary) error
	Latest(ctx context.Context) (*domain.RunSummary, error)
	GetByDate(ctx context.Context, reference domain.Date) (*domain.RunSummary, error)
}
