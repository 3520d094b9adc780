// Package app assembles the notification engine from configuration.
package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/internal/config"
	"github.com/fastygo/studytracker/internal/infrastructure/mail"
	"github.com/fastygo/studytracker/repository"
	"github.com/fastygo/studytracker/repository/postgres"
	"github.com/fastygo/studytracker/usecase/notification"
)

// NewRunner builds a runner reading from pool and delivering through the configured
// mail driver. history may be nil.
func NewRunner(cfg *config.Config, pool *pgxpool.Pool, history repository.RunSummaryRepository, logger *zap.Logger) (*notification.Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Notify.Location()
	if err != nil {
		return nil, err
	}

	sender, err := mail.NewSender(cfg.Mail, logger.Named("mail"))
	if err != nil {
		return nil, fmt.Errorf("mail sender: %w", err)
	}
	renderer, err := notification.NewRenderer(notification.RendererConfig{
		AppName:      cfg.AppName,
		DashboardURL: cfg.Mail.DashboardURL,
	})
	if err != nil {
		return nil, fmt.Errorf("digest templates: %w", err)
	}

	runLogger := logger.Named("notify")
	selector := notification.NewSelector(postgres.NewNotificationSource(pool), runLogger)
	dispatcher := notification.NewDispatcher(sender, renderer, runLogger, notification.DispatcherConfig{
		Workers: cfg.Notify.Workers,
	})
	return notification.NewRunner(notification.SystemClock{Location: loc}, selector, dispatcher, history, runLogger), nil
}
