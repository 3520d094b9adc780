// Package mail provides the transports that deliver notification digests.
package mail

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/studytracker/internal/config"
	"github.com/fastygo/studytracker/usecase/notification"
)

const (
	DriverLog      = "log"
	DriverSMTP     = "smtp"
	DriverSendGrid = "sendgrid"
)

// NewSender builds the transport selected by cfg.Driver, wrapped with the per-send timeout.
func NewSender(cfg config.MailConfig, logger *zap.Logger) (notification.Sender, error) {
	var (
		sender notification.Sender
		err    error
	)
	switch cfg.Driver {
	case DriverLog, "":
		sender = NewLogSender(logger, false)
	case DriverSMTP:
		sender, err = NewSMTPSender(cfg.SMTP, cfg.FromName, cfg.FromAddress)
	case DriverSendGrid:
		sender, err = NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromAddress)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(sender, cfg.SendTimeout), nil
}
