package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/studytracker/usecase/notification"
)

// LogSender writes digests to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
	body   bool
}

// NewLogSender returns a development transport; withBody also logs the text body.
func NewLogSender(logger *zap.Logger, withBody bool) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger.Named("mail"), body: withBody}
}

func (s *LogSender) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	}
	if s.body {
		fields = append(fields, zap.String("text", msg.Text))
	}
	s.logger.Info("email sent", fields...)
	return nil
}
