package mailer

import (
	"context"
	"net/mail"

	"go.uber.org/zap"
)

// logMailer 只把邮件写入日志，不真正投递
type logMailer struct {
	from   mail.Address
	logger *zap.Logger
}

// NewLogMailer 创建开发环境使用的日志邮件发送器
func NewLogMailer(from mail.Address, logger *zap.Logger) Mailer {
	return &logMailer{from: from, logger: logger}
}

func (l *logMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	l.logger.Info("邮件（未投递）",
		zap.String("from", l.from.String()),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
		zap.String("text", msg.Text),
	)
	return nil
}
