// Package mailer 发送通知邮件。
// 生产环境使用 SendGrid，本地开发使用仅写日志的实现。
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
)

var ErrNoRecipient = errors.New("邮件缺少收件人")

// Attachment 邮件附件
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message 一封待发送的邮件
type Message struct {
	To          []mail.Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Validate 检查收件人地址
func (m *Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range m.To {
		if _, err := mail.ParseAddress(to.Address); err != nil {
			return fmt.Errorf("收件人地址无效 %q: %w", to.Address, err)
		}
	}
	return nil
}

// Mailer 邮件发送接口
// 调用方负责为 ctx 设置超时
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New 根据配置选择邮件通道
func New(cfg *config.MailConfig, appName string, logger *zap.Logger) (Mailer, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.From}
	if from.Name == "" {
		from.Name = appName
	}

	switch cfg.Provider {
	case "sendgrid":
		return NewSendGrid(cfg.APIKey, from, appName, logger), nil
	case "log", "":
		return NewLogMailer(from, logger), nil
	default:
		return nil, fmt.Errorf("不支持的邮件通道: %s", cfg.Provider)
	}
}
