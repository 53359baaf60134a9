package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/config"
	"github.com/raetselonkel/labyrinth/internal/infra/logger"
)

// SMTPMailer sends activation mails through a plain SMTP relay.
type SMTPMailer struct {
	cfg    config.MailSettings
	logger *zap.Logger
}

var _ port.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.MailSettings, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log}
}

func (m *SMTPMailer) SendActivationPin(ctx context.Context, username, email string, pin int) error {
	body := strings.Join([]string{
		fmt.Sprintf("From: %s", m.cfg.From),
		fmt.Sprintf("To: %s", email),
		"Subject: Your Labyrinth activation PIN",
		"",
		fmt.Sprintf("Hello %s,", username),
		"",
		fmt.Sprintf("your activation PIN is: %06d", pin),
		"",
		"Enter it on the activation page to start playing.",
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("send activation mail: %w", err)
	}

	m.logger.Info("activation mail sent",
		zap.String("username", username),
		zap.String("email", logger.MaskEmail(email)),
	)
	return nil
}

// LogMailer writes the activation PIN to the log instead of sending
// mail. Used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

var _ port.Mailer = (*LogMailer)(nil)

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) SendActivationPin(ctx context.Context, username, email string, pin int) error {
	m.logger.Info("activation pin issued",
		zap.String("username", username),
		zap.String("email", logger.MaskEmail(email)),
		zap.Int("pin", pin),
	)
	return nil
}
