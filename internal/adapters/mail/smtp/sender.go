package smtp

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/ogurasousui/hrms-clean-arch/internal/core/intake"
	"github.com/ogurasousui/hrms-clean-arch/internal/platform/config"
	gomail "github.com/wneessen/go-mail"
)

// Sender は SMTP 経由で通知メールを送信します。
type Sender struct {
	client   *gomail.Client
	from     string
	loginURL string
	timeout  time.Duration
}

// NewSender は設定から Sender を生成します。
func NewSender(cfg config.MailConfig) (*Sender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: create client: %w", err)
	}

	return &Sender{
		client:   client,
		from:     cfg.From,
		loginURL: cfg.LoginURL,
		timeout:  cfg.Timeout,
	}, nil
}

// SendWelcome は一時パスワードとログイン URL を新規社員へ送信します。
func (s *Sender) SendWelcome(ctx context.Context, m intake.WelcomeMail) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("smtp: set from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("smtp: set to: %w", err)
	}
	msg.Subject("Welcome! Your HRMS account is ready")
	msg.SetBodyString(gomail.TypeTextHTML, WelcomeBody(m, s.loginURL))

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return fmt.Errorf("smtp: send welcome mail: %w", err)
	}
	return nil
}

// WelcomeBody は通知メールの HTML 本文を組み立てます。
func WelcomeBody(m intake.WelcomeMail, loginURL string) string {
	name := m.FirstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>An account has been created for you in the HR system.</p>
<p>Temporary password: <strong>%s</strong></p>
<p>Please sign in at <a href="%s">%s</a> and change your password.</p>`,
		html.EscapeString(name),
		html.EscapeString(m.TempPassword),
		html.EscapeString(loginURL),
		html.EscapeString(loginURL),
	)
}
