// Package mail sends transactional account mails over SMTP.
package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Config captures the SMTP settings and the public frontend base URL used
// to build confirmation and recovery links.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	FrontendURL string
}

// Mailer implements the outbound mail port on a plain SMTP dialer.
type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	log         zerolog.Logger
}

func NewMailer(cfg Config, log zerolog.Logger) *Mailer {
	return &Mailer{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:        cfg.From,
		frontendURL: cfg.FrontendURL,
		log:         log,
	}
}

// SendAccountConfirmation mails the activation link for a new account.
func (m *Mailer) SendAccountConfirmation(ctx context.Context, email, name, token string) error {
	link := fmt.Sprintf("%s/confirm/%s", m.frontendURL, token)
	body := fmt.Sprintf(`<p>Hi %s, your account is almost ready.</p>
<p>Activate it by following this link:</p>
<p><a href="%s">Confirm account</a></p>
<p>If you did not create this account, you can ignore this message.</p>`, name, link)

	return m.send(ctx, email, "Confirm your account", body)
}

// SendPasswordReset mails the single-use password recovery link.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, name, token string) error {
	link := fmt.Sprintf("%s/forgot-password/%s", m.frontendURL, token)
	body := fmt.Sprintf(`<p>Hi %s, you requested a password reset.</p>
<p>Choose a new password by following this link:</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not request this, you can ignore this message.</p>`, name, link)

	return m.send(ctx, email, "Reset your password", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Debug().Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}
