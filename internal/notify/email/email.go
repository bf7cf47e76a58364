// Package email delivers verification codes and the welcome notification over SMTP.
package email

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends onboarding mail through an SMTP dialer.
type Mailer struct {
	from string
	send func(msgs ...*gomail.Message) error
}

// NewMailer returns a Mailer that dials cfg.Host for every message.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("email: SMTP host and from address are required")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &Mailer{from: cfg.From, send: dialer.DialAndSend}, nil
}

// NewMailerWithSender returns a Mailer that hands messages to s instead of dialing SMTP.
func NewMailerWithSender(from string, s gomail.Sender) *Mailer {
	return &Mailer{
		from: from,
		send: func(msgs ...*gomail.Message) error { return gomail.Send(s, msgs...) },
	}
}

// SendVerificationCode mails a six-digit code to to.
func (m *Mailer) SendVerificationCode(ctx context.Context, to, code string) error {
	msg := m.newMessage(to, "Your verification code")
	msg.SetBody("text/plain", fmt.Sprintf("Your verification code is %s.\n\nIt expires shortly. If you did not request it, ignore this email.\n", code))
	msg.AddAlternative("text/html", fmt.Sprintf(`<p>Your verification code is <strong>%s</strong>.</p>
<p>It expires shortly. If you did not request it, ignore this email.</p>`, html.EscapeString(code)))
	return m.deliver(ctx, msg, "verification code")
}

// SendWelcome mails the onboarding-complete notification.
func (m *Mailer) SendWelcome(ctx context.Context, to string) error {
	msg := m.newMessage(to, "Welcome aboard")
	msg.SetBody("text/plain", "Your email and phone are verified and your profile is complete.\n")
	msg.AddAlternative("text/html", "<h2>Welcome aboard!</h2><p>Your email and phone are verified and your profile is complete.</p>")
	return m.deliver(ctx, msg, "welcome email")
}

func (m *Mailer) newMessage(to, subject string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	return msg
}

// deliver checks ctx first; the SMTP dial itself is not cancellable.
func (m *Mailer) deliver(ctx context.Context, msg *gomail.Message, what string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", what, err)
	}
	return nil
}
