// Package mail delivers OTP emails. The auth service only depends on
// the Notifier interface; any send error is treated as total failure
// and the caller rolls back whatever the email was confirming.
package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"inkwell/api/internal/config"
)

type Notifier interface {
	SendOTPEmail(ctx context.Context, email, otp, name string) error
	SendPasswordResetOTPEmail(ctx context.Context, email, otp, name string) error
}

type SMTPNotifier struct {
	client *gomail.Client
	from   string
	log    zerolog.Logger
}

func NewSMTPNotifier(cfg config.SMTPConfig, log zerolog.Logger) (*SMTPNotifier, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
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
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPNotifier{
		client: client,
		from:   cfg.From,
		log:    log,
	}, nil
}

func (n *SMTPNotifier) SendOTPEmail(ctx context.Context, email, otp, name string) error {
	subject := "Verify your email address"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s.\n\nIt expires in 10 minutes. If you did not sign up, you can ignore this email.\n",
		name, otp,
	)
	return n.send(ctx, email, subject, body)
}

func (n *SMTPNotifier) SendPasswordResetOTPEmail(ctx context.Context, email, otp, name string) error {
	subject := "Your password reset code"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is %s.\n\nIt expires in 10 minutes. If you did not request a reset, you can ignore this email.\n",
		name, otp,
	)
	return n.send(ctx, email, subject, body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		n.log.Error().Err(err).Str("to", to).Msg("email send failed")
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
