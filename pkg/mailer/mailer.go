package mailer

import (
	"context"
	"fmt"
	"time"

	"teamsync-server/pkg/config"
	"teamsync-server/pkg/logger"
	"teamsync-server/prometheus"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(to, subject, body string) error
}

var sender Sender

// Initialize configures the package-level SMTP sender
func Initialize(c *config.SMTPConfig) {
	sender = &smtpSender{
		dialer: gomail.NewDialer(c.Host, c.Port, c.User, c.Password),
		from:   c.From,
	}
}

// SetSender swaps the delivery backend. Used by tests.
func SetSender(s Sender) {
	sender = s
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *smtpSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// sendWithRetry delivers a message with a bounded constant backoff.
// Transient SMTP failures get two more attempts before giving up.
func sendWithRetry(ctx context.Context, to, subject, body string) error {
	backoff := retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := sender.Send(to, subject, body); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// SendOTP mails a password-reset code. Delivery is load-bearing for the
// forgot-password flow, so the error is returned to the caller.
func SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	body := fmt.Sprintf("Your OTP is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
	if err := sendWithRetry(ctx, to, "Your OTP for Password Reset", body); err != nil {
		prometheus.RecordMailDispatch("otp", "failed")
		return err
	}
	prometheus.RecordMailDispatch("otp", "sent")
	return nil
}

// SendResetConfirmation mails a best-effort notice after a successful
// password reset. Runs on its own goroutine; failures are logged only.
func SendResetConfirmation(to, fullName string) {
	body := fmt.Sprintf("Hello %s,\n\n"+
		"You have successfully reset your password for your TeamSync account.\n"+
		"If you did not perform this action, please contact support immediately.\n\n"+
		"Best regards,\nTeamSync", fullName)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sendWithRetry(ctx, to, "Password Reset Confirmation", body); err != nil {
			prometheus.RecordMailDispatch("confirmation", "failed")
			logger.GetLogger().Error("Failed to send reset confirmation email",
				zap.String("to", to), zap.Error(err))
			return
		}
		prometheus.RecordMailDispatch("confirmation", "sent")
	}()
}
