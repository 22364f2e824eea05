package services

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail over SMTP. Sending is best-effort
// throughout the app: the caller logs a failure and proceeds.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

// NewMailer creates a Mailer, or nil when SMTP credentials are absent.
// A nil Mailer drops all mail, which keeps development setups working.
func NewMailer(host string, port int, user, pass, from string, log *zap.Logger) *Mailer {
	if user == "" || pass == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
		log:    log,
	}
}

// SendOTP mails a password-reset code.
func (m *Mailer) SendOTP(to, otp string) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "GUCollab - Password Reset OTP")
	msg.SetBody("text/html", fmt.Sprintf(
		"<h2>Password Reset OTP</h2><p>Your OTP for password reset is: <strong>%s</strong></p><p>This OTP will expire in 5 minutes.</p>", otp))

	return m.dialer.DialAndSend(msg)
}

// SendWelcome mails a signup greeting.
func (m *Mailer) SendWelcome(to, name string) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Welcome to GUCollab")
	msg.SetBody("text/html", fmt.Sprintf(
		"<h2>Welcome, %s!</h2><p>Your account is ready. Find a project, build a team, ship something.</p>", name))

	return m.dialer.DialAndSend(msg)
}
