package utils

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type EmailOptions struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender is what the auth flow depends on; tests substitute a fake.
type EmailSender interface {
	Send(opts EmailOptions) error
}

// SMTPSender delivers mail over the SMTP server configured in the
// environment (SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD).
type SMTPSender struct{}

func (SMTPSender) Send(opts EmailOptions) error {
	host := os.Getenv("SMTP_HOST")
	port := ParseIntDefault(os.Getenv("SMTP_PORT"), 465)
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "Buyfy Application <no-reply@buyfy.com>"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", opts.To)
	m.SetHeader("Subject", opts.Subject)
	m.SetBody("text/html", opts.HTML)

	d := gomail.NewDialer(host, port, username, password)
	return d.DialAndSend(m)
}

// ResetCodeMailContent renders the password-reset email body. The code
// is sent in plaintext; only its hash is ever stored.
func ResetCodeMailContent(userName, resetCode string) string {
	return fmt.Sprintf(`
      <div style="font-family: Arial, sans-serif; color: #333; line-height: 1.5;">
        <h2 style="color: #007BFF;">Hi %s,</h2>
        <p>We received a request to reset your password on your <strong>Buyfy Account</strong>.</p>
        <p style="font-size: 18px; font-weight: bold; background-color: #f4f4f4; padding: 10px; border-radius: 5px;">
          %s
        </p>
        <p>Please enter this reset code in the application to proceed.</p>
        <p>Thanks for helping us keep your account secure.</p>
        <br>
        <p>Best regards,</p>
        <p style="color: #007BFF;"><strong>The Buyfy TEAM</strong></p>
      </div>
    `, userName, resetCode)
}
