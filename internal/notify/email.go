package notify

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// EmailConfig configures the optional email copy of forwarded feedback.
type EmailConfig struct {
	Host        string
	Port        int
	From        string
	To          string
	PlainAuth   bool
	Username    string
	Password    string
	TLS         bool
	TLSInsecure bool
}

// Emailer sends the administrator an email copy of each forwarded
// feedback message. Best-effort: delivery failures are logged by the
// caller and never affect admission or relay.
type Emailer struct {
	config EmailConfig
	log    *slog.Logger

	// send is swapped out by tests.
	send func(e *email.Email) error
}

// NewEmailer creates an emailer for the given SMTP endpoint.
func NewEmailer(config EmailConfig, log *slog.Logger) *Emailer {
	if log == nil {
		log = slog.Default()
	}
	m := &Emailer{config: config, log: log}
	m.send = m.deliver
	return m
}

// FeedbackCopy emails one forwarded feedback message.
func (m *Emailer) FeedbackCopy(sequence int, text string) error {
	e := email.NewEmail()
	e.From = m.config.From
	e.To = []string{m.config.To}
	e.Subject = fmt.Sprintf("New feedback #%d", sequence)
	e.Text = []byte(text)
	return m.send(e)
}

func (m *Emailer) deliver(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	var auth smtp.Auth
	if m.config.PlainAuth {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if m.config.TLS {
		tlsConfig := &tls.Config{
			ServerName:         m.config.Host,
			InsecureSkipVerify: m.config.TLSInsecure,
		}
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}
