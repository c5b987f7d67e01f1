package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
)

const (
	defaultConnections = 4
	defaultSendTimeout = 10 * time.Second
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	Connections int
	SendTimeout time.Duration
}

func (c SMTPConfig) address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SMTPMailer delivers HTML mail through a pooled SMTP connection.
type SMTPMailer struct {
	pool    *email.Pool
	from    string
	timeout time.Duration
}

// NewSMTPMailer builds the connection pool. Connections are opened lazily on
// the first send.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	conns := cfg.Connections
	if conns <= 0 {
		conns = defaultConnections
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	pool, err := email.NewPool(cfg.address(), conns, auth, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return nil, fmt.Errorf("smtp pool: %w", err)
	}

	return &SMTPMailer{pool: pool, from: cfg.From, timeout: timeout}, nil
}

// Send delivers a single message. A context deadline shorter than the
// configured send timeout takes precedence.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	if err := m.pool.Send(buildMessage(m.from, to, subject, htmlBody), timeout); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// Close releases pooled connections.
func (m *SMTPMailer) Close() {
	m.pool.Close()
}

func buildMessage(from, to, subject, htmlBody string) *email.Email {
	return &email.Email{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    []byte(htmlBody),
		Headers: textproto.MIMEHeader{},
	}
}
