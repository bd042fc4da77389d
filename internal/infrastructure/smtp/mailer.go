package smtp

import (
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-social-auth/internal/config"
	"github.com/go-social-auth/internal/pkg/id"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type mailer struct {
	addr   string
	domain string
	from   mail.Address
	auth   smtp.Auth
	send   sendFunc
	now    func() time.Time
}

// NewMailer returns a relay-backed Mailer sending as no-reply@DOMAIN. PLAIN auth
// is used only when SMTP_USERNAME is set.
func NewMailer(cfg *config.Config) Mailer {
	m := &mailer{
		addr:   net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		domain: cfg.Domain,
		from:   mail.Address{Address: "no-reply@" + cfg.Domain},
		send:   smtp.SendMail,
		now:    time.Now,
	}
	if cfg.SMTPUsername != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// SendEmail delivers body as a single-part HTML message.
func (m *mailer) SendEmail(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return errors.New("header injection attempt in recipient or subject")
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("parse recipient: %w", err)
	}
	msg := m.buildMessage(rcpt, subject, body)
	if err := m.send(m.addr, m.auth, m.from.Address, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.addr, err)
	}
	return nil
}

func (m *mailer) buildMessage(to *mail.Address, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", id.At(m.now()), m.domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
