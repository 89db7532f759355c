// Package mailer delivers contact-form notifications over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/arkadas/portfolio-api/internal/config"
)

const sendTimeout = 30 * time.Second

// ContactMessage is one contact-form submission to notify about.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Mailer sends notifications using a fixed SMTP account. A Mailer built
// from incomplete settings reports Enabled() == false and refuses to send.
type Mailer struct {
	config config.SMTPConfig
	log    *slog.Logger
}

// New builds a Mailer. It performs no I/O.
func New(c config.SMTPConfig, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{config: c, log: log}
}

// Enabled reports whether all required SMTP settings are present.
func (m *Mailer) Enabled() bool {
	c := m.config
	return c.Host != "" && c.Username != "" && c.Password != "" && c.From != "" && c.To != ""
}

// SendContact delivers one notification. The caller decides how a delivery
// failure affects the stored submission; SendContact only reports it.
func (m *Mailer) SendContact(ctx context.Context, msg ContactMessage) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp configuration incomplete")
	}

	body := renderMessage(m.config.From, m.config.To, msg)
	addr := net.JoinHostPort(m.config.Host, fmt.Sprintf("%d", m.config.Port))
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.config.From, []string{m.config.To}, body)
	}()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			m.log.Warn("contact notification failed", "to", m.config.To, "error", err)
			return fmt.Errorf("send contact mail: %w", err)
		}
		m.log.Info("contact notification sent", "from", msg.Email, "to", m.config.To)
		return nil
	case <-timer.C:
		return fmt.Errorf("send contact mail: timeout after %s", sendTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// renderMessage builds a multipart/alternative MIME message with plain-text
// and HTML bodies, Reply-To pointing at the submitter.
func renderMessage(from, to string, msg ContactMessage) []byte {
	subject := msg.Subject
	if subject == "" {
		subject = "Portfolio Contact: " + msg.Name
	}

	const boundary = "portfolio-contact-boundary"
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header("From", from)
	header("To", to)
	header("Reply-To", msg.Email)
	header("Subject", subject)
	header("MIME-Version", "1.0")
	header("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	b.WriteString("\r\n")

	subjectLine := msg.Subject
	if subjectLine == "" {
		subjectLine = "N/A"
	}

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "New Contact Form Submission\r\n\r\n"+
		"Name: %s\r\nEmail: %s\r\nSubject: %s\r\n\r\nMessage:\r\n%s\r\n\r\n"+
		"---\r\nThis message was sent from your portfolio contact form.\r\n"+
		"Reply to this email to respond directly to %s.\r\n",
		msg.Name, msg.Email, subjectLine, msg.Message, msg.Email)

	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "<html><body>"+
		"<h2>New Contact Form Submission</h2>"+
		"<p><b>Name:</b> %s</p>"+
		"<p><b>Email:</b> <a href=\"mailto:%s\">%s</a></p>"+
		"<p><b>Subject:</b> %s</p>"+
		"<p><b>Message:</b></p><p>%s</p>"+
		"<hr><p>This message was sent from your portfolio contact form.</p>"+
		"</body></html>\r\n",
		htmlEscape(msg.Name), htmlEscape(msg.Email), htmlEscape(msg.Email),
		htmlEscape(subjectLine), strings.ReplaceAll(htmlEscape(msg.Message), "\n", "<br>"))

	b.WriteString("\r\n--" + boundary + "--\r\n")
	return []byte(b.String())
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
