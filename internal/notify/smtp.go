package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"gigbook/internal/config"
	"gigbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SMTPMailer delivers notifications through an SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	retry  RetryPolicy
	logger *zerolog.Logger
	send   func(ctx context.Context, from, to string, msg []byte) error
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *zerolog.Logger) *SMTPMailer {
	m := &SMTPMailer{
		cfg:    cfg,
		retry:  RetryPolicy{Retries: cfg.Retries, Delay: 500 * time.Millisecond, MaxDelay: 5 * time.Second},
		logger: logger,
	}
	m.send = m.deliver
	return m
}

// Send builds a multipart message and hands it to the relay. Transient failures are
// retried; permanent rejections return after the first attempt.
func (m *SMTPMailer) Send(ctx context.Context, n models.Notification) error {
	if n.To == "" {
		return fmt.Errorf("notification has no recipient: %w", errPermanent)
	}
	if _, err := mail.ParseAddress(n.To); err != nil {
		return fmt.Errorf("bad recipient %q: %w", n.To, errPermanent)
	}

	msg, err := buildMessage(m.cfg.From, n)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= m.retry.Retries; attempt++ {
		if attempt > 0 {
			if !m.retry.Retryable(lastErr) {
				break
			}
			delay := m.retry.Backoff(attempt)
			m.logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("delay", delay).Str("to", n.To).Msg("Retrying email delivery")
			select {
			case <-ctx.Done():
				return fmt.Errorf("send email to %s: %w", n.To, ctx.Err())
			case <-time.After(delay):
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		lastErr = m.send(sendCtx, m.cfg.From, n.To, msg)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("send email to %s: %w", n.To, lastErr)
}

func (m *SMTPMailer) deliver(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

// buildMessage renders a multipart/alternative message with a text and an HTML part.
func buildMessage(from string, n models.Notification) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", n.TextBody},
		{"text/html; charset=UTF-8", n.HTMLBody},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("encode mime part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("encode mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", n.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "Message-ID: <%s@gigbook>\r\n", uuid.NewString())
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
