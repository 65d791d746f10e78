package sender

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const implicitTLSPort = 465

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SkipVerify bool
	Timeout    time.Duration
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST not set")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("SMTP_PORT must be a positive integer")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("SMTP_USER not set")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("SMTP_PASS not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{cfg: cfg}, nil
}

// SendEmail delivers one HTML message. Port 465 speaks TLS from the first
// byte; any other port starts in plaintext and upgrades with STARTTLS when the
// server offers it.
func (s *SMTPSender) SendEmail(ctx context.Context, from, to, subject, htmlBody string) (SendResult, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("smtp dial failed: %w", err)
	}
	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return SendResult{}, fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer client.Close()

	if s.cfg.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig()); err != nil {
				return SendResult{}, fmt.Errorf("smtp starttls failed: %w", err)
			}
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return SendResult{}, fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	messageID := newMessageID(s.cfg.Host)
	if err := client.Mail(addressOf(from)); err != nil {
		return SendResult{}, fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return SendResult{}, fmt.Errorf("smtp RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return SendResult{}, fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(buildMessage(from, to, subject, htmlBody, messageID, time.Now())); err != nil {
		return SendResult{}, fmt.Errorf("smtp write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}
	_ = client.Quit()

	return SendResult{MessageID: messageID, SentAt: time.Now()}, nil
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	if s.cfg.Port == implicitTLSPort {
		td := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}
		return td.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.SkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
}

func buildMessage(from, to, subject, htmlBody, messageID string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// addressOf extracts the bare address from `"Name" <addr>` forms.
func addressOf(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

func newMessageID(host string) string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), hex.EncodeToString(buf), host)
}
