package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"github.com/fastygo/studytracker/internal/config"
	"github.com/fastygo/studytracker/usecase/notification"
)

// SMTPSender delivers digests over SMTP with implicit TLS or STARTTLS.
type SMTPSender struct {
	cfg  config.SMTPConfig
	from gomail.Address
	now  func() time.Time
}

func NewSMTPSender(cfg config.SMTPConfig, fromName, fromAddress string) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if fromAddress == "" {
		fromAddress = cfg.Username
	}
	if fromAddress == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &SMTPSender{
		cfg:  cfg,
		from: gomail.Address{Name: fromName, Address: fromAddress},
		now:  time.Now,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg notification.Message) error {
	body, err := s.compose(msg)
	if err != nil {
		return fmt.Errorf("composing message: %w", err)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	// Unblock any pending read or write when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := s.deliver(conn, msg.ToAddress, body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ctxErr, err)
		}
		return err
	}
	return nil
}

// compose builds a multipart/alternative message with text and HTML bodies.
func (s *SMTPSender) compose(msg notification.Message) ([]byte, error) {
	var h gomail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*gomail.Address{&s.from})
	h.SetAddressList("To", []*gomail.Address{{Name: msg.ToName, Address: msg.ToAddress}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	if err := writeInline(tw, "text/plain", msg.Text); err != nil {
		return nil, err
	}
	if msg.HTML != "" {
		if err := writeInline(tw, "text/html", msg.HTML); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeInline(tw *gomail.InlineWriter, contentType, body string) error {
	var h gomail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	return w.Close()
}

func (s *SMTPSender) addr() string {
	port := s.cfg.Port
	if port == "" {
		port = "587"
		if s.cfg.TLS {
			port = "465"
		}
	}
	return net.JoinHostPort(s.cfg.Host, port)
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := s.addr()
	if s.cfg.TLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("TLS dial to %s: %w", addr, err)
		}
		return conn, nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial to %s: %w", addr, err)
	}
	return conn, nil
}

func (s *SMTPSender) deliver(conn net.Conn, to string, body []byte) error {
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if !s.cfg.TLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("SMTP STARTTLS: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}
	return client.Quit()
}
