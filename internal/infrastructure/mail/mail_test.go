package mail

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/internal/config"
	"github.com/fastygo/studytracker/usecase/notification"
)

var digest = notification.Message{
	ToAddress: "ada@example.edu",
	ToName:    "ada",
	Subject:   "Task Reminder: 1 task due tomorrow!",
	Text:      "You have 1 task due tomorrow\n",
	HTML:      "<p>You have 1 task due tomorrow</p>",
}

func TestSMTPSender_ComposeIsMultipartAlternative(t *testing.T) {
	s, err := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.edu"}, "Organizer", "noreply@example.edu")
	require.NoError(t, err)

	raw, err := s.compose(digest)
	require.NoError(t, err)

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, digest.Subject, subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "ada@example.edu", to[0].Address)

	var types, bodies, wire []string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		h, ok := p.Header.(*gomail.InlineHeader)
		require.True(t, ok)
		ct, _, err := h.ContentType()
		require.NoError(t, err)
		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		types = append(types, ct)
		wire = append(wire, string(body))
		bodies = append(bodies, strings.ReplaceAll(string(body), "\r\n", "\n"))
	}
	assert.Equal(t, []string{"text/plain", "text/html"}, types)
	assert.Equal(t, digest.Text, bodies[0])
	assert.Equal(t, digest.HTML, bodies[1])
	// line endings go out as CRLF
	assert.Equal(t, "You have 1 task due tomorrow\r\n", wire[0])
}

// fakeSMTP accepts one plaintext session and records the DATA payload.
type fakeSMTP struct {
	ln       net.Listener
	mu       sync.Mutex
	rcpt     []string
	data     string
	rejectTo string
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeSMTP) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = io.WriteString(conn, line+"\r\n") }

	reply("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO"):
			f.mu.Lock()
			reject := f.rejectTo != "" && strings.Contains(strings.ToLower(line), f.rejectTo)
			if !reject {
				f.rcpt = append(f.rcpt, strings.TrimSpace(line[len("RCPT TO:"):]))
			}
			f.mu.Unlock()
			if reject {
				reply("550 mailbox unavailable")
				continue
			}
			reply("250 ok")
		case cmd == "DATA":
			reply("354 go ahead")
			var buf strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				buf.WriteString(l)
			}
			f.mu.Lock()
			f.data = buf.String()
			f.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func smtpConfigFor(t *testing.T, f *fakeSMTP) config.SMTPConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(f.ln.Addr().String())
	require.NoError(t, err)
	return config.SMTPConfig{Host: host, Port: port}
}

func TestSMTPSender_DeliversToServer(t *testing.T) {
	f := startFakeSMTP(t)
	s, err := NewSMTPSender(smtpConfigFor(t, f), "Organizer", "noreply@example.edu")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), digest))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{"<ada@example.edu>"}, f.rcpt)
	assert.Contains(t, f.data, "Subject: Task Reminder: 1 task due tomorrow!")
	assert.Contains(t, f.data, "multipart/alternative")
}

func TestSMTPSender_RejectedRecipient(t *testing.T) {
	f := startFakeSMTP(t)
	f.mu.Lock()
	f.rejectTo = "ada@example.edu"
	f.mu.Unlock()
	s, err := NewSMTPSender(smtpConfigFor(t, f), "", "noreply@example.edu")
	require.NoError(t, err)

	err = s.Send(context.Background(), digest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RCPT TO")
}

func TestSMTPSender_RequiresHostAndFrom(t *testing.T) {
	_, err := NewSMTPSender(config.SMTPConfig{}, "", "a@b.c")
	assert.Error(t, err)
	_, err = NewSMTPSender(config.SMTPConfig{Host: "h"}, "", "")
	assert.Error(t, err)
}

func TestSendGridSender_PostsV3Payload(t *testing.T) {
	var (
		gotAuth string
		payload map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, sendgridEndpoint, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, err := NewSendGridSender("SG.key", "Organizer", "noreply@example.edu")
	require.NoError(t, err)
	s.host = srv.URL

	require.NoError(t, s.Send(context.Background(), digest))
	assert.Equal(t, "Bearer SG.key", gotAuth)

	personalizations, ok := payload["personalizations"].([]interface{})
	require.True(t, ok)
	require.Len(t, personalizations, 1)
	p := personalizations[0].(map[string]interface{})
	assert.Equal(t, digest.Subject, p["subject"])
	content := payload["content"].([]interface{})
	assert.Len(t, content, 2)
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"message":"bad key"}]}`)
	}))
	defer srv.Close()

	s, err := NewSendGridSender("SG.bad", "", "noreply@example.edu")
	require.NoError(t, err)
	s.host = srv.URL

	err = s.Send(context.Background(), digest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

type slowSender struct{ delay time.Duration }

func (s slowSender) Send(ctx context.Context, _ notification.Message) error {
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(slowSender{delay: time.Second}, 10*time.Millisecond).Send(context.Background(), digest)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTransportTimeout))
	assert.True(t, domain.IsTransportFailure(err))

	err = WithTimeout(slowSender{delay: time.Millisecond}, time.Second).Send(context.Background(), digest)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = WithTimeout(slowSender{delay: time.Second}, time.Second).Send(ctx, digest)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSender_Drivers(t *testing.T) {
	s, err := NewSender(config.MailConfig{Driver: DriverLog}, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Send(context.Background(), digest))

	_, err = NewSender(config.MailConfig{Driver: DriverSendGrid, FromAddress: "a@b.c"}, nil)
	assert.Error(t, err)

	_, err = NewSender(config.MailConfig{Driver: "pigeon"}, nil)
	assert.Error(t, err)

	s, err = NewSender(config.MailConfig{
		Driver:      DriverSMTP,
		FromAddress: "noreply@example.edu",
		SendTimeout: time.Second,
		SMTP:        config.SMTPConfig{Host: "smtp.example.edu"},
	}, nil)
	require.NoError(t, err)
	_, wrapped := s.(*timeoutSender)
	assert.True(t, wrapped)
}
