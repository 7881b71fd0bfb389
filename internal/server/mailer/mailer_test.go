package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type activationData struct {
	Name string
	Link string
}

func TestRender_Activation(t *testing.T) {
	msg, err := Render("activation", activationData{
		Name: "Ann <admin>",
		Link: "http://localhost:3000/users/activation?token=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "Activate your account", msg.Subject)
	assert.Contains(t, msg.PlainBody, "Hi Ann <admin>,")
	assert.Contains(t, msg.PlainBody, "/users/activation?token=abc")
	assert.Contains(t, msg.HTMLBody, "Ann &lt;admin&gt;")
	assert.Contains(t, msg.HTMLBody, `href="http://localhost:3000/users/activation?token=abc"`)
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render("nope", nil)
	assert.Error(t, err)
}

type fakeDialer struct {
	mu   sync.Mutex
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := NewSMTPSender("localhost", 25, "", "", "noreply@example.com", logging.Nop{})
	s.dialer = d

	err := s.Send(context.Background(), "ann@example.com", "activation", activationData{Name: "Ann", Link: "L"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"ann@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"noreply@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"Activate your account"}, m.GetHeader("Subject"))

	var buf strings.Builder
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPSender_DialError(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "u", "p", "noreply@example.com", logging.Nop{})
	s.dialer = &fakeDialer{err: errors.New("connection refused")}

	err := s.Send(context.Background(), "ann@example.com", "activation", activationData{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	s := NewSMTPSender("localhost", 25, "", "", "noreply@example.com", logging.Nop{})
	s.dialer = d

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, "ann@example.com", "activation", activationData{}), context.Canceled)
	assert.Empty(t, d.sent)
}

func TestLogSender_Send(t *testing.T) {
	s := NewLogSender(logging.Nop{})
	assert.NoError(t, s.Send(context.Background(), "ann@example.com", "activation", activationData{Name: "Ann"}))
	assert.Error(t, s.Send(context.Background(), "ann@example.com", "missing", nil))
}
