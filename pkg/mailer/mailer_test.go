package mailer

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestMailer(t *testing.T, sendErr error) (*Mailer, *capturedMail) {
	t.Helper()
	got := &capturedMail{}
	m, err := New(Config{Host: "smtp.test", Port: "2525", User: "u", Pass: "p", Sender: "noreply@vyap.app"},
		func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			got.addr, got.from, got.to, got.msg = addr, from, to, string(msg)
			return sendErr
		})
	require.NoError(t, err)
	return m, got
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Host: "h", Port: "1", Sender: "s"}, nil)
	assert.Error(t, err)
	_, err = New(Config{Host: "h", Port: "1", User: "u", Pass: "p"}, nil)
	assert.Error(t, err)
}

func TestSendWelcome(t *testing.T) {
	m, got := newTestMailer(t, nil)

	require.NoError(t, m.SendWelcome("asha@example.com", WelcomeData{Name: "Asha", ShopName: "Asha Store", Goal: "Faster billing"}))

	assert.Equal(t, "smtp.test:2525", got.addr)
	assert.Equal(t, "noreply@vyap.app", got.from)
	assert.Equal(t, []string{"asha@example.com"}, got.to)
	assert.Contains(t, got.msg, "Subject: Welcome to Vyap")
	assert.Contains(t, got.msg, "Content-Type: text/html")
	assert.Contains(t, got.msg, "Asha Store is all set up")
	assert.Contains(t, got.msg, "Faster billing")
}

func TestSendEmailErrors(t *testing.T) {
	m, _ := newTestMailer(t, errors.New("relay down"))
	assert.ErrorContains(t, m.SendEmail("", "s", "b"), "recipient")
	assert.ErrorContains(t, m.SendEmail("a@b.c", "s", "plain"), "relay down")
}

func TestRenderWelcomeWithoutDetails(t *testing.T) {
	_, body, err := RenderWelcome(WelcomeData{})
	require.NoError(t, err)
	assert.Contains(t, body, "Hi there,")
	assert.Contains(t, body, "Your shop is all set up")
}
