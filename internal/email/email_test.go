package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/require"
)

func TestRender_SelectsTemplateByKind(t *testing.T) {
	subject, body, err := Render("deadline_overdue", TemplateData{
		RecipientName: "Ana",
		Message:       `Task "Ship" is overdue by 2 days`,
		ItemKind:      "task",
		ItemTitle:     "Ship",
	})
	require.NoError(t, err)
	require.Equal(t, "URGENT: task overdue - Ship", subject)
	require.Contains(t, body, "Hello Ana")
	require.Contains(t, body, "overdue by 2 days")
}

func TestRender_FallsBackToGeneral(t *testing.T) {
	subject, body, err := Render("unknown_kind", TemplateData{Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, "Notification", subject)
	require.Contains(t, body, "Hello there")
}

func TestCompose(t *testing.T) {
	from, err := mail.ParseAddress("Tracker <tracker@example.com>")
	require.NoError(t, err)

	raw, err := Compose(from, Message{To: "ana@example.com", ToName: "Ana", Subject: "Hello", Body: "Body text"},
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	r, err := mail.CreateReader(strings.NewReader(string(raw)))
	require.NoError(t, err)
	subject, err := r.Header.Subject()
	require.NoError(t, err)
	require.Equal(t, "Hello", subject)
	to, err := r.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	require.Equal(t, "ana@example.com", to[0].Address)
}

func TestSMTPSender_WrapsFailures(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25, From: "tracker@example.com"}, nil)
	require.NoError(t, err)

	var gotTo []string
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		return nil
	}
	require.NoError(t, sender.Send(context.Background(), Message{To: "ana@example.com", Subject: "s", Body: "b"}))
	require.Equal(t, []string{"ana@example.com"}, gotTo)

	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err = sender.Send(context.Background(), Message{To: "ana@example.com", Subject: "s", Body: "b"})
	var delivery *DeliveryError
	require.ErrorAs(t, err, &delivery)
	require.Equal(t, "ana@example.com", delivery.To)
}

func TestSMTPSender_BreakerOpensAfterFailures(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25, From: "tracker@example.com", MaxFailures: 2, BreakerTimeout: time.Minute}, nil)
	require.NoError(t, err)

	calls := 0
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("boom")
	}
	msg := Message{To: "ana@example.com", Subject: "s", Body: "b"}
	for i := 0; i < 4; i++ {
		require.Error(t, sender.Send(context.Background(), msg))
	}
	// The second consecutive failure opens the breaker; later sends never dial.
	require.Equal(t, 2, calls)
}

func TestDisabledSender(t *testing.T) {
	err := DisabledSender{}.Send(context.Background(), Message{To: "x@example.com"})
	require.ErrorIs(t, err, ErrDisabled)
}
