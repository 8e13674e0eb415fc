package email

import (
	"context"
	"errors"
	"fmt"
)

// Message is a single outgoing mail.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers mail out of band.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrDisabled is returned by DisabledSender.
var ErrDisabled = errors.New("email notifications are disabled")

// DeliveryError reports a failure of the external mail transport.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email delivery to %s failed: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// DisabledSender is used when email delivery is switched off.
type DisabledSender struct{}

// Send always reports ErrDisabled.
func (DisabledSender) Send(_ context.Context, msg Message) error {
	return &DeliveryError{To: msg.To, Err: ErrDisabled}
}
