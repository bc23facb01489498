package email

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para envio del codigo de login.
type Sender interface {
	SendLoginOTP(ctx context.Context, toEmail, username, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendLoginOTP(_ context.Context, _, _, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
