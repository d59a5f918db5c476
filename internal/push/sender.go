package push

import (
	"context"
	"errors"
)

// Sender define la interfaz para notificaciones push a un token de
// dispositivo.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _, _, _ string) error {
	if s.reason == "" {
		return errors.New("push sender disabled")
	}
	return errors.New(s.reason)
}
