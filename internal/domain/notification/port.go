package notification

import "context"

// Sender delivers a short text to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// Notifier is what the engine calls when an alert is warranted.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// SMS adapts a Sender into a Notifier.
type SMS struct{ S Sender }

func (n SMS) Notify(ctx context.Context, a Alert) error {
	return n.S.Send(ctx, a.Phone, a.Message())
}
