package kafka

import (
	"context"

	"github.com/NordCoder/Sentinel/internal/domain/notification"
)

type AlertEvents interface {
	PublishStatusChanged(ctx context.Context, a notification.Alert) error
}
