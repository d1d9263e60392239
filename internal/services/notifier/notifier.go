package notifier

import (
	"context"

	"github.com/NordCoder/Sentinel/internal/domain/kafka"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/obs"
	"go.uber.org/zap"
)

// Log only records alerts. Useful locally where no SMS account exists.
type Log struct {
	log *zap.Logger
}

func NewLog(l *zap.Logger) *Log { return &Log{log: obs.Component(l, "notifier.log")} }

func (n *Log) Notify(ctx context.Context, a notification.Alert) error {
	obs.WithTrace(ctx, n.log).Warn("check state changed",
		zap.String("check_id", a.CheckID),
		zap.String("previous", string(a.Previous)),
		zap.String("state", string(a.State)),
		zap.String("message", a.Message()),
	)
	return nil
}

// Events hands alerts to the status-change topic for downstream delivery.
type Events struct {
	E kafka.AlertEvents
}

func (n Events) Notify(ctx context.Context, a notification.Alert) error {
	return n.E.PublishStatusChanged(ctx, a)
}

var (
	_ notification.Notifier = (*Log)(nil)
	_ notification.Notifier = Events{}
	_ notification.Notifier = notification.SMS{}
)
