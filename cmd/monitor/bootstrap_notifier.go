package main

import (
	"context"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/repository/kafka"
	"github.com/NordCoder/Sentinel/internal/services/notifier"
	"go.uber.org/zap"
)

func initNotifier(ctx context.Context, cfg config.Notifier, l *zap.Logger) (notification.Notifier, func(), error) {
	switch cfg.Kind {
	case config.NotifierTwilio:
		return notification.SMS{S: notifier.NewTwilio(cfg.Twilio, l)}, func() {}, nil
	case config.NotifierKafka:
		events, prod, err := kafka.BootstrapAlertEvents(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
		if err != nil {
			return nil, nil, err
		}
		return notifier.Events{E: events}, func() { _ = prod.Close() }, nil
	}
	return notifier.NewLog(l), func() {}, nil
}
