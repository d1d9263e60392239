package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Sentinel/internal/domain/kafka"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// AlertEventsKafka publishes check status transitions, keyed by check id.
type AlertEventsKafka struct {
	p *Producer
}

func NewAlertEventsKafka(p *Producer) *AlertEventsKafka { return &AlertEventsKafka{p: p} }

var _ kafka.AlertEvents = (*AlertEventsKafka)(nil)

func (e *AlertEventsKafka) PublishStatusChanged(ctx context.Context, a notification.Alert) error {
	payload, err := structpb.NewStruct(map[string]any{
		"check_id":   a.CheckID,
		"phone":      a.Phone,
		"method":     string(a.Method),
		"target":     a.Target,
		"old_status": string(a.Previous),
		"new_status": string(a.State),
		"message":    a.Message(),
		"ts":         a.At.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("build status event: %w", err)
	}
	return e.p.PublishProto(ctx, []byte(a.CheckID), payload)
}

// DecodeStatusChanged reads back a payload written by PublishStatusChanged.
func DecodeStatusChanged(value []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("decode status event: %w", err)
	}
	return s.AsMap(), nil
}
