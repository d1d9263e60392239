package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/obs"
	"github.com/NordCoder/Sentinel/internal/obs/retry"
	"github.com/NordCoder/Sentinel/internal/repository/kafka"
	"go.uber.org/zap"
)

// kafka-init provisions the status-change topic before the monitor starts publishing to it.
func main() {
	cfgPath := flag.String("config", os.Getenv("SENTINEL_CONFIG"), "path to the YAML config")
	partitions := flag.Int("partitions", 1, "topic partitions")
	rf := flag.Int("rf", 1, "replication factor")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	l, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l = obs.Component(l, "kafka-init")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic := cfg.Notifier.Kafka.Topic
	err = retry.Do(ctx, retry.BootstrapPolicy("kafka.init", l), func(ctx context.Context) error {
		return kafka.EnsureTopic(ctx, cfg.Notifier.Kafka.Brokers, kafka.TopicSpec{
			Name:              topic,
			NumPartitions:     *partitions,
			ReplicationFactor: *rf,
			MaxWait:           30 * time.Second,
		}, l)
	})
	if err != nil {
		l.Fatal("ensure topic", zap.String("topic", topic), zap.Error(err))
	}
	l.Info("kafka-init ok", zap.String("topic", topic))
}
