package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// BootstrapPolicy is used while waiting for backing services (record store, kafka) at startup.
func BootstrapPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 250 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("bootstrap retry", zap.String("target", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil {
				log.Error("bootstrap retries exhausted", zap.String("target", name), zap.Error(err))
			}
		},
	}
}
