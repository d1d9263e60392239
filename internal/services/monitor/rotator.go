package monitor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/domain/run"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type RotateStats struct {
	Rotated int `json:"rotated"`
	Failed  int `json:"failed"`
}

// Rotator archives every live log as <id>-<unix ms> and empties it. A log whose
// archive could not be written stays untouched and is picked up again next time.
type Rotator struct {
	Logs  run.LogStore
	Clock notification.Clock

	log *zap.Logger
	m   *metrics
}

func ArchiveID(logID string, ms int64) string {
	return logID + "-" + strconv.FormatInt(ms, 10)
}

func (r *Rotator) Rotate(ctx context.Context) (RotateStats, error) {
	var stats RotateStats
	ids, err := r.Logs.ListLive(ctx)
	if err != nil {
		r.m.rotations.WithLabelValues("error").Inc()
		return stats, fmt.Errorf("%w: list logs: %w", ErrRotate, err)
	}

	var errs error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, multierr.Append(errs, err)
		}
		archive := ArchiveID(id, r.Clock.Now().UnixMilli())

		if err := r.Logs.Compress(ctx, id, archive); err != nil {
			stats.Failed++
			r.m.rotations.WithLabelValues("error").Inc()
			r.log.Warn("compress failed, live log kept", zap.String("log_id", id), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%w %s: %w", ErrRotate, id, err))
			continue
		}
		if err := r.Logs.Truncate(ctx, id); err != nil {
			stats.Failed++
			r.m.rotations.WithLabelValues("error").Inc()
			r.log.Warn("truncate failed", zap.String("log_id", id), zap.String("archive", archive), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%w %s: %w", ErrRotate, id, err))
			continue
		}
		stats.Rotated++
		r.m.rotations.WithLabelValues("ok").Inc()
		r.log.Debug("log rotated", zap.String("log_id", id), zap.String("archive", archive))
	}
	return stats, errs
}
