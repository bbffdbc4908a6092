package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger deletes expired notifications and returns how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type NotificationSweeper struct {
	purger   Purger
	interval time.Duration
	log      *zap.Logger
}

func NewNotificationSweeper(p Purger, interval time.Duration, log *zap.Logger) *NotificationSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &NotificationSweeper{purger: p, interval: interval, log: log}
}

func (s *NotificationSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	notificationsPurged.Add(float64(n))
	return n, nil
}

func (s *NotificationSweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("notification sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
