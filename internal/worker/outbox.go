// Package worker runs the background loops of the API process: email
// delivery from the outbox and cleanup of expired notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lostfound/internal/core/config"
	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
)

const (
	baseBackoff = 30 * time.Second
	maxBackoff  = time.Hour
)

type Mailer interface {
	Send(ctx context.Context, to string, name mail.Template, data map[string]any) error
	Known(name mail.Template) bool
}

// OutboxDispatcher delivers queued emails. Several dispatchers may run
// against one database; each message is leased to one of them at a time.
type OutboxDispatcher struct {
	store       domain.Store
	mailer      Mailer
	log         *zap.Logger
	now         func() time.Time
	batch       int
	maxAttempts int
	lease       time.Duration
	interval    time.Duration
}

func NewOutboxDispatcher(store domain.Store, mailer Mailer, c config.Outbox, log *zap.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		store:       store,
		mailer:      mailer,
		log:         log,
		now:         time.Now,
		batch:       max(1, c.BatchSize),
		maxAttempts: max(1, c.MaxAttempts),
		lease:       time.Duration(max(1, c.LeaseSec)) * time.Second,
		interval:    time.Duration(max(1, c.PollIntervalSec)) * time.Second,
	}
}

// Backoff is the wait before retry number attempts (1-based).
func Backoff(attempts int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempts && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

var errUnknownTemplate = errors.New("unknown email template")

// RunOnce claims one batch and tries each message once. It returns how
// many were sent.
func (d *OutboxDispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now()
	msgs, err := d.store.Outbox().ClaimDue(ctx, now, d.batch, d.lease)
	if err != nil {
		return 0, fmt.Errorf("claim outbox: %w", err)
	}
	sent := 0
	for _, m := range msgs {
		if ctx.Err() != nil {
			break
		}
		if d.deliver(ctx, m) {
			sent++
		}
	}
	return sent, nil
}

func (d *OutboxDispatcher) deliver(ctx context.Context, m domain.OutboxMessage) bool {
	name := mail.Template(m.Template)
	var err error
	if d.mailer.Known(name) {
		err = d.mailer.Send(ctx, m.Recipient, name, m.Payload)
	} else {
		err = errUnknownTemplate
	}

	now := d.now()
	if err == nil {
		if e := d.store.Outbox().MarkSent(ctx, m.ID, now); e != nil {
			d.log.Error("outbox mark sent failed", zap.String("id", m.ID), zap.Error(e))
		}
		if m.NotificationID != nil {
			if e := d.store.Notifications().MarkEmailSent(ctx, *m.NotificationID, now); e != nil && !errors.Is(e, domain.ErrNotFound) {
				d.log.Warn("notification mark sent failed", zap.String("id", *m.NotificationID), zap.Error(e))
			}
		}
		outboxProcessed.WithLabelValues(m.Template, "sent").Inc()
		return true
	}

	attempts := m.Attempts + 1
	dead := attempts >= d.maxAttempts || errors.Is(err, errUnknownTemplate)
	next := now.Add(Backoff(attempts))
	if e := d.store.Outbox().MarkFailed(ctx, m.ID, attempts, next, truncate(err.Error(), 1000), dead); e != nil {
		d.log.Error("outbox mark failed failed", zap.String("id", m.ID), zap.Error(e))
	}
	result := "retry"
	if dead {
		result = "dead"
	}
	outboxProcessed.WithLabelValues(m.Template, result).Inc()
	d.log.Warn("outbox delivery failed",
		zap.String("id", m.ID),
		zap.String("template", m.Template),
		zap.Int("attempts", attempts),
		zap.Bool("dead", dead),
		zap.Error(err),
	)
	return false
}

// Run polls until ctx is done. A full batch is followed immediately by
// another poll.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		n, err := d.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			d.log.Error("outbox poll failed", zap.Error(err))
		}
		if err == nil && n == d.batch {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
