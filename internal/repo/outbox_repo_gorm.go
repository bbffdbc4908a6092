package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lostfound/internal/domain"
)

type OutboxRepo struct{ db *gorm.DB }

func (r *OutboxRepo) Enqueue(ctx context.Context, m *domain.OutboxMessage) error {
	if m.Status == "" {
		m.Status = domain.OutboxPending
	}
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// ClaimDue selects due rows with SKIP LOCKED and stamps a lease on them in
// one transaction. A row whose lease ran out is due again.
func (r *OutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	var msgs []domain.OutboxMessage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", domain.OutboxPending, now).
			Where("(locked_until IS NULL OR locked_until < ?)", now).
			Order("next_attempt_at").
			Limit(limit).
			Find(&msgs).Error
		if err != nil || len(msgs) == 0 {
			return err
		}
		ids := make([]string, len(msgs))
		for i := range msgs {
			ids[i] = msgs[i].ID
		}
		until := now.Add(lease)
		if err := tx.Model(&domain.OutboxMessage{}).Where("id IN ?", ids).
			Update("locked_until", until).Error; err != nil {
			return err
		}
		for i := range msgs {
			msgs[i].LockedUntil = &until
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return msgs, nil
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	return affected(r.db.WithContext(ctx).Model(&domain.OutboxMessage{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":       domain.OutboxSent,
			"sent_at":      at,
			"locked_until": nil,
			"last_error":   "",
		}))
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string, dead bool) error {
	status := domain.OutboxPending
	if dead {
		status = domain.OutboxDead
	}
	if len(lastErr) > 1000 {
		lastErr = lastErr[:1000]
	}
	return affected(r.db.WithContext(ctx).Model(&domain.OutboxMessage{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":          status,
			"attempts":        attempts,
			"next_attempt_at": next,
			"locked_until":    nil,
			"last_error":      lastErr,
		}))
}
