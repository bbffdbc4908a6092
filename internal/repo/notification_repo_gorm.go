package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lostfound/internal/domain"
)

type NotificationRepo struct{ db *gorm.DB }

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r *NotificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r *NotificationRepo) Update(ctx context.Context, n *domain.Notification) error {
	return translate(r.db.WithContext(ctx).Save(n).Error)
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Notification{}))
}

func notificationScope(f domain.NotificationFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.RecipientID != "" {
			db = db.Where("recipient_id = ?", f.RecipientID)
		}
		if f.IsRead != nil {
			db = db.Where("is_read = ?", *f.IsRead)
		}
		if f.ActiveAt != nil {
			db = db.Where("expires_at > ?", *f.ActiveAt)
		}
		return db
	}
}

func (r *NotificationRepo) List(ctx context.Context, f domain.NotificationFilter, p domain.Page) ([]domain.Notification, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Notification{}).Scopes(notificationScope(f)).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var list []domain.Notification
	err := r.db.WithContext(ctx).Scopes(notificationScope(f)).
		Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID string, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ? AND expires_at > ?", recipientID, false, now).
		Count(&n).Error
	return n, translate(err)
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	return res.RowsAffected, translate(res.Error)
}

func (r *NotificationRepo) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_email_sent": true, "email_sent_at": at}).Error)
}

func (r *NotificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Notification{})
	return res.RowsAffected, translate(res.Error)
}
