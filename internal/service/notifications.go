package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lostfound/internal/core/errs"
	"lostfound/internal/domain"
)

type NotificationQuery struct {
	IsRead *bool `form:"isRead"`
	Page   int   `form:"page" binding:"omitempty,min=1"`
	Limit  int   `form:"limit" binding:"omitempty,min=1,max=100"`
}

type NotificationPage struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    domain.Pagination     `json:"pagination"`
	UnreadCount   int64                 `json:"unreadCount"`
}

type NotificationService struct {
	store domain.Store
	log   *zap.Logger
	now   Clock
}

func NewNotificationService(store domain.Store, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, log: log, now: time.Now}
}

// List returns the caller's unexpired notifications, newest first.
func (s *NotificationService) List(ctx context.Context, caller *domain.User, q NotificationQuery) (*NotificationPage, error) {
	now := s.now()
	p := domain.NewPage(q.Page, q.Limit)
	ns, total, err := s.store.Notifications().List(ctx, domain.NotificationFilter{
		RecipientID: caller.ID,
		IsRead:      q.IsRead,
		ActiveAt:    &now,
	}, p)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.Notifications().CountUnread(ctx, caller.ID, now)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		ns = []domain.Notification{}
	}
	return &NotificationPage{Notifications: ns, Pagination: domain.NewPagination(p, total), UnreadCount: unread}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, caller *domain.User) (int64, error) {
	return s.store.Notifications().CountUnread(ctx, caller.ID, s.now())
}

// mine loads a notification addressed to caller. Someone else's
// notification is reported as missing.
func (s *NotificationService) mine(ctx context.Context, caller *domain.User, id string) (*domain.Notification, error) {
	n, err := s.store.Notifications().FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "Notification not found")
	}
	if n.RecipientID != caller.ID {
		return nil, errs.NotFound("Notification not found")
	}
	return n, nil
}

// Get returns the notification even past its expiry and marks it read.
func (s *NotificationService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Notification, error) {
	return s.MarkRead(ctx, caller, id)
}

func (s *NotificationService) MarkRead(ctx context.Context, caller *domain.User, id string) (*domain.Notification, error) {
	n, err := s.mine(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	n.MarkRead(s.now())
	if err := s.store.Notifications().Update(ctx, n); err != nil {
		return nil, missing(err, "Notification not found")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller *domain.User) (int64, error) {
	return s.store.Notifications().MarkAllRead(ctx, caller.ID, s.now())
}

func (s *NotificationService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if _, err := s.mine(ctx, caller, id); err != nil {
		return err
	}
	return missing(s.store.Notifications().Delete(ctx, id), "Notification not found")
}

// PurgeExpired hard deletes every notification past its expiry.
func (s *NotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.Notifications().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired notifications purged", zap.Int64("count", n))
	}
	return n, nil
}
