package service

import (
	"context"
	"time"

	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
)

// Notice is one domain event addressed to a user. When Email is set the
// matching email is queued in the outbox next to the notification row.
type Notice struct {
	Recipient *domain.User
	SenderID  string
	Type      domain.NotificationType
	Title     string
	Message   string
	PetID     string
	ReportID  string
	Metadata  map[string]any
	Email     mail.Template
	EmailData map[string]any
}

// Notifier writes notifications and outbox rows through whatever Store it
// is handed, so callers decide whether that happens inside their
// transaction.
type Notifier struct {
	TTL time.Duration
	Now Clock
}

func NewNotifier(ttl time.Duration) *Notifier {
	return &Notifier{TTL: ttl, Now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, s domain.Store, no Notice) (*domain.Notification, error) {
	now := n.Now()
	rec := &domain.Notification{
		ID:              newID(),
		RecipientID:     no.Recipient.ID,
		SenderID:        strPtr(no.SenderID),
		Type:            no.Type,
		Title:           no.Title,
		Message:         no.Message,
		RelatedPetID:    strPtr(no.PetID),
		RelatedReportID: strPtr(no.ReportID),
		Metadata:        no.Metadata,
		ExpiresAt:       now.Add(n.TTL),
		CreatedAt:       now,
	}
	if err := s.Notifications().Create(ctx, rec); err != nil {
		return nil, err
	}
	if no.Email != "" {
		if err := n.enqueue(ctx, s, no.Recipient.Email, no.Email, no.EmailData, &rec.ID); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Mail queues an email that has no in-app notification.
func (n *Notifier) Mail(ctx context.Context, s domain.Store, to string, name mail.Template, data map[string]any) error {
	return n.enqueue(ctx, s, to, name, data, nil)
}

func (n *Notifier) enqueue(ctx context.Context, s domain.Store, to string, name mail.Template, data map[string]any, notificationID *string) error {
	now := n.Now()
	return s.Outbox().Enqueue(ctx, &domain.OutboxMessage{
		ID:             newID(),
		Template:       string(name),
		Recipient:      to,
		Payload:        data,
		NotificationID: notificationID,
		Status:         domain.OutboxPending,
		NextAttemptAt:  now,
		CreatedAt:      now,
	})
}
