package domain

import (
	"context"
	"time"
)

// Repositories return ErrNotFound for missing rows and ErrDuplicate for
// unique key violations.

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByVerificationToken(ctx context.Context, token string, now time.Time) (*User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, f UserFilter, p Page) ([]User, int64, error)
	Count(ctx context.Context, f UserFilter) (int64, error)
	Recent(ctx context.Context, n int) ([]User, error)
}

type PetRepository interface {
	Create(ctx context.Context, p *Pet) error
	// FindByID loads the pet with its owner, active or not.
	FindByID(ctx context.Context, id string) (*Pet, error)
	Update(ctx context.Context, p *Pet) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f PetFilter, p Page) ([]Pet, int64, error)
	Count(ctx context.Context, f PetFilter) (int64, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementContacts(ctx context.Context, id string) error
	DeactivateByOwner(ctx context.Context, ownerID string) (int64, error)
	Recent(ctx context.Context, n int) ([]Pet, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	FindByID(ctx context.Context, id string) (*Report, error)
	Update(ctx context.Context, r *Report) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ReportFilter, p Page) ([]Report, int64, error)
	Count(ctx context.Context, f ReportFilter) (int64, error)
	// ExistsSince reports whether reporterID filed against target after since.
	ExistsSince(ctx context.Context, reporterID string, target ReportTarget, since time.Time) (bool, error)
	Recent(ctx context.Context, n int) ([]Report, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id string) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f NotificationFilter, p Page) ([]Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string, now time.Time) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error)
	MarkEmailSent(ctx context.Context, id string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, m *OutboxMessage) error
	// ClaimDue leases up to limit pending messages whose attempt time has
	// come, so concurrent dispatchers never pick the same row.
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string, dead bool) error
}

// Store is the unit of work handed to services. Repositories obtained from
// the Store passed into WithinTx share that transaction.
type Store interface {
	Users() UserRepository
	Pets() PetRepository
	Reports() ReportRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
