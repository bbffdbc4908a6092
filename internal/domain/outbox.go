package domain

import (
	"time"

	"gorm.io/datatypes"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxDead    OutboxStatus = "dead"
)

// OutboxMessage is an email committed together with the change that
// caused it and delivered later by the dispatcher.
type OutboxMessage struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	Template       string            `gorm:"size:32;not null" json:"template"`
	Recipient      string            `gorm:"size:191;not null" json:"recipient"`
	Payload        datatypes.JSONMap `json:"payload"`
	NotificationID *string           `gorm:"size:36" json:"notificationId,omitempty"`
	Status         OutboxStatus      `gorm:"size:8;not null;index:idx_outbox_due,priority:1" json:"status"`
	Attempts       int               `gorm:"not null" json:"attempts"`
	NextAttemptAt  time.Time         `gorm:"not null;index:idx_outbox_due,priority:2" json:"nextAttemptAt"`
	LockedUntil    *time.Time        `json:"lockedUntil,omitempty"`
	LastError      string            `gorm:"size:1000" json:"lastError,omitempty"`
	SentAt         *time.Time        `json:"sentAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (OutboxMessage) TableName() string { return "outbox_messages" }
