package domain

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifyPostApproved   NotificationType = "post_approved"
	NotifyPostEdited     NotificationType = "post_edited"
	NotifyPostDeleted    NotificationType = "post_deleted"
	NotifyPetFoundMatch  NotificationType = "pet_found_match"
	NotifyContactRequest NotificationType = "contact_request"
	NotifyAccountLocked  NotificationType = "account_locked"
	NotifyPasswordReset  NotificationType = "password_reset"
	NotifyEmailVerify    NotificationType = "email_verification"
	NotifyAdminAction    NotificationType = "admin_action"
	NotifyReportReceived NotificationType = "report_received"
	NotifyReportResolved NotificationType = "report_resolved"
)

type Notification struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	RecipientID     string            `gorm:"size:36;not null;index:idx_notifications_recipient,priority:1" json:"recipientId"`
	SenderID        *string           `gorm:"size:36" json:"senderId,omitempty"`
	Type            NotificationType  `gorm:"size:32;not null" json:"type"`
	Title           string            `gorm:"size:100;not null" json:"title"`
	Message         string            `gorm:"size:500;not null" json:"message"`
	RelatedPetID    *string           `gorm:"size:36" json:"relatedPetId,omitempty"`
	RelatedReportID *string           `gorm:"size:36" json:"relatedReportId,omitempty"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
	IsRead          bool              `gorm:"not null;index:idx_notifications_recipient,priority:2" json:"isRead"`
	ReadAt          *time.Time        `json:"readAt,omitempty"`
	IsEmailSent     bool              `gorm:"not null" json:"isEmailSent"`
	EmailSentAt     *time.Time        `json:"emailSentAt,omitempty"`
	ExpiresAt       time.Time         `gorm:"not null;index" json:"expiresAt"`
	CreatedAt       time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func (n *Notification) Expired(now time.Time) bool { return !n.ExpiresAt.After(now) }

func (n *Notification) MarkRead(at time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &at
}
