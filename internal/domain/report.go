package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ReportType string

const (
	ReportUser          ReportType = "user"
	ReportPetPost       ReportType = "pet_post"
	ReportSpam          ReportType = "spam"
	ReportInappropriate ReportType = "inappropriate"
	ReportFake          ReportType = "fake"
	ReportDuplicate     ReportType = "duplicate"
	ReportOther         ReportType = "other"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportUser, ReportPetPost, ReportSpam, ReportInappropriate, ReportFake, ReportDuplicate, ReportOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportUnderReview ReportStatus = "under_review"
	ReportResolved    ReportStatus = "resolved"
	ReportDismissed   ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportUnderReview, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// Open reports still wait for an admin decision.
func (s ReportStatus) Open() bool { return s == ReportPending || s == ReportUnderReview }

type ReportPriority string

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
	PriorityUrgent ReportPriority = "urgent"
)

// Rank orders priorities for sorting; unknown values rank lowest.
func (p ReportPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p ReportPriority) Valid() bool { return p.Rank() > 0 }

type ReportAction string

const (
	ActionNone        ReportAction = "none"
	ActionWarnUser    ReportAction = "warn_user"
	ActionDeletePost  ReportAction = "delete_post"
	ActionDisableUser ReportAction = "disable_user"
	ActionBanUser     ReportAction = "ban_user"
	ActionOther       ReportAction = "other"
)

func (a ReportAction) Valid() bool {
	switch a {
	case ActionNone, ActionWarnUser, ActionDeletePost, ActionDisableUser, ActionBanUser, ActionOther:
		return true
	}
	return false
}

type Report struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id"`
	ReporterID     string                      `gorm:"size:36;not null;index" json:"reporterId"`
	Reporter       *User                       `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	ReportedUserID *string                     `gorm:"size:36;index" json:"reportedUserId,omitempty"`
	ReportedUser   *User                       `gorm:"foreignKey:ReportedUserID" json:"reportedUser,omitempty"`
	ReportedPetID  *string                     `gorm:"size:36;index" json:"reportedPetId,omitempty"`
	ReportedPet    *Pet                        `gorm:"foreignKey:ReportedPetID;constraint:OnDelete:SET NULL" json:"reportedPet,omitempty"`
	Type           ReportType                  `gorm:"size:16;not null;index" json:"type"`
	Reason         string                      `gorm:"size:500;not null" json:"reason"`
	Description    string                      `gorm:"size:1000" json:"description,omitempty"`
	Evidence       datatypes.JSONSlice[string] `json:"evidence"`
	Status         ReportStatus                `gorm:"size:16;not null;index" json:"status"`
	Priority       ReportPriority              `gorm:"size:8;not null;index" json:"priority"`
	ReviewedBy     *string                     `gorm:"size:36" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time                  `json:"reviewedAt,omitempty"`
	AdminNotes     string                      `gorm:"size:1000" json:"adminNotes,omitempty"`
	ActionTaken    ReportAction                `gorm:"size:16;not null" json:"actionTaken"`
	ActionTakenBy  *string                     `gorm:"size:36" json:"actionTakenBy,omitempty"`
	ActionTakenAt  *time.Time                  `json:"actionTakenAt,omitempty"`
	IsResolved     bool                        `gorm:"not null" json:"isResolved"`
	ResolvedAt     *time.Time                  `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		alias
		Reporter     *Contact `json:"reporter,omitempty"`
		ReportedUser *Contact `json:"reportedUser,omitempty"`
	}{alias: alias(r), Reporter: r.Reporter.Contact(), ReportedUser: r.ReportedUser.Contact()})
}

// ReportTarget is exactly one of a user or a pet post.
type ReportTarget struct {
	UserID string
	PetID  string
}
