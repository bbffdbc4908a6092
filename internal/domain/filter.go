package domain

import "time"

// Page is a normalized 1-based page request.
type Page struct {
	Page  int
	Limit int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(p Page, total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// GeoQuery restricts results to points within RadiusKm of Center and
// orders them nearest first.
type GeoQuery struct {
	Center   GeoPoint
	RadiusKm float64
}

type PetFilter struct {
	OwnerID    string
	Status     PetStatus
	Type       PetType
	Gender     Gender
	Breed      string // case-insensitive substring
	Color      string // case-insensitive substring
	Search     string // name, breed or color substring
	DateFrom   *time.Time
	DateTo     *time.Time
	Near       *GeoQuery
	IsActive   *bool
	IsApproved *bool
}

type UserFilter struct {
	Role     Role
	IsActive *bool
	Search   string // name or email substring
}

type ReportFilter struct {
	ReporterID     string
	ReportedUserID string
	ReportedPetIDs []string
	// Involving matches reports filed by or about this user.
	Involving  string
	Statuses   []ReportStatus
	Type       ReportType
	Priorities []ReportPriority
	// ByPriority sorts urgent first, then newest; otherwise newest first.
	ByPriority bool
}

type NotificationFilter struct {
	RecipientID string
	IsRead      *bool
	// ActiveAt, when set, drops notifications expired at that instant.
	ActiveAt *time.Time
}

func Bool(b bool) *bool { return &b }
