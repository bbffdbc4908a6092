package domain

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleShelter Role = "shelter"
	RoleVet     Role = "vet"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleShelter, RoleVet:
		return true
	}
	return false
}

type Address struct {
	Street  string `gorm:"size:200" json:"street,omitempty"`
	City    string `gorm:"size:50" json:"city,omitempty"`
	State   string `gorm:"size:50" json:"state,omitempty"`
	ZipCode string `gorm:"size:10" json:"zipCode,omitempty"`
	Country string `gorm:"size:50" json:"country,omitempty"`
}

type User struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Name            string     `gorm:"size:50;not null" json:"name"`
	Email           string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash    string     `gorm:"size:191;not null" json:"-"`
	Phone           string     `gorm:"size:20" json:"phone"`
	Address         Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Role            Role       `gorm:"size:16;not null;index" json:"role"`
	IsEmailVerified bool       `gorm:"not null" json:"isEmailVerified"`
	IsActive        bool       `gorm:"not null;index" json:"isActive"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`

	EmailVerificationToken   string     `gorm:"size:64;index" json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`
	PasswordResetToken       string     `gorm:"size:64;index" json:"-"`
	PasswordResetExpires     *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Contact is the owner projection embedded in pet and report responses.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (u *User) Contact() *Contact {
	if u == nil {
		return nil
	}
	return &Contact{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}
