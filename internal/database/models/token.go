package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewInvitation grants one review of a hostel to whoever holds the token.
type ReviewInvitation struct {
	Base
	HostelID uuid.UUID  `gorm:"type:uuid;not null;index" json:"hostel_id"`
	FullName string     `gorm:"size:100" json:"full_name"`
	Email    string     `gorm:"size:254" json:"email,omitempty"`
	Phone    string     `gorm:"size:20" json:"phone,omitempty"`
	Token    string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Used     bool       `gorm:"not null;default:false" json:"used"`
	UsedAt   *time.Time `json:"used_at,omitempty"`
	Link     string     `json:"link"`

	Hostel *Hostel `gorm:"foreignKey:HostelID" json:"hostel,omitempty"`
}

func (ReviewInvitation) TableName() string {
	return "review_invitations"
}

// EmailChangeRequest holds a pending switch to NewEmail until the owner of
// that address follows the verification link.
type EmailChangeRequest struct {
	Base
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	NewEmail   string     `gorm:"size:254;not null" json:"new_email"`
	Token      string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	Verified   bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (EmailChangeRequest) TableName() string {
	return "email_change_requests"
}
