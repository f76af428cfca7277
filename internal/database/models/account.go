package models

import "github.com/google/uuid"

type User struct {
	Base
	Username     string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `gorm:"size:30" json:"first_name"`
	LastName     string `gorm:"size:30" json:"last_name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	IsStaff      bool   `gorm:"default:false" json:"is_staff"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can sign in with a password.
// Accounts provisioned from an identity provider start without one.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// EmailAddress tracks every address an account has proven or claimed.
// Exactly one row per user is Primary.
type EmailAddress struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_email_addresses_user_email" json:"user_id"`
	Email    string    `gorm:"size:254;not null;uniqueIndex:idx_email_addresses_user_email" json:"email"`
	Verified bool      `gorm:"not null" json:"verified"`
	Primary  bool      `gorm:"column:is_primary;not null" json:"primary"`
}

func (EmailAddress) TableName() string {
	return "email_addresses"
}

// SocialAccount links an identity provider subject to a local user.
type SocialAccount struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider string    `gorm:"size:30;not null;uniqueIndex:idx_social_accounts_subject" json:"provider"`
	Subject  string    `gorm:"size:255;not null;uniqueIndex:idx_social_accounts_subject" json:"subject"`
}

func (SocialAccount) TableName() string {
	return "social_accounts"
}

// Profile holds the mutable per-user attributes. Contact numbers are stored
// encrypted; the service layer decrypts them on read.
type Profile struct {
	Base
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Bio            string    `gorm:"size:500" json:"bio"`
	PhoneNumber    string    `json:"-"`
	WhatsAppNumber string    `gorm:"column:whatsapp_number" json:"-"`
	Location       string    `gorm:"size:100" json:"location"`
	AvatarKey      string    `json:"-"`
	AvatarURL      string    `json:"avatar_url"`
}

func (Profile) TableName() string {
	return "profiles"
}

type RoommateProfile struct {
	Base
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	PlaceOfStay   string    `gorm:"size:100" json:"place_of_stay"`
	Rent          int64     `json:"rent"`
	ContactNumber string    `gorm:"size:20" json:"contact_number"`
	IsActive      bool      `json:"is_active"`
}

func (RoommateProfile) TableName() string {
	return "roommate_profiles"
}
