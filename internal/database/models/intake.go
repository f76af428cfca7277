package models

import (
	"time"

	"github.com/google/uuid"
)

type ListingRole string

const (
	RoleLandlord ListingRole = "landlord"
	RoleTenant   ListingRole = "tenant"
)

// PropertyListing is a free-form classified ad from a landlord or tenant.
type PropertyListing struct {
	Base
	Name       string      `gorm:"size:100;not null" json:"name"`
	Contact    string      `gorm:"size:254;not null" json:"contact"`
	Role       ListingRole `gorm:"size:20;not null" json:"role"`
	Area       string      `gorm:"size:100" json:"area"`
	Rent       int64       `json:"rent"`
	HostelName string      `gorm:"size:100" json:"hostel_name,omitempty"`
	UserID     *uuid.UUID  `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Reply      string      `json:"reply,omitempty"`
	RepliedAt  *time.Time  `json:"replied_at,omitempty"`
}

func (PropertyListing) TableName() string {
	return "property_listings"
}

type InquirySubject string

const (
	SubjectHousingSearch    InquirySubject = "housing_search"
	SubjectBookingInquiry   InquirySubject = "booking_inquiry"
	SubjectPropertyListing  InquirySubject = "property_listing"
	SubjectTechnicalSupport InquirySubject = "technical_support"
	SubjectBilling          InquirySubject = "billing"
	SubjectFeedback         InquirySubject = "feedback"
	SubjectOther            InquirySubject = "other"
)

// ContactInquiry is append-only: created, listed and deleted, never edited.
type ContactInquiry struct {
	Base
	FirstName string         `gorm:"size:100;not null" json:"first_name"`
	LastName  string         `gorm:"size:100;not null" json:"last_name"`
	Email     string         `gorm:"size:254;not null" json:"email"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty"`
	Subject   InquirySubject `gorm:"size:50;not null" json:"subject"`
	Message   string         `gorm:"not null" json:"message"`
}

func (ContactInquiry) TableName() string {
	return "contact_inquiries"
}

// HostelInquiry is append-only, like ContactInquiry.
type HostelInquiry struct {
	Base
	HostelID uuid.UUID `gorm:"type:uuid;not null;index" json:"hostel_id"`
	FullName string    `gorm:"size:100;not null" json:"full_name"`
	Email    string    `gorm:"size:254;not null" json:"email"`
	Phone    string    `gorm:"size:20" json:"phone,omitempty"`
	Message  string    `gorm:"not null" json:"message"`

	Hostel *Hostel `gorm:"foreignKey:HostelID" json:"hostel,omitempty"`
}

func (HostelInquiry) TableName() string {
	return "hostel_inquiries"
}
