package models

import (
	"strings"

	"github.com/google/uuid"
)

type HostelCategory string

const (
	CategorySingle     HostelCategory = "single"
	CategoryBedsitter  HostelCategory = "bedsitter"
	CategoryOneBedroom HostelCategory = "one_bedroom"
	CategoryTwoBedroom HostelCategory = "two_bedroom"
)

var categoryLabels = map[HostelCategory]string{
	CategorySingle:     "Single Room",
	CategoryBedsitter:  "Bedsitter",
	CategoryOneBedroom: "1 Bedroom",
	CategoryTwoBedroom: "2 Bedroom",
}

// Categories lists every category in display order.
func Categories() []HostelCategory {
	return []HostelCategory{CategorySingle, CategoryBedsitter, CategoryOneBedroom, CategoryTwoBedroom}
}

func (c HostelCategory) Label() string {
	return categoryLabels[c]
}

func (c HostelCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// CategoriesMatchingLabel returns the categories whose display label contains
// term, case-insensitively.
func CategoriesMatchingLabel(term string) []HostelCategory {
	term = strings.ToLower(term)
	var out []HostelCategory
	for _, c := range Categories() {
		if strings.Contains(strings.ToLower(c.Label()), term) {
			out = append(out, c)
		}
	}
	return out
}

type BillingCycle string

const (
	BillingMonthly   BillingCycle = "monthly"
	BillingTwoMonths BillingCycle = "two_months"
	BillingSemester  BillingCycle = "semester"
)

func (b BillingCycle) Valid() bool {
	switch b {
	case BillingMonthly, BillingTwoMonths, BillingSemester:
		return true
	}
	return false
}

// Months is the number of months one payment covers. A semester is billed
// as four months.
func (b BillingCycle) Months() int {
	switch b {
	case BillingTwoMonths:
		return 2
	case BillingSemester:
		return 4
	default:
		return 1
	}
}

type Amenity struct {
	Base
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `json:"description,omitempty"`
}

func (Amenity) TableName() string {
	return "amenities"
}

// Hostel is a housing listing. Average rating is never stored; it is
// computed from the hostel's reviews.
type Hostel struct {
	Base
	Name           string         `gorm:"size:100;not null" json:"name"`
	Slug           string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description    string         `json:"description"`
	Address        string         `gorm:"size:255;not null" json:"address"`
	Location       string         `gorm:"size:100;not null;index" json:"location"`
	Category       HostelCategory `gorm:"size:20;not null;index" json:"category"`
	Price          int64          `gorm:"not null" json:"price"`
	BillingCycle   BillingCycle   `gorm:"size:20;not null;default:'monthly'" json:"billing_cycle"`
	AvailableSlots int            `gorm:"not null;default:0" json:"available_slots"`
	Phone          string         `gorm:"size:20" json:"phone,omitempty"`

	Amenities []Amenity `gorm:"many2many:hostel_amenities" json:"amenities,omitempty"`
	Reviews   []Review  `gorm:"foreignKey:HostelID" json:"-"`
}

func (Hostel) TableName() string {
	return "hostels"
}

// MonthlyPrice normalises the price to a one-month rate.
func (h *Hostel) MonthlyPrice() float64 {
	return float64(h.Price) / float64(h.BillingCycle.Months())
}

type Review struct {
	Base
	HostelID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"hostel_id"`
	Rating       int        `gorm:"not null" json:"rating"`
	Comment      string     `gorm:"not null" json:"comment"`
	InvitationID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

type Favorite struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_hostel" json:"user_id"`
	HostelID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_hostel" json:"hostel_id"`

	Hostel *Hostel `gorm:"foreignKey:HostelID" json:"hostel,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}
