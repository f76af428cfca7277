package dto

import (
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database/models"
)

type HostelRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Address        string   `json:"address"`
	Location       string   `json:"location"`
	Category       string   `json:"category"`
	Price          int64    `json:"price"`
	BillingCycle   string   `json:"billing_cycle"`
	AvailableSlots int      `json:"available_slots"`
	Phone          string   `json:"phone"`
	Amenities      []string `json:"amenities"`
}

func (r HostelRequest) ToInput() catalog.HostelInput {
	return catalog.HostelInput{
		Name:           r.Name,
		Description:    r.Description,
		Address:        r.Address,
		Location:       r.Location,
		Category:       models.HostelCategory(r.Category),
		Price:          r.Price,
		BillingCycle:   models.BillingCycle(r.BillingCycle),
		AvailableSlots: r.AvailableSlots,
		Phone:          r.Phone,
		Amenities:      r.Amenities,
	}
}

// HostelPatchRequest changes only the fields that are present.
type HostelPatchRequest struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Address        *string   `json:"address"`
	Location       *string   `json:"location"`
	Category       *string   `json:"category"`
	Price          *int64    `json:"price"`
	BillingCycle   *string   `json:"billing_cycle"`
	AvailableSlots *int      `json:"available_slots"`
	Phone          *string   `json:"phone"`
	Amenities      *[]string `json:"amenities"`
}

func (r HostelPatchRequest) ToUpdate() catalog.HostelUpdate {
	upd := catalog.HostelUpdate{
		Name:           r.Name,
		Description:    r.Description,
		Address:        r.Address,
		Location:       r.Location,
		Price:          r.Price,
		AvailableSlots: r.AvailableSlots,
		Phone:          r.Phone,
		Amenities:      r.Amenities,
	}
	if r.Category != nil {
		c := models.HostelCategory(*r.Category)
		upd.Category = &c
	}
	if r.BillingCycle != nil {
		b := models.BillingCycle(*r.BillingCycle)
		upd.BillingCycle = &b
	}
	return upd
}

type InvitationRequest struct {
	HostelSlug string `json:"hostel"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type InvitationResponse struct {
	Invitation *models.ReviewInvitation `json:"invitation"`
	Warning    string                   `json:"warning,omitempty"`
}

type FavoriteResponse struct {
	Slug      string `json:"slug"`
	Favorited bool   `json:"favorited"`
}
