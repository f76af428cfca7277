package dto

import "github.com/hugh/hostel-hunter/internal/profiles"

// ProfileUpdateRequest is applied as one batch; absent fields are left
// alone. Password fields are only considered when NewPassword is set.
type ProfileUpdateRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Bio             *string `json:"bio"`
	PhoneNumber     *string `json:"phone_number"`
	WhatsAppNumber  *string `json:"whatsapp_number"`
	Location        *string `json:"location"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
	ConfirmPassword string  `json:"confirm_password"`
}

func (r ProfileUpdateRequest) ToInput() profiles.UpdateInput {
	in := profiles.UpdateInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Bio:            r.Bio,
		PhoneNumber:    r.PhoneNumber,
		WhatsAppNumber: r.WhatsAppNumber,
		Location:       r.Location,
	}
	if r.NewPassword != "" || r.CurrentPassword != "" {
		in.Password = &profiles.PasswordChange{
			Current: r.CurrentPassword,
			New:     r.NewPassword,
			Confirm: r.ConfirmPassword,
		}
	}
	return in
}

type UsernameRequest struct {
	Username string `json:"username"`
}

type EmailChangeRequest struct {
	Email string `json:"email"`
}

type EmailChangeResponse struct {
	Message      string `json:"message"`
	PendingEmail string `json:"pending_email"`
	Warning      string `json:"warning,omitempty"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

type RoommateRequest struct {
	PlaceOfStay   string `json:"place_of_stay"`
	Rent          int64  `json:"rent"`
	ContactNumber string `json:"contact_number"`
	IsActive      bool   `json:"is_active"`
}

func (r RoommateRequest) ToInput() profiles.RoommateInput {
	return profiles.RoommateInput{
		PlaceOfStay:   r.PlaceOfStay,
		Rent:          r.Rent,
		ContactNumber: r.ContactNumber,
		IsActive:      r.IsActive,
	}
}

type ReplyRequest struct {
	Reply string `json:"reply"`
}
