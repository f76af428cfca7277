package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/validation"
)

type RoommateInput struct {
	PlaceOfStay   string
	Rent          int64
	ContactNumber string
	IsActive      bool
}

func (s *Service) GetRoommate(ctx context.Context, userID uuid.UUID) (*models.RoommateProfile, error) {
	rp, err := s.store.GetRoommateProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("No roommate profile yet")
		}
		return nil, err
	}
	return rp, nil
}

// SaveRoommate creates or replaces the user's roommate listing.
func (s *Service) SaveRoommate(ctx context.Context, userID uuid.UUID, in RoommateInput) (*models.RoommateProfile, error) {
	place := strings.TrimSpace(in.PlaceOfStay)
	if ok, msg := validation.IsValidLocation(place); !ok {
		return nil, apperr.Validation("place_of_stay", msg)
	}
	if in.Rent < 0 {
		return nil, apperr.Validation("rent", "Rent cannot be negative")
	}
	phone := validation.NormalizePhone(in.ContactNumber)
	if !validation.IsValidPhone(phone) {
		return nil, apperr.Validation("contact_number", "Enter 10 to 15 digits, optionally starting with +")
	}

	rp := &models.RoommateProfile{
		UserID:        userID,
		PlaceOfStay:   place,
		Rent:          in.Rent,
		ContactNumber: phone,
		IsActive:      in.IsActive,
	}
	if err := s.store.SaveRoommateProfile(ctx, rp); err != nil {
		return nil, err
	}
	return rp, nil
}
