// Package catalog manages hostel listings: creation with unique slugs,
// faceted search, ratings, favourites and side-by-side comparison.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/validation"
)

const (
	maxSlugAttempts = 5
	detailReviews   = 20
	maxNameLength   = 100
	maxAddress      = 255
)

type Service struct {
	store store.Store
	log   *slog.Logger
}

func NewService(s store.Store, log *slog.Logger) *Service {
	return &Service{store: s, log: log}
}

// HostelSummary is a hostel together with its derived rating.
type HostelSummary struct {
	models.Hostel
	AverageRating float64 `json:"average_rating"`
}

type HostelDetail struct {
	HostelSummary
	Reviews []models.Review `json:"reviews"`
}

type HostelInput struct {
	Name           string
	Description    string
	Address        string
	Location       string
	Category       models.HostelCategory
	Price          int64
	BillingCycle   models.BillingCycle
	AvailableSlots int
	Phone          string
	Amenities      []string
}

func (in *HostelInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.Phone = validation.NormalizePhone(in.Phone)
	if in.BillingCycle == "" {
		in.BillingCycle = models.BillingMonthly
	}
}

func (in HostelInput) validate() error {
	switch {
	case in.Name == "":
		return apperr.Validation("name", "Name is required")
	case len(in.Name) > maxNameLength:
		return apperr.Validation("name", fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	case in.Address == "":
		return apperr.Validation("address", "Address is required")
	case len(in.Address) > maxAddress:
		return apperr.Validation("address", fmt.Sprintf("Address must be at most %d characters", maxAddress))
	case in.Location == "":
		return apperr.Validation("location", "Location is required")
	}
	if ok, msg := validation.IsValidLocation(in.Location); !ok {
		return apperr.Validation("location", msg)
	}
	switch {
	case !in.Category.Valid():
		return apperr.Validation("category", "Choose a valid category")
	case !in.BillingCycle.Valid():
		return apperr.Validation("billing_cycle", "Choose a valid billing cycle")
	case in.Price < 0:
		return apperr.Validation("price", "Price cannot be negative")
	case in.AvailableSlots < 0:
		return apperr.Validation("available_slots", "Available slots cannot be negative")
	case !validation.IsValidPhone(in.Phone):
		return apperr.Validation("phone", "Enter a valid phone number")
	}
	return nil
}

// CreateHostel stores a new listing under the first free slug derived from
// its name and location.
func (s *Service) CreateHostel(ctx context.Context, in HostelInput) (*models.Hostel, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	base := Slugify(in.Name, in.Location)

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug, err := GenerateSlug(ctx, s.store, base)
		if err != nil {
			return nil, err
		}
		hostel := &models.Hostel{
			Name:           in.Name,
			Slug:           slug,
			Description:    in.Description,
			Address:        in.Address,
			Location:       in.Location,
			Category:       in.Category,
			Price:          in.Price,
			BillingCycle:   in.BillingCycle,
			AvailableSlots: in.AvailableSlots,
			Phone:          in.Phone,
		}
		err = s.store.WithTx(ctx, func(tx store.Store) error {
			if err := tx.CreateHostel(ctx, hostel); err != nil {
				return err
			}
			if len(in.Amenities) == 0 {
				return nil
			}
			return tx.SetHostelAmenities(ctx, hostel, in.Amenities)
		})
		if err == nil {
			s.log.Info("hostel created", "hostel_id", hostel.ID, "slug", hostel.Slug)
			return hostel, nil
		}
		if !store.IsDuplicateOn(err, "slug") {
			return nil, err
		}
		s.log.Debug("slug taken concurrently, retrying", "slug", slug, "attempt", attempt)
	}
	return nil, apperr.Conflict("slug", "Could not allocate a unique slug, try again")
}

// HostelUpdate carries the fields to change; nil fields are left alone.
// The slug is stable across renames so shared links keep working.
type HostelUpdate struct {
	Name           *string
	Description    *string
	Address        *string
	Location       *string
	Category       *models.HostelCategory
	Price          *int64
	BillingCycle   *models.BillingCycle
	AvailableSlots *int
	Phone          *string
	Amenities      *[]string
}

func (s *Service) UpdateHostel(ctx context.Context, slug string, upd HostelUpdate) (*models.Hostel, error) {
	hostel, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	in := HostelInput{
		Name:           deref(upd.Name, hostel.Name),
		Description:    deref(upd.Description, hostel.Description),
		Address:        deref(upd.Address, hostel.Address),
		Location:       deref(upd.Location, hostel.Location),
		Category:       deref(upd.Category, hostel.Category),
		Price:          deref(upd.Price, hostel.Price),
		BillingCycle:   deref(upd.BillingCycle, hostel.BillingCycle),
		AvailableSlots: deref(upd.AvailableSlots, hostel.AvailableSlots),
		Phone:          deref(upd.Phone, hostel.Phone),
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"name":            in.Name,
		"description":     in.Description,
		"address":         in.Address,
		"location":        in.Location,
		"category":        in.Category,
		"price":           in.Price,
		"billing_cycle":   in.BillingCycle,
		"available_slots": in.AvailableSlots,
		"phone":           in.Phone,
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.UpdateHostel(ctx, hostel.ID, fields); err != nil {
			return err
		}
		if upd.Amenities == nil {
			return nil
		}
		return tx.SetHostelAmenities(ctx, hostel, *upd.Amenities)
	})
	if err != nil {
		return nil, err
	}
	return s.getBySlug(ctx, slug)
}

func (s *Service) DeleteHostel(ctx context.Context, slug string) error {
	hostel, err := s.getBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.DeleteHostel(ctx, hostel.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return hostelNotFound()
		}
		return err
	}
	s.log.Info("hostel deleted", "hostel_id", hostel.ID, "slug", slug)
	return nil
}

// GetBySlug returns the listing with its rating and most recent reviews.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*HostelDetail, error) {
	hostel, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	avg, err := s.AverageRating(ctx, hostel.ID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.ListReviews(ctx, hostel.ID, detailReviews)
	if err != nil {
		return nil, err
	}
	return &HostelDetail{
		HostelSummary: HostelSummary{Hostel: *hostel, AverageRating: avg},
		Reviews:       reviews,
	}, nil
}

// AverageRating is the mean review rating, or 0 for an unreviewed hostel.
func (s *Service) AverageRating(ctx context.Context, hostelID uuid.UUID) (float64, error) {
	ratings, err := s.store.AverageRatings(ctx, []uuid.UUID{hostelID})
	if err != nil {
		return 0, err
	}
	return ratings[hostelID], nil
}

func (s *Service) summarize(ctx context.Context, hostels []models.Hostel) ([]HostelSummary, error) {
	ids := make([]uuid.UUID, len(hostels))
	for i := range hostels {
		ids[i] = hostels[i].ID
	}
	ratings, err := s.store.AverageRatings(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]HostelSummary, len(hostels))
	for i, h := range hostels {
		out[i] = HostelSummary{Hostel: h, AverageRating: ratings[h.ID]}
	}
	return out, nil
}

// ToggleFavorite adds the hostel to the user's favourites, or removes it if
// it is already there. It reports whether the hostel is now a favourite.
func (s *Service) ToggleFavorite(ctx context.Context, userID uuid.UUID, slug string) (bool, error) {
	hostel, err := s.getBySlug(ctx, slug)
	if err != nil {
		return false, err
	}
	removed, err := s.store.RemoveFavorite(ctx, userID, hostel.ID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if err := s.store.AddFavorite(ctx, userID, hostel.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) ListFavorites(ctx context.Context, userID uuid.UUID) ([]HostelSummary, error) {
	hostels, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, hostels)
}

func (s *Service) getBySlug(ctx context.Context, slug string) (*models.Hostel, error) {
	hostel, err := s.store.GetHostelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, hostelNotFound()
		}
		return nil, err
	}
	return hostel, nil
}

func hostelNotFound() error {
	return apperr.NotFound("Hostel not found")
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
