// Package intake accepts messages from visitors: general contact forms,
// questions about a specific hostel and property listing adverts. Staff
// can list, reply to and delete them; submissions are never edited.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/validation"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Service struct {
	store store.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(s store.Store, log *slog.Logger) *Service {
	return &Service{store: s, log: log, now: func() time.Time { return time.Now().UTC() }}
}

type ContactInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
	Subject   string `json:"subject" validate:"required,oneof=housing_search booking_inquiry property_listing technical_support billing feedback other"`
	Message   string `json:"message" validate:"required,max=5000"`
}

func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*models.ContactInquiry, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = clean(in.Message)
	if errs := validation.Struct(in); len(errs) > 0 {
		return nil, apperr.Invalid(errs)
	}

	inq := &models.ContactInquiry{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Subject:   models.InquirySubject(in.Subject),
		Message:   in.Message,
	}
	if err := s.store.CreateContactInquiry(ctx, inq); err != nil {
		return nil, err
	}
	s.log.Info("contact inquiry received", "inquiry_id", inq.ID, "subject", inq.Subject)
	return inq, nil
}

type HostelInquiryInput struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Message  string `json:"message" validate:"required,max=5000"`
}

// SubmitHostelInquiry records a question about the hostel with the given
// slug.
func (s *Service) SubmitHostelInquiry(ctx context.Context, slug string, in HostelInquiryInput) (*models.HostelInquiry, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Phone = validation.NormalizePhone(in.Phone)
	in.Message = clean(in.Message)
	if errs := validation.Struct(in); len(errs) > 0 {
		return nil, apperr.Invalid(errs)
	}

	hostel, err := s.store.GetHostelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Hostel not found")
		}
		return nil, err
	}

	inq := &models.HostelInquiry{
		HostelID: hostel.ID,
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		Message:  in.Message,
	}
	if err := s.store.CreateHostelInquiry(ctx, inq); err != nil {
		return nil, err
	}
	inq.Hostel = hostel
	s.log.Info("hostel inquiry received", "inquiry_id", inq.ID, "hostel_id", hostel.ID)
	return inq, nil
}

type PropertyListingInput struct {
	Name       string `json:"name" validate:"required,max=100"`
	Contact    string `json:"contact" validate:"required,max=254"`
	Role       string `json:"role" validate:"required,oneof=landlord tenant"`
	Area       string `json:"area" validate:"omitempty,max=100"`
	Rent       int64  `json:"rent" validate:"gte=0"`
	HostelName string `json:"hostel_name" validate:"omitempty,max=100"`
}

// SubmitPropertyListing stores a classified advert. userID is nil for
// anonymous visitors.
func (s *Service) SubmitPropertyListing(ctx context.Context, userID *uuid.UUID, in PropertyListingInput) (*models.PropertyListing, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.Area = strings.TrimSpace(in.Area)
	in.HostelName = strings.TrimSpace(in.HostelName)
	if errs := validation.Struct(in); len(errs) > 0 {
		return nil, apperr.Invalid(errs)
	}
	if !validation.IsValidEmail(in.Contact) && !validation.IsValidPhone(in.Contact) {
		return nil, apperr.Validation("contact", "Enter an email address or phone number")
	}

	listing := &models.PropertyListing{
		Name:       in.Name,
		Contact:    in.Contact,
		Role:       models.ListingRole(in.Role),
		Area:       in.Area,
		Rent:       in.Rent,
		HostelName: in.HostelName,
		UserID:     userID,
	}
	if err := s.store.CreatePropertyListing(ctx, listing); err != nil {
		return nil, err
	}
	s.log.Info("property listing received", "listing_id", listing.ID, "role", listing.Role)
	return listing, nil
}

// ReplyToPropertyListing records the staff response to an advert.
func (s *Service) ReplyToPropertyListing(ctx context.Context, id uuid.UUID, reply string) (*models.PropertyListing, error) {
	reply = clean(reply)
	if reply == "" {
		return nil, apperr.Validation("reply", "This field is required")
	}
	if err := s.store.ReplyToPropertyListing(ctx, id, reply, s.now()); err != nil {
		return nil, notFound(err, "Property listing not found")
	}
	return s.store.GetPropertyListing(ctx, id)
}

// Page is one page of a staff listing.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func bounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func (s *Service) ListContacts(ctx context.Context, page, size int) (*Page[models.ContactInquiry], error) {
	page, size = bounds(page, size)
	items, total, err := s.store.ListContactInquiries(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return &Page[models.ContactInquiry]{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *Service) ListHostelInquiries(ctx context.Context, hostelID *uuid.UUID, page, size int) (*Page[models.HostelInquiry], error) {
	page, size = bounds(page, size)
	items, total, err := s.store.ListHostelInquiries(ctx, hostelID, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return &Page[models.HostelInquiry]{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *Service) ListPropertyListings(ctx context.Context, page, size int) (*Page[models.PropertyListing], error) {
	page, size = bounds(page, size)
	items, total, err := s.store.ListPropertyListings(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return &Page[models.PropertyListing]{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *Service) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return notFound(s.store.DeleteContactInquiry(ctx, id), "Inquiry not found")
}

func (s *Service) DeleteHostelInquiry(ctx context.Context, id uuid.UUID) error {
	return notFound(s.store.DeleteHostelInquiry(ctx, id), "Inquiry not found")
}

func (s *Service) DeletePropertyListing(ctx context.Context, id uuid.UUID) error {
	return notFound(s.store.DeletePropertyListing(ctx, id), "Property listing not found")
}

func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

func clean(s string) string {
	return strings.TrimSpace(validation.SanitizeString(s))
}
