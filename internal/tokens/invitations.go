package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/mail"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/validation"
)

type Invitations struct {
	store   store.Store
	mailer  Deliverer
	baseURL string
	log     *slog.Logger
	now     func() time.Time
}

func NewInvitations(s store.Store, mailer Deliverer, baseURL string, log *slog.Logger) *Invitations {
	return &Invitations{
		store:   s,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateInvitationInput struct {
	HostelID uuid.UUID
	FullName string
	Email    string
	Phone    string
}

type CreateInvitationResult struct {
	Invitation *models.ReviewInvitation
	// Warning is set when the invitation exists but its email was not sent.
	Warning string
}

type InvitationView struct {
	Invitation *models.ReviewInvitation
	Hostel     *models.Hostel
	State      State
}

type SubmitResult struct {
	AlreadyHandled bool
	Review         *models.Review
}

// Link is the absolute review URL for token.
func (s *Invitations) Link(token string) string {
	return s.baseURL + "/reviews/" + token
}

// Create takes one slot from the hostel and issues an invitation for it.
// Both happen in one transaction; a hostel without slots is refused.
func (s *Invitations) Create(ctx context.Context, in CreateInvitationInput) (*CreateInvitationResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Phone = validation.NormalizePhone(in.Phone)

	if in.FullName == "" {
		return nil, apperr.Validation("full_name", "Full name is required")
	}
	if in.Email != "" && !validation.IsValidEmail(in.Email) {
		return nil, apperr.Validation("email", "Enter a valid email address")
	}
	if !validation.IsValidPhone(in.Phone) {
		return nil, apperr.Validation("phone", "Enter a valid phone number")
	}

	hostel, err := s.store.GetHostel(ctx, in.HostelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Hostel not found")
		}
		return nil, err
	}

	var inv *models.ReviewInvitation
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := NewToken()
		if err != nil {
			return nil, err
		}
		inv = &models.ReviewInvitation{
			HostelID: hostel.ID,
			FullName: in.FullName,
			Email:    in.Email,
			Phone:    in.Phone,
			Token:    token,
			Link:     s.Link(token),
		}

		err = s.store.WithTx(ctx, func(tx store.Store) error {
			ok, err := tx.DecrementSlots(ctx, hostel.ID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Precondition(fmt.Sprintf("Cannot create invitation: %s has no available slots", hostel.Name))
			}
			return tx.CreateInvitation(ctx, inv)
		})
		if err == nil {
			break
		}
		if store.IsDuplicateOn(err, "token") && attempt < maxTokenAttempts {
			continue
		}
		return nil, err
	}

	s.log.Info("review invitation created", "invitation_id", inv.ID, "hostel_id", hostel.ID)
	inv.Hostel = hostel

	result := &CreateInvitationResult{Invitation: inv}
	if inv.Email != "" {
		err := s.mailer.Deliver(ctx, mail.KindReviewInvitation, inv.Email, mail.Data{
			Recipient:  inv.FullName,
			Link:       inv.Link,
			HostelName: hostel.Name,
		})
		if err != nil {
			s.log.Warn("review invitation email not sent", "invitation_id", inv.ID, "error", err)
			result.Warning = "Invitation created, but the email could not be sent. Share the link manually."
		}
	}
	return result, nil
}

func (s *Invitations) Lookup(ctx context.Context, token string) (*InvitationView, error) {
	inv, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &InvitationView{
		Invitation: inv,
		Hostel:     inv.Hostel,
		State:      StateOf(inv.Used, nil, s.now()),
	}, nil
}

// Submit records the review and consumes the invitation. A second submit on
// the same token reports AlreadyHandled and writes nothing.
func (s *Invitations) Submit(ctx context.Context, token string, rating int, comment string) (*SubmitResult, error) {
	inv, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Used {
		return &SubmitResult{AlreadyHandled: true}, nil
	}

	comment = strings.TrimSpace(validation.SanitizeString(comment))
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("rating", "Rating must be between 1 and 5")
	}
	if comment == "" {
		return nil, apperr.Validation("comment", "Comment is required")
	}

	result := &SubmitResult{}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		ok, err := tx.MarkInvitationUsed(ctx, inv.ID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			result.AlreadyHandled = true
			return nil
		}

		invID := inv.ID
		review := &models.Review{
			HostelID:     inv.HostelID,
			Rating:       rating,
			Comment:      comment,
			InvitationID: &invID,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		result.Review = review
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Review != nil {
		s.log.Info("review submitted", "invitation_id", inv.ID, "hostel_id", inv.HostelID, "rating", rating)
	}
	return result, nil
}

func (s *Invitations) List(ctx context.Context, hostelID *uuid.UUID, offset, limit int) ([]models.ReviewInvitation, int64, error) {
	return s.store.ListInvitations(ctx, hostelID, offset, limit)
}

func (s *Invitations) byToken(ctx context.Context, token string) (*models.ReviewInvitation, error) {
	if token == "" {
		return nil, apperr.NotFound("Invitation not found")
	}
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Invitation not found")
		}
		return nil, err
	}
	return inv, nil
}
