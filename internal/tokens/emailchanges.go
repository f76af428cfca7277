package tokens

import (
	"context"
	"errors"
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

// EmailChangeTTL is how long a verification link stays usable.
const EmailChangeTTL = 24 * time.Hour

type EmailChanges struct {
	store   store.Store
	mailer  Deliverer
	baseURL string
	log     *slog.Logger
	now     func() time.Time
}

func NewEmailChanges(s store.Store, mailer Deliverer, baseURL string, log *slog.Logger) *EmailChanges {
	return &EmailChanges{
		store:   s,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type RequestResult struct {
	Request *models.EmailChangeRequest
	// Warning is set when the request was saved but the email was not sent.
	Warning string
}

type VerifyResult struct {
	AlreadyHandled bool
	UserID         uuid.UUID
	NewEmail       string
}

func (s *EmailChanges) Link(token string) string {
	return s.baseURL + "/account/email/verify/" + token
}

// Request starts an email change. Any earlier unverified request of the
// user is discarded in the same transaction.
func (s *EmailChanges) Request(ctx context.Context, userID uuid.UUID, newEmail string) (*RequestResult, error) {
	email := validation.NormalizeEmail(newEmail)
	if !validation.IsValidEmail(email) {
		return nil, apperr.Validation("email", "Enter a valid email address")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, err
	}
	if email == user.Email {
		return nil, apperr.Validation("email", "This is already your email address")
	}

	inUse, err := s.store.EmailInUse(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, apperr.Conflict("email", "This email address is already in use")
	}

	var req *models.EmailChangeRequest
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := NewToken()
		if err != nil {
			return nil, err
		}
		now := s.now()
		req = &models.EmailChangeRequest{
			UserID:    userID,
			NewEmail:  email,
			Token:     token,
			ExpiresAt: now.Add(EmailChangeTTL),
		}

		var purged int64
		err = s.store.WithTx(ctx, func(tx store.Store) error {
			n, err := tx.DeleteUnverifiedEmailChanges(ctx, userID)
			if err != nil {
				return err
			}
			purged = n
			return tx.CreateEmailChange(ctx, req)
		})
		if err == nil {
			s.log.Info("email change requested", "user_id", userID, "superseded", purged)
			break
		}
		if store.IsDuplicateOn(err, "token") && attempt < maxTokenAttempts {
			continue
		}
		return nil, err
	}

	result := &RequestResult{Request: req}
	err = s.mailer.Deliver(ctx, mail.KindEmailChange, email, mail.Data{
		Recipient: user.FirstName,
		Link:      s.Link(req.Token),
		Expiry:    req.ExpiresAt,
	})
	if err != nil {
		s.log.Warn("email change verification not sent", "user_id", userID, "error", err)
		result.Warning = "Your request was saved, but we could not send the verification email. Try again later."
	}
	return result, nil
}

// Verify consumes the token and moves the account to the new address.
// Uniqueness is checked again because time has passed since Request.
func (s *EmailChanges) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	if token == "" {
		return nil, apperr.NotFound("Verification link not found")
	}
	req, err := s.store.GetEmailChangeByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Verification link not found")
		}
		return nil, err
	}

	result := &VerifyResult{UserID: req.UserID, NewEmail: req.NewEmail}
	now := s.now()

	switch StateOf(req.Verified, &req.ExpiresAt, now) {
	case StateConsumed:
		result.AlreadyHandled = true
		return result, nil
	case StateExpired:
		return nil, apperr.Expired("This verification link has expired. Request a new email change.")
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		ok, err := tx.MarkEmailChangeVerified(ctx, req.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			result.AlreadyHandled = true
			return nil
		}

		inUse, err := tx.EmailInUse(ctx, req.NewEmail, req.UserID)
		if err != nil {
			return err
		}
		if inUse {
			return apperr.Conflict("email", "This email address was taken by another account")
		}

		if err := tx.UpdateUser(ctx, req.UserID, map[string]interface{}{"email": req.NewEmail}); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("email", "This email address was taken by another account")
			}
			return err
		}
		if err := tx.SetPrimaryEmail(ctx, req.UserID, req.NewEmail, true); err != nil {
			return err
		}
		if err := tx.DeleteEmailAddressesExcept(ctx, req.UserID, req.NewEmail); err != nil {
			return err
		}
		_, err = tx.DeleteEmailChangesExcept(ctx, req.UserID, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyHandled {
		s.log.Info("email changed", "user_id", req.UserID)
	}
	return result, nil
}

// Pending lists the user's open requests, newest first.
func (s *EmailChanges) Pending(ctx context.Context, userID uuid.UUID) ([]models.EmailChangeRequest, error) {
	return s.store.ListPendingEmailChanges(ctx, userID)
}

// PurgeExpired deletes unverified requests past their expiry.
func (s *EmailChanges) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeExpiredEmailChanges(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("purged expired email change requests", "count", n)
	}
	return n, nil
}
