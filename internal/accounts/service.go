// Package accounts provisions user accounts from password signups and from
// verified identity-provider claims.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/validation"
)

// maxProvisionAttempts bounds the re-probe loop when a concurrent signup
// claims the same handle between our probe and our insert.
const maxProvisionAttempts = 5

type Service struct {
	store store.Store
	log   *slog.Logger
}

func NewService(s store.Store, log *slog.Logger) *Service {
	return &Service{store: s, log: log}
}

type SignUpInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

func (in SignUpInput) validate() error {
	if !validation.IsValidEmail(in.Email) {
		return apperr.Validation("email", "Enter a valid email address")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return apperr.Validation("first_name", "First name is required")
	}
	if ok, msg := validation.IsValidName(in.FirstName); !ok {
		return apperr.Validation("first_name", msg)
	}
	if strings.TrimSpace(in.LastName) == "" {
		return apperr.Validation("last_name", "Last name is required")
	}
	if ok, msg := validation.IsValidName(in.LastName); !ok {
		return apperr.Validation("last_name", msg)
	}
	if ok, msg := validation.IsValidPassword(in.Password); !ok {
		return apperr.Validation("password", msg)
	}
	if in.PasswordConfirm != "" && in.PasswordConfirm != in.Password {
		return apperr.Validation("password_confirm", "Passwords do not match")
	}
	return nil
}

// SignUp creates a password account. The email starts unverified.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := in.validate(); err != nil {
		return nil, err
	}

	inUse, err := s.store.EmailInUse(ctx, in.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, emailTaken()
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	if err := s.provision(ctx, user, newAccountParts{emailVerified: false}); err != nil {
		return nil, err
	}

	s.log.Info("account created", "user_id", user.ID, "username", user.Username, "method", "password")
	return user, nil
}

// LoginWithClaims resolves verified identity claims to a local account,
// linking or creating one as needed.
func (s *Service) LoginWithClaims(ctx context.Context, claims *auth.VerifiedClaims) (*models.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, apperr.Validation("credential", "Identity token carries no subject")
	}
	if !claims.EmailVerified {
		return nil, apperr.Validation("email", "The identity provider has not verified this email address")
	}
	email := validation.NormalizeEmail(claims.Email)

	// Known subject: reuse.
	social, err := s.store.GetSocialAccount(ctx, claims.Provider, claims.Subject)
	switch {
	case err == nil:
		return s.activeUser(ctx, social.UserID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	// Known email: link the subject to it.
	existing, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		err := s.link(ctx, existing, claims, email)
		if errors.Is(err, store.ErrDuplicate) {
			// The subject was linked concurrently; sign in as its owner.
			social, lookupErr := s.store.GetSocialAccount(ctx, claims.Provider, claims.Subject)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return s.activeUser(ctx, social.UserID)
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("social account linked", "user_id", existing.ID, "provider", claims.Provider)
		return s.activeUser(ctx, existing.ID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	user := &models.User{
		Email:     email,
		FirstName: validation.TruncateString(claims.GivenName, validation.MaxNameLength),
		LastName:  validation.TruncateString(claims.FamilyName, validation.MaxNameLength),
		IsActive:  true,
	}
	parts := newAccountParts{
		emailVerified: true,
		social:        &models.SocialAccount{Provider: claims.Provider, Subject: claims.Subject},
	}
	if err := s.provision(ctx, user, parts); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			// Lost a race with another first login for the same subject.
			if social, lookupErr := s.store.GetSocialAccount(ctx, claims.Provider, claims.Subject); lookupErr == nil {
				return s.activeUser(ctx, social.UserID)
			}
		}
		return nil, err
	}
	s.log.Info("account created", "user_id", user.ID, "username", user.Username, "method", claims.Provider)

	s.propagateAvatar(ctx, user, claims.AvatarURL)
	return user, nil
}

func (s *Service) link(ctx context.Context, user *models.User, claims *auth.VerifiedClaims, email string) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		err := tx.CreateSocialAccount(ctx, &models.SocialAccount{
			UserID:   user.ID,
			Provider: claims.Provider,
			Subject:  claims.Subject,
		})
		if err != nil {
			return err
		}
		// The provider vouches for the address, so it becomes verified.
		return tx.SetPrimaryEmail(ctx, user.ID, email, true)
	})
}

// propagateAvatar copies the provider avatar into the profile. Failure is
// not worth failing a login over.
func (s *Service) propagateAvatar(ctx context.Context, user *models.User, url string) {
	if url == "" {
		return
	}
	if err := s.store.UpdateProfile(ctx, user.ID, map[string]interface{}{"avatar_url": url}); err != nil {
		s.log.Warn("failed to save provider avatar", "user_id", user.ID, "error", err)
		return
	}
	if user.Profile != nil {
		user.Profile.AvatarURL = url
	}
}

func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Precondition("This account has been deactivated")
	}
	return user, nil
}

type newAccountParts struct {
	emailVerified bool
	social        *models.SocialAccount
}

// provision inserts the user, its profile, its primary email and optional
// social link in one transaction. A handle collision at insert time means
// another signup won the probe race; the whole transaction is retried with
// a fresh probe.
func (s *Service) provision(ctx context.Context, user *models.User, parts newAccountParts) error {
	for attempt := 1; attempt <= maxProvisionAttempts; attempt++ {
		err := s.store.WithTx(ctx, func(tx store.Store) error {
			handle, err := GenerateHandle(ctx, tx, user.Email)
			if err != nil {
				return err
			}
			user.ID = uuid.Nil
			user.Username = handle

			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}

			profile := &models.Profile{UserID: user.ID}
			if err := tx.CreateProfile(ctx, profile); err != nil {
				return err
			}
			user.Profile = profile

			if err := tx.SetPrimaryEmail(ctx, user.ID, user.Email, parts.emailVerified); err != nil {
				return err
			}

			if parts.social != nil {
				parts.social.ID = uuid.Nil
				parts.social.UserID = user.ID
				if err := tx.CreateSocialAccount(ctx, parts.social); err != nil {
					return err
				}
			}
			return nil
		})

		switch {
		case err == nil:
			return nil
		case store.IsDuplicateOn(err, "username"):
			s.log.Debug("handle taken concurrently, retrying", "email", user.Email, "attempt", attempt)
			continue
		case store.IsDuplicateOn(err, "email"):
			return emailTaken()
		case store.IsDuplicateOn(err, "subject"):
			return apperr.Conflict("credential", "This identity is already linked to an account")
		default:
			return err
		}
	}
	return fmt.Errorf("provisioning account for %s: handle still taken after %d attempts", user.Email, maxProvisionAttempts)
}

// SetPrimaryEmail makes email the user's only primary address.
func (s *Service) SetPrimaryEmail(ctx context.Context, userID uuid.UUID, email string, verified bool) error {
	return s.store.SetPrimaryEmail(ctx, userID, validation.NormalizeEmail(email), verified)
}

// Deactivate disables sign-in without deleting anything.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	err := s.store.UpdateUser(ctx, userID, map[string]interface{}{"is_active": false})
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Account not found")
	}
	if err == nil {
		s.log.Info("account deactivated", "user_id", userID)
	}
	return err
}

// SetStaff grants or revokes access to the staff endpoints.
func (s *Service) SetStaff(ctx context.Context, userID uuid.UUID, staff bool) error {
	err := s.store.UpdateUser(ctx, userID, map[string]interface{}{"is_staff": staff})
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Account not found")
	}
	if err == nil {
		s.log.Info("staff flag changed", "user_id", userID, "is_staff", staff)
	}
	return err
}

// Delete removes the account and everything it owns.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	err := s.store.DeleteUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Account not found")
	}
	if err == nil {
		s.log.Info("account deleted", "user_id", userID)
	}
	return err
}

func emailTaken() error {
	return apperr.Conflict("email", "An account with this email already exists")
}
