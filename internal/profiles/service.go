// Package profiles owns the editable parts of an account: names, bio,
// contact numbers, location, password, handle, email and avatar.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/avatars"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/hugh/hostel-hunter/internal/validation"
	"github.com/hugh/hostel-hunter/pkg/crypto"
)

// EmailChanger starts the verified email-change flow.
type EmailChanger interface {
	Request(ctx context.Context, userID uuid.UUID, newEmail string) (*tokens.RequestResult, error)
}

type Service struct {
	store          store.Store
	emails         EmailChanger
	avatars        avatars.Store
	cipher         *crypto.Cipher
	maxAvatarBytes int64
	log            *slog.Logger
	now            func() time.Time
}

type Options struct {
	Emails         EmailChanger
	Avatars        avatars.Store // nil disables uploads
	Cipher         *crypto.Cipher
	MaxAvatarBytes int64
}

func NewService(s store.Store, opts Options, log *slog.Logger) *Service {
	if opts.MaxAvatarBytes <= 0 {
		opts.MaxAvatarBytes = DefaultMaxAvatarBytes
	}
	return &Service{
		store:          s,
		emails:         opts.Emails,
		avatars:        opts.Avatars,
		cipher:         opts.Cipher,
		maxAvatarBytes: opts.MaxAvatarBytes,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// View is the account as its owner sees it, with contact numbers decrypted.
type View struct {
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PendingEmail   string    `json:"pending_email,omitempty"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Bio            string    `json:"bio"`
	PhoneNumber    string    `json:"phone_number"`
	WhatsAppNumber string    `json:"whatsapp_number"`
	Location       string    `json:"location"`
	AvatarURL      string    `json:"avatar_url"`
	HasPassword    bool      `json:"has_password"`
	IsStaff        bool      `json:"is_staff"`
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, err
	}

	v := &View{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		HasPassword: user.HasPassword(),
		IsStaff:     user.IsStaff,
	}
	if p := user.Profile; p != nil {
		v.Bio = p.Bio
		v.Location = p.Location
		v.AvatarURL = p.AvatarURL
		if v.PhoneNumber, err = s.open(p.PhoneNumber); err != nil {
			return nil, fmt.Errorf("opening phone number: %w", err)
		}
		if v.WhatsAppNumber, err = s.open(p.WhatsAppNumber); err != nil {
			return nil, fmt.Errorf("opening whatsapp number: %w", err)
		}
	}

	pending, err := s.store.ListPendingEmailChanges(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, req := range pending {
		if req.ExpiresAt.After(now) {
			v.PendingEmail = req.NewEmail
			break
		}
	}
	return v, nil
}

// PasswordChange sets a new password. Current is required only when the
// account already has one.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// UpdateInput is a batch of profile edits; nil fields are left unchanged.
type UpdateInput struct {
	FirstName      *string
	LastName       *string
	Bio            *string
	PhoneNumber    *string
	WhatsAppNumber *string
	Location       *string
	Password       *PasswordChange
}

// Update validates every field present in the batch and applies them all
// in one transaction. The first invalid field aborts the whole batch.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*View, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, err
	}

	userFields := map[string]interface{}{}
	profileFields := map[string]interface{}{}

	// name
	for _, f := range []struct {
		field, column string
		value         *string
	}{
		{"first_name", "first_name", in.FirstName},
		{"last_name", "last_name", in.LastName},
	} {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if ok, msg := validation.IsValidName(v); !ok {
			return nil, apperr.Validation(f.field, msg)
		}
		userFields[f.column] = v
	}

	// bio
	if in.Bio != nil {
		v := strings.TrimSpace(validation.SanitizeString(*in.Bio))
		if utf8.RuneCountInString(v) > validation.MaxBioLength {
			return nil, apperr.Validation("bio", fmt.Sprintf("Must be at most %d characters", validation.MaxBioLength))
		}
		profileFields["bio"] = v
	}

	// contact
	for _, f := range []struct {
		field, column string
		value         *string
	}{
		{"phone_number", "phone_number", in.PhoneNumber},
		{"whatsapp_number", "whatsapp_number", in.WhatsAppNumber},
	} {
		if f.value == nil {
			continue
		}
		v := validation.NormalizePhone(*f.value)
		if !validation.IsValidPhone(v) {
			return nil, apperr.Validation(f.field, "Enter 10 to 15 digits, optionally starting with +")
		}
		sealed, err := s.seal(v)
		if err != nil {
			return nil, fmt.Errorf("sealing %s: %w", f.field, err)
		}
		profileFields[f.column] = sealed
	}

	// location
	if in.Location != nil {
		v := strings.TrimSpace(*in.Location)
		if ok, msg := validation.IsValidLocation(v); !ok {
			return nil, apperr.Validation("location", msg)
		}
		profileFields["location"] = v
	}

	// password
	if pw := in.Password; pw != nil {
		if user.HasPassword() && !auth.CheckPassword(pw.Current, user.PasswordHash) {
			return nil, apperr.Validation("current_password", "Current password is incorrect")
		}
		if ok, msg := validation.IsValidPassword(pw.New); !ok {
			return nil, apperr.Validation("new_password", msg)
		}
		if pw.New != pw.Confirm {
			return nil, apperr.Validation("confirm_password", "Passwords do not match")
		}
		hash, err := auth.HashPassword(pw.New)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		userFields["password_hash"] = hash
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if len(userFields) > 0 {
			if err := tx.UpdateUser(ctx, userID, userFields); err != nil {
				return err
			}
		}
		if len(profileFields) == 0 {
			return nil
		}
		err := tx.UpdateProfile(ctx, userID, profileFields)
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.CreateProfile(ctx, &models.Profile{UserID: userID}); err != nil {
			return err
		}
		return tx.UpdateProfile(ctx, userID, profileFields)
	})
	if err != nil {
		return nil, err
	}

	if _, ok := userFields["password_hash"]; ok {
		s.log.Info("password changed", "user_id", userID)
	}
	return s.Get(ctx, userID)
}

// ChangeUsername sets a new handle. Uniqueness ignores the caller's own row
// so re-saving the current handle is a no-op.
func (s *Service) ChangeUsername(ctx context.Context, userID uuid.UUID, username string) error {
	username = strings.TrimSpace(username)
	if !validation.IsValidUsername(username) {
		return apperr.Validation("username", "Use 3 to 150 letters, digits or @ . + - _")
	}

	taken, err := s.store.UsernameExists(ctx, username, userID)
	if err != nil {
		return err
	}
	if taken {
		return usernameTaken()
	}

	if err := s.store.UpdateUser(ctx, userID, map[string]interface{}{"username": username}); err != nil {
		switch {
		case store.IsDuplicateOn(err, "username"):
			return usernameTaken()
		case errors.Is(err, store.ErrNotFound):
			return apperr.NotFound("Account not found")
		}
		return err
	}
	return nil
}

func usernameTaken() error {
	return apperr.Conflict("username", "This username is already taken")
}

// ChangeEmail never edits the address directly; the new address must be
// verified through the emailed link first.
func (s *Service) ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*tokens.RequestResult, error) {
	return s.emails.Request(ctx, userID, newEmail)
}

func (s *Service) seal(v string) (string, error) {
	if s.cipher == nil {
		return v, nil
	}
	return s.cipher.Seal(v)
}

func (s *Service) open(v string) (string, error) {
	if s.cipher == nil {
		return v, nil
	}
	return s.cipher.Open(v)
}
