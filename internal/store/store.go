// Package store is the persistence boundary. Services depend on the Store
// interface; GormStore implements it on top of gorm so the same code runs
// against Postgres in production and SQLite in tests.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// DuplicateError reports a unique-constraint violation. Detail is the
// driver's message, which names the violated index or column.
type DuplicateError struct {
	Detail string
	Err    error
}

func (e *DuplicateError) Error() string {
	return "duplicate key: " + e.Detail
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// On reports whether the violated constraint involves column.
func (e *DuplicateError) On(column string) bool {
	return strings.Contains(strings.ToLower(e.Detail), strings.ToLower(column))
}

// IsDuplicateOn reports whether err is a unique violation on column.
func IsDuplicateOn(err error, column string) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.On(column)
}

type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string, exclude uuid.UUID) (bool, error)
	EmailInUse(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	SetPrimaryEmail(ctx context.Context, userID uuid.UUID, email string, verified bool) error
	DeleteEmailAddressesExcept(ctx context.Context, userID uuid.UUID, keep string) error
	ListEmailAddresses(ctx context.Context, userID uuid.UUID) ([]models.EmailAddress, error)

	GetSocialAccount(ctx context.Context, provider, subject string) (*models.SocialAccount, error)
	CreateSocialAccount(ctx context.Context, account *models.SocialAccount) error
}

type Profiles interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error

	GetRoommateProfile(ctx context.Context, userID uuid.UUID) (*models.RoommateProfile, error)
	SaveRoommateProfile(ctx context.Context, profile *models.RoommateProfile) error
}

type Hostels interface {
	CreateHostel(ctx context.Context, hostel *models.Hostel) error
	GetHostel(ctx context.Context, id uuid.UUID) (*models.Hostel, error)
	GetHostelBySlug(ctx context.Context, slug string) (*models.Hostel, error)
	UpdateHostel(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteHostel(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	SearchHostels(ctx context.Context, q HostelQuery) ([]models.Hostel, int64, error)
	SetHostelAmenities(ctx context.Context, hostel *models.Hostel, names []string) error

	// DecrementSlots takes one slot if any is left. It reports false, without
	// error, when the hostel has no capacity.
	DecrementSlots(ctx context.Context, hostelID uuid.UUID) (bool, error)

	CreateReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Review, error)
	AverageRatings(ctx context.Context, hostelIDs []uuid.UUID) (map[uuid.UUID]float64, error)

	AddFavorite(ctx context.Context, userID, hostelID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, hostelID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Hostel, error)
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv *models.ReviewInvitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.ReviewInvitation, error)
	// MarkInvitationUsed flips used from false to true. It reports false when
	// another request got there first.
	MarkInvitationUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListInvitations(ctx context.Context, hostelID *uuid.UUID, offset, limit int) ([]models.ReviewInvitation, int64, error)
}

type EmailChanges interface {
	CreateEmailChange(ctx context.Context, req *models.EmailChangeRequest) error
	GetEmailChangeByToken(ctx context.Context, token string) (*models.EmailChangeRequest, error)
	ListPendingEmailChanges(ctx context.Context, userID uuid.UUID) ([]models.EmailChangeRequest, error)
	DeleteUnverifiedEmailChanges(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteEmailChangesExcept(ctx context.Context, userID, keep uuid.UUID) (int64, error)
	// MarkEmailChangeVerified flips verified from false to true. It reports
	// false when the request was already verified.
	MarkEmailChangeVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	PurgeExpiredEmailChanges(ctx context.Context, now time.Time) (int64, error)
}

type Intake interface {
	CreateContactInquiry(ctx context.Context, inq *models.ContactInquiry) error
	ListContactInquiries(ctx context.Context, offset, limit int) ([]models.ContactInquiry, int64, error)
	DeleteContactInquiry(ctx context.Context, id uuid.UUID) error

	CreateHostelInquiry(ctx context.Context, inq *models.HostelInquiry) error
	ListHostelInquiries(ctx context.Context, hostelID *uuid.UUID, offset, limit int) ([]models.HostelInquiry, int64, error)
	DeleteHostelInquiry(ctx context.Context, id uuid.UUID) error

	CreatePropertyListing(ctx context.Context, listing *models.PropertyListing) error
	GetPropertyListing(ctx context.Context, id uuid.UUID) (*models.PropertyListing, error)
	ListPropertyListings(ctx context.Context, offset, limit int) ([]models.PropertyListing, int64, error)
	ReplyToPropertyListing(ctx context.Context, id uuid.UUID, reply string, at time.Time) error
	DeletePropertyListing(ctx context.Context, id uuid.UUID) error
}

// Store is the full persistence API. WithTx runs fn inside one database
// transaction; everything fn does through tx commits or rolls back together.
type Store interface {
	Users
	Profiles
	Hostels
	Invitations
	EmailChanges
	Intake

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// DB exposes the underlying handle for health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return &DuplicateError{Detail: err.Error(), Err: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// Postgres: SQLSTATE 23505; SQLite: "UNIQUE constraint failed".
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// likePattern builds a case-insensitive substring pattern for use with
// "LOWER(col) LIKE ? ESCAPE '\'".
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
