package accounts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (*accounts.Service, *store.GormStore, *gorm.DB) {
	t.Helper()
	s, db := testutil.SetupTestStore(t)
	return accounts.NewService(s, quietLogger()), s, db
}

func signUpInput(email string) accounts.SignUpInput {
	return accounts.SignUpInput{
		Email:     email,
		Password:  "Password1",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestBaseHandle(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "janedoe"},
		{"jane_doe@example.com", "jane_doe"},
		{"j+tag@example.com", "jtag"},
		{"...@example.com", "user"},
		{"noatsign", "noatsign"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, accounts.BaseHandle(tt.email))
		})
	}
}

func TestSignUp_SequentialHandles(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := testutil.TestContext(t)

	emails := []string{"sam@one.com", "sam@two.com", "sam@three.com", "s.a.m@four.com"}
	want := []string{"sam", "sam1", "sam2", "sam3"}

	for i, email := range emails {
		user, err := svc.SignUp(ctx, signUpInput(email))
		require.NoError(t, err)
		assert.Equal(t, want[i], user.Username)
	}
}

func TestSignUp_CreatesProfileAndUnverifiedPrimaryEmail(t *testing.T) {
	svc, s, db := setup(t)
	ctx := testutil.TestContext(t)

	user, err := svc.SignUp(ctx, signUpInput("  Jane@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.True(t, user.HasPassword())
	assert.True(t, auth.CheckPassword("Password1", user.PasswordHash))

	profile, err := s.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)

	addrs, err := s.ListEmailAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].Primary)
	assert.False(t, addrs[0].Verified)

	var count int64
	db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSignUp_Validation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := testutil.TestContext(t)

	tests := []struct {
		name  string
		mut   func(*accounts.SignUpInput)
		field string
	}{
		{"bad email", func(in *accounts.SignUpInput) { in.Email = "nope" }, "email"},
		{"bad first name", func(in *accounts.SignUpInput) { in.FirstName = "J4ne" }, "first_name"},
		{"missing last name", func(in *accounts.SignUpInput) { in.LastName = " " }, "last_name"},
		{"weak password", func(in *accounts.SignUpInput) { in.Password = "password" }, "password"},
		{"confirm mismatch", func(in *accounts.SignUpInput) { in.PasswordConfirm = "Password2" }, "password_confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := signUpInput("x@example.com")
			tt.mut(&in)
			_, err := svc.SignUp(ctx, in)
			require.ErrorIs(t, err, apperr.ErrValidation)
			e, _ := apperr.As(err)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := testutil.TestContext(t)

	_, err := svc.SignUp(ctx, signUpInput("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, signUpInput("DUP@example.com"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

// racyStore pretends a handle is free for the first n probes, as if another
// signup claimed it between the availability check and the insert.
type racyStore struct {
	store.Store
	lies *int
}

func (r racyStore) UsernameExists(ctx context.Context, username string, exclude uuid.UUID) (bool, error) {
	if *r.lies > 0 {
		*r.lies--
		return false, nil
	}
	return r.Store.UsernameExists(ctx, username, exclude)
}

func (r racyStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return r.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(racyStore{Store: tx, lies: r.lies})
	})
}

func TestSignUp_RetriesOnHandleRace(t *testing.T) {
	s, _ := testutil.SetupTestStore(t)
	ctx := testutil.TestContext(t)

	first, err := accounts.NewService(s, quietLogger()).SignUp(ctx, signUpInput("kim@a.com"))
	require.NoError(t, err)
	require.Equal(t, "kim", first.Username)

	lies := 1
	svc := accounts.NewService(racyStore{Store: s, lies: &lies}, quietLogger())

	second, err := svc.SignUp(ctx, signUpInput("kim@b.com"))
	require.NoError(t, err)
	assert.Equal(t, "kim1", second.Username)
	assert.Equal(t, 0, lies)
}

func TestSignUp_GivesUpAfterRepeatedRaces(t *testing.T) {
	s, _ := testutil.SetupTestStore(t)
	ctx := testutil.TestContext(t)

	_, err := accounts.NewService(s, quietLogger()).SignUp(ctx, signUpInput("lee@a.com"))
	require.NoError(t, err)

	lies := 100
	svc := accounts.NewService(racyStore{Store: s, lies: &lies}, quietLogger())

	_, err = svc.SignUp(ctx, signUpInput("lee@b.com"))
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))
}

func googleClaims(subject, email string) *auth.VerifiedClaims {
	return &auth.VerifiedClaims{
		Provider:      auth.ProviderGoogle,
		Subject:       subject,
		Email:         email,
		EmailVerified: true,
		GivenName:     "Ada",
		FamilyName:    "Lovelace",
		AvatarURL:     "https://lh3.googleusercontent.com/a/ada",
		Issuer:        "https://accounts.google.com",
	}
}

func TestLoginWithClaims_CreatesAccount(t *testing.T) {
	svc, s, _ := setup(t)
	ctx := testutil.TestContext(t)

	user, err := svc.LoginWithClaims(ctx, googleClaims("sub-1", "ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "Ada", user.FirstName)
	assert.False(t, user.HasPassword())

	addrs, err := s.ListEmailAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].Verified)
	assert.True(t, addrs[0].Primary)

	profile, err := s.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/ada", profile.AvatarURL)
}

func TestLoginWithClaims_ReusesBySubject(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := testutil.TestContext(t)

	first, err := svc.LoginWithClaims(ctx, googleClaims("sub-1", "ada@example.com"))
	require.NoError(t, err)

	// Same subject, changed email at the provider.
	again, err := svc.LoginWithClaims(ctx, googleClaims("sub-1", "ada@new.example.com"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestLoginWithClaims_LinksByEmail(t *testing.T) {
	svc, s, _ := setup(t)
	ctx := testutil.TestContext(t)

	existing, err := svc.SignUp(ctx, signUpInput("grace@example.com"))
	require.NoError(t, err)

	user, err := svc.LoginWithClaims(ctx, googleClaims("sub-9", "grace@example.com"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)

	social, err := s.GetSocialAccount(ctx, auth.ProviderGoogle, "sub-9")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, social.UserID)

	addrs, err := s.ListEmailAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].Verified, "provider-verified email should be marked verified")
	assert.True(t, addrs[0].Primary)
}

func TestLoginWithClaims_UnverifiedEmail(t *testing.T) {
	svc, _, _ := setup(t)
	claims := googleClaims("sub-2", "eve@example.com")
	claims.EmailVerified = false

	_, err := svc.LoginWithClaims(testutil.TestContext(t), claims)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginWithClaims_Deactivated(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := testutil.TestContext(t)

	user, err := svc.LoginWithClaims(ctx, googleClaims("sub-3", "bob@example.com"))
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, user.ID))

	_, err = svc.LoginWithClaims(ctx, googleClaims("sub-3", "bob@example.com"))
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestSetPrimaryEmail_DemotesOthers(t *testing.T) {
	svc, s, _ := setup(t)
	ctx := testutil.TestContext(t)

	user, err := svc.SignUp(ctx, signUpInput("one@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.SetPrimaryEmail(ctx, user.ID, "two@example.com", true))

	addrs, err := s.ListEmailAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, addrs, 2)

	primaries := 0
	for _, a := range addrs {
		if a.Primary {
			primaries++
			assert.Equal(t, "two@example.com", a.Email)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestDelete_Cascades(t *testing.T) {
	svc, s, db := setup(t)
	ctx := testutil.TestContext(t)

	user, err := svc.LoginWithClaims(ctx, googleClaims("sub-4", "del@example.com"))
	require.NoError(t, err)
	hostel := testutil.CreateTestHostel(t, db)
	require.NoError(t, s.AddFavorite(ctx, user.ID, hostel.ID))

	require.NoError(t, svc.Delete(ctx, user.ID))

	for _, m := range []interface{}{&models.Profile{}, &models.EmailAddress{}, &models.SocialAccount{}, &models.Favorite{}} {
		var count int64
		db.Model(m).Where("user_id = ?", user.ID).Count(&count)
		assert.Zero(t, count)
	}

	err = svc.Delete(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetStaff(t *testing.T) {
	svc, s, _ := setup(t)
	ctx := testutil.TestContext(t)

	user, err := svc.SignUp(ctx, signUpInput("staff@example.com"))
	require.NoError(t, err)
	assert.False(t, user.IsStaff)

	require.NoError(t, svc.SetStaff(ctx, user.ID, true))
	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStaff)

	assert.ErrorIs(t, svc.SetStaff(ctx, uuid.New(), true), apperr.ErrNotFound)
}

func TestLoginWithClaims_AvatarFailureDoesNotBlockLogin(t *testing.T) {
	svc, s, db := setup(t)
	ctx := testutil.TestContext(t)

	err := db.Callback().Update().Before("gorm:update").Register("test:fail_profile_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "profiles" {
			_ = tx.AddError(errors.New("profile storage offline"))
		}
	})
	require.NoError(t, err)

	user, err := svc.LoginWithClaims(ctx, googleClaims("sub-4", "ida@example.com"))
	require.NoError(t, err)
	require.NotNil(t, user)

	profile, err := s.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.AvatarURL)
}

// staleSubjectStore misses the subject lookup n times, as if another login
// linked it after the lookup ran.
type staleSubjectStore struct {
	store.Store
	misses *int
}

func (s staleSubjectStore) GetSocialAccount(ctx context.Context, provider, subject string) (*models.SocialAccount, error) {
	if *s.misses > 0 {
		*s.misses--
		return nil, store.ErrNotFound
	}
	return s.Store.GetSocialAccount(ctx, provider, subject)
}

func TestLoginWithClaims_LinkRaceFollowsSubjectOwner(t *testing.T) {
	base, s, _ := setup(t)
	ctx := testutil.TestContext(t)

	owner, err := base.LoginWithClaims(ctx, googleClaims("sub-5", "owner@example.com"))
	require.NoError(t, err)
	other, err := base.SignUp(ctx, signUpInput("other@example.com"))
	require.NoError(t, err)

	misses := 1
	svc := accounts.NewService(staleSubjectStore{Store: s, misses: &misses}, quietLogger())

	user, err := svc.LoginWithClaims(ctx, googleClaims("sub-5", "other@example.com"))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)

	// The losing link rolled back without touching the other account.
	addrs, err := s.ListEmailAddresses(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.False(t, addrs[0].Verified)

	social, err := s.GetSocialAccount(ctx, auth.ProviderGoogle, "sub-5")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, social.UserID)
}
