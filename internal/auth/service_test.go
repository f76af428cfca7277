package auth_test

import (
	"testing"

	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Login(t *testing.T) {
	ts := testutil.NewTestContext(t)
	svc := auth.NewService(ts.Store, ts.JWTService)
	ctx := testutil.TestContext(t)

	t.Run("by email", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginInput{Login: ts.User.Email, Password: testutil.TestPassword})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, ts.User.ID, resp.User.ID)

		claims, err := ts.JWTService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, ts.User.Username, claims.Username)
	})

	t.Run("by username", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{Login: ts.User.Username, Password: testutil.TestPassword})
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{Login: ts.User.Email, Password: "nope"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{Login: "ghost@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, ts.DB.Model(&models.User{}).Where("id = ?", ts.User.ID).Update("is_active", false).Error)

		_, err := svc.Login(ctx, auth.LoginInput{Login: ts.User.Email, Password: testutil.TestPassword})
		assert.ErrorIs(t, err, auth.ErrInactiveUser)
	})
}

func TestService_LoginWithoutPassword(t *testing.T) {
	ts := testutil.NewTestContext(t)
	svc := auth.NewService(ts.Store, ts.JWTService)
	require.NoError(t, ts.DB.Model(&models.User{}).Where("id = ?", ts.User.ID).Update("password_hash", "").Error)

	_, err := svc.Login(testutil.TestContext(t), auth.LoginInput{Login: ts.User.Email, Password: ""})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
