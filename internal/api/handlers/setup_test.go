package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/hugh/hostel-hunter/internal/api"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/avatars"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/intake"
	"github.com/hugh/hostel-hunter/internal/mail"
	"github.com/hugh/hostel-hunter/internal/profiles"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/hugh/hostel-hunter/internal/web"
	"github.com/hugh/hostel-hunter/pkg/crypto"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://hostels.example.com"

type testEnv struct {
	*testutil.TestSetup
	Router      http.Handler
	Mail        *mail.Recorder
	Avatars     *avatars.MemoryStore
	Invitations *tokens.Invitations
	Google      *fakeVerifier
	Staff       *models.User
	StaffToken  string
}

type fakeVerifier struct {
	claims *auth.VerifiedClaims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*auth.VerifiedClaims, error) {
	return f.claims, f.err
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	tc := testutil.NewTestContext(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cipher, err := crypto.NewCipher("")
	require.NoError(t, err)

	rec := &mail.Recorder{}
	mailer := mail.NewMailer(mail.MustRenderer(), rec)
	invitations := tokens.NewInvitations(tc.Store, mailer, baseURL, log)
	emails := tokens.NewEmailChanges(tc.Store, mailer, baseURL, log)
	avatarStore := avatars.NewMemoryStore()
	google := &fakeVerifier{}

	router := api.NewRouter(api.RouterConfig{
		DB:           tc.DB,
		Logger:       log,
		JWTService:   tc.JWTService,
		AuthService:  auth.NewService(tc.Store, tc.JWTService),
		Accounts:     accounts.NewService(tc.Store, log),
		Catalog:      catalog.NewService(tc.Store, log),
		Profiles:     profiles.NewService(tc.Store, profiles.Options{Emails: emails, Avatars: avatarStore, Cipher: cipher}, log),
		Intake:       intake.NewService(tc.Store, log),
		Invitations:  invitations,
		EmailChanges: emails,
		Google:       google,
		Pages:        web.MustLoadPages(),
	})

	staff := testutil.CreateTestStaff(t, tc.DB)
	return &testEnv{
		TestSetup:   tc,
		Router:      router,
		Mail:        rec,
		Avatars:     avatarStore,
		Invitations: invitations,
		Google:      google,
		Staff:       staff,
		StaffToken:  testutil.GenerateTestToken(t, tc.JWTService, staff),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if token == "" {
		req = testutil.UnauthenticatedRequest(t, method, path, body)
	} else {
		req = testutil.AuthenticatedRequest(t, method, path, body, token)
	}
	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)
	return rr
}
