package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestPassword = "Testpassword123"

// SetupTestDB creates a private in-memory SQLite database. All access goes
// through one connection so every statement sees the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SetupTestStore returns a Store backed by SetupTestDB.
func SetupTestStore(t *testing.T) (*store.GormStore, *gorm.DB) {
	t.Helper()
	db := SetupTestDB(t)
	return store.New(db), db
}

// CreateTestUser creates an active user with a profile and a verified
// primary email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, false)
}

func CreateTestStaff(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, true)
}

func createUser(t *testing.T, db *gorm.DB, staff bool) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	suffix := uuid.New().String()[:8]
	user := &models.User{
		Username:     "user_" + suffix,
		Email:        "test-" + suffix + "@example.com",
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
		IsStaff:      staff,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	profile := &models.Profile{UserID: user.ID}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	addr := &models.EmailAddress{UserID: user.ID, Email: user.Email, Verified: true, Primary: true}
	if err := db.Create(addr).Error; err != nil {
		t.Fatalf("failed to create test email address: %v", err)
	}

	user.Profile = profile
	return user
}

// HostelOption customises CreateTestHostel.
type HostelOption func(*models.Hostel)

func WithSlots(n int) HostelOption {
	return func(h *models.Hostel) { h.AvailableSlots = n }
}

func WithPrice(p int64) HostelOption {
	return func(h *models.Hostel) { h.Price = p }
}

func WithCategory(c models.HostelCategory) HostelOption {
	return func(h *models.Hostel) { h.Category = c }
}

func WithLocation(loc string) HostelOption {
	return func(h *models.Hostel) { h.Location = loc }
}

func WithName(name string) HostelOption {
	return func(h *models.Hostel) { h.Name = name }
}

func WithBilling(b models.BillingCycle) HostelOption {
	return func(h *models.Hostel) { h.BillingCycle = b }
}

func CreateTestHostel(t *testing.T, db *gorm.DB, opts ...HostelOption) *models.Hostel {
	t.Helper()

	hostel := &models.Hostel{
		Name:           "Test Hostel",
		Description:    "Quiet rooms near campus",
		Address:        "1 Campus Road",
		Location:       "Main Gate",
		Category:       models.CategorySingle,
		Price:          5000,
		BillingCycle:   models.BillingMonthly,
		AvailableSlots: 3,
	}
	for _, opt := range opts {
		opt(hostel)
	}
	hostel.Slug = strings.ToLower(strings.ReplaceAll(hostel.Name, " ", "-")) + "-" + uuid.New().String()[:8]

	if err := db.Create(hostel).Error; err != nil {
		t.Fatalf("failed to create test hostel: %v", err)
	}
	return hostel
}

func CreateTestReview(t *testing.T, db *gorm.DB, hostelID uuid.UUID, rating int) *models.Review {
	t.Helper()

	review := &models.Review{HostelID: hostelID, Rating: rating, Comment: "Decent place"}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("failed to create test review: %v", err)
	}
	return review
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Username, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	Store      *store.GormStore
	JWTService *auth.JWTService
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	user := CreateTestUser(t, db)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		Store:      store.New(db),
		JWTService: jwtService,
		User:       user,
		Token:      token,
	}
}
