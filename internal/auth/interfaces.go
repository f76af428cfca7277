package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/database/models"
)

// Authenticator defines the interface for password sign-in and session issue.
type Authenticator interface {
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	Issue(user *models.User) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID uuid.UUID, username, email string, isStaff bool) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator = (*Service)(nil)
	_ TokenService  = (*JWTService)(nil)
	_ ClaimVerifier = (*GoogleVerifier)(nil)
	_ StateStore    = (*RedisStateStore)(nil)
	_ StateStore    = (*MemoryStateStore)(nil)
)
