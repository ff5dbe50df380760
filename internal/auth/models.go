// Package auth implements password authentication for the Albedo API:
// registration with email verification, login with failed-attempt
// blocking, password reset, JWT issuing/validation and a token
// blacklist for logout.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Roles known to the API.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

// User is the authentication view of a user row, including the
// sensitive columns the resource layer never exposes.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	HashedPassword    string     `json:"-"`
	Role              string     `json:"role"`
	Verified          bool       `json:"verified"`
	VerificationToken *string    `json:"-"`
	LoginAttempts     int        `json:"-"`
	BlockExpires      *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PasswordReset is one password-reset request. A token is single use
// and expires after config.Auth.PasswordResetExpiry.
type PasswordReset struct {
	ID        uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
	Used      bool
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// AccessLog records one successful login for auditing.
type AccessLog struct {
	Email     string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// Client-facing errors; the HTTP layer maps them to status codes.
var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountBlocked     = errors.New("account temporarily blocked due to too many failed login attempts")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// UserRepository is the persistence capability for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByVerificationToken(ctx context.Context, token string) (*User, error)
	// Update persists every mutable column of the user.
	Update(ctx context.Context, user *User) error
}

// PasswordResetRepository stores password-reset requests.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *PasswordReset) error
	// GetActiveByToken returns the reset request for the token if it
	// is unused and unexpired.
	GetActiveByToken(ctx context.Context, token string) (*PasswordReset, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

// AccessLogRepository records successful logins. Failures are logged
// and never fail the login.
type AccessLogRepository interface {
	Record(ctx context.Context, entry AccessLog) error
}
