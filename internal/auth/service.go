package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/albedo-dev/albedo/internal/config"
	"github.com/albedo-dev/albedo/internal/database"
)

// RequestMeta describes the client making an auth request. It feeds the
// access log and password-reset audit columns.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResult carries the created user. VerificationToken is set
// only in development mode; in production the token travels by mail.
type RegisterResult struct {
	User              *User
	VerificationToken string
}

// LoginResult carries the issued access token.
type LoginResult struct {
	User        *User
	AccessToken string
}

// Service implements the authentication flows.
type Service struct {
	users     UserRepository
	resets    PasswordResetRepository
	access    AccessLogRepository
	blacklist TokenBlacklist
	jwt       *JWTManager
	cfg       config.AuthConfig
	devMode   bool
}

// NewService wires an auth service.
func NewService(
	users UserRepository,
	resets PasswordResetRepository,
	access AccessLogRepository,
	blacklist TokenBlacklist,
	jwt *JWTManager,
	cfg config.AuthConfig,
	devMode bool,
) *Service {
	return &Service{
		users:     users,
		resets:    resets,
		access:    access,
		blacklist: blacklist,
		jwt:       jwt,
		cfg:       cfg,
		devMode:   devMode,
	}
}

// Register creates an unverified user with a fresh verification token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidCredentials)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	now := time.Now().UTC()
	user := &User{
		ID:                uuid.New(),
		Name:              in.Name,
		Email:             email,
		HashedPassword:    hash,
		Role:              RoleUser,
		Verified:          false,
		VerificationToken: &token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	result := &RegisterResult{User: user}
	if s.devMode {
		result.VerificationToken = token
	}
	return result, nil
}

// Login verifies the credentials and issues an access token. After
// cfg.LoginAttemptLimit consecutive failures the account is blocked for
// cfg.BlockDuration.
func (s *Service) Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	if user.BlockExpires != nil {
		if time.Now().Before(*user.BlockExpires) {
			return nil, ErrAccountBlocked
		}
		// The block lapsed; start a clean attempt window.
		user.BlockExpires = nil
		user.LoginAttempts = 0
	}

	if !CheckPassword(user.HashedPassword, password) {
		user.LoginAttempts++
		if user.LoginAttempts >= s.cfg.LoginAttemptLimit {
			until := time.Now().Add(s.cfg.BlockDuration)
			user.BlockExpires = &until
		}
		if err := s.users.Update(ctx, user); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("failed to persist login attempt counter")
		}
		if user.BlockExpires != nil {
			return nil, ErrAccountBlocked
		}
		return nil, ErrInvalidCredentials
	}

	if user.LoginAttempts != 0 || user.BlockExpires != nil {
		user.LoginAttempts = 0
		user.BlockExpires = nil
		if err := s.users.Update(ctx, user); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("failed to reset login attempt counter")
		}
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, err
	}

	s.recordAccess(AccessLog{
		Email:     user.Email,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now().UTC(),
	})

	return &LoginResult{User: user, AccessToken: token}, nil
}

// recordAccess writes the access log entry in the background so a slow
// audit table never delays a login.
func (s *Service) recordAccess(entry AccessLog) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.access.Record(ctx, entry); err != nil {
			log.Error().Err(err).Str("email", entry.Email).Msg("failed to record login access")
		}
	}()
}

// VerifyEmail marks the user behind the token as verified and burns the
// token.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("fetching user by token: %w", err)
	}
	if user.Verified {
		return nil, ErrAlreadyVerified
	}

	user.Verified = true
	user.VerificationToken = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("marking user verified: %w", err)
	}
	return user, nil
}

// ForgotPassword creates a password-reset request. To avoid account
// enumeration it reports success even when the email is unknown; the
// returned token is non-empty only for known users, and handlers expose
// it only in development mode.
func (s *Service) ForgotPassword(ctx context.Context, email string, meta RequestMeta) (string, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fetching user: %w", err)
	}

	reset := &PasswordReset{
		ID:        uuid.New(),
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.cfg.PasswordResetExpiry),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", fmt.Errorf("creating password reset: %w", err)
	}
	return reset.Token, nil
}

// ResetPassword consumes a reset token and replaces the user's
// password. The token is single use.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrTokenInvalid
	}
	reset, err := s.resets.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("fetching password reset: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, reset.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("fetching user: %w", err)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.HashedPassword = hash
	user.LoginAttempts = 0
	user.BlockExpires = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return fmt.Errorf("marking reset used: %w", err)
	}
	return nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwt.Validate(tokenString)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.blacklist.Revoke(ctx, tokenString, ttl)
}

// Authenticate validates a token against the signature, expiry and the
// blacklist.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.jwt.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("checking blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
