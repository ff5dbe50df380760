package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albedo-dev/albedo/internal/database"
)

// Querier is the subset of pgxpool.Pool the auth repositories need.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const userColumns = `id, name, email, hashed_password, role, verified,
	verification_token, login_attempts, block_expires, created_at, updated_at`

// PgUserRepository is the PostgreSQL UserRepository.
type PgUserRepository struct {
	db Querier
}

func NewPgUserRepository(db Querier) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) Create(ctx context.Context, user *User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, hashed_password, role, verified,
			verification_token, login_attempts, block_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Name, user.Email, user.HashedPassword, user.Role, user.Verified,
		user.VerificationToken, user.LoginAttempts, user.BlockExpires, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *PgUserRepository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	return r.getBy(ctx, "verification_token = $1", token)
}

func (r *PgUserRepository) getBy(ctx context.Context, where string, arg any) (*User, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM users WHERE %s", userColumns, where), arg)

	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.Role, &u.Verified,
		&u.VerificationToken, &u.LoginAttempts, &u.BlockExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &u, nil
}

func (r *PgUserRepository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, hashed_password = $4, role = $5, verified = $6,
			verification_token = $7, login_attempts = $8, block_expires = $9, updated_at = $10
		WHERE id = $1`,
		user.ID, user.Name, user.Email, user.HashedPassword, user.Role, user.Verified,
		user.VerificationToken, user.LoginAttempts, user.BlockExpires, user.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

// PgPasswordResetRepository is the PostgreSQL PasswordResetRepository.
type PgPasswordResetRepository struct {
	db Querier
}

func NewPgPasswordResetRepository(db Querier) *PgPasswordResetRepository {
	return &PgPasswordResetRepository{db: db}
}

func (r *PgPasswordResetRepository) Create(ctx context.Context, reset *PasswordReset) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO forgot_passwords (id, email, token, expires_at, used, ip_request, browser_request, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reset.ID, reset.Email, reset.Token, reset.ExpiresAt, reset.Used,
		reset.IP, reset.UserAgent, reset.CreatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}
	return nil
}

func (r *PgPasswordResetRepository) GetActiveByToken(ctx context.Context, token string) (*PasswordReset, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, token, expires_at, used, ip_request, browser_request, created_at
		FROM forgot_passwords
		WHERE token = $1 AND used = FALSE AND expires_at > NOW()`,
		token,
	)

	var p PasswordReset
	err := row.Scan(&p.ID, &p.Email, &p.Token, &p.ExpiresAt, &p.Used, &p.IP, &p.UserAgent, &p.CreatedAt)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &p, nil
}

func (r *PgPasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE forgot_passwords SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

// PgAccessLogRepository is the PostgreSQL AccessLogRepository.
type PgAccessLogRepository struct {
	db Querier
}

func NewPgAccessLogRepository(db Querier) *PgAccessLogRepository {
	return &PgAccessLogRepository{db: db}
}

func (r *PgAccessLogRepository) Record(ctx context.Context, entry AccessLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_accesses (email, ip_address, browser, created_at)
		VALUES ($1, $2, $3, $4)`,
		entry.Email, entry.IP, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}
	return nil
}
