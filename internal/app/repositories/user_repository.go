package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/dberrors"
	"github.com/ssis-app/ssis/internal/pkg/logger"
)

// PgUserRepository handles dashboard account database operations
type PgUserRepository struct {
	db *pgxpool.Pool
}

// NewPgUserRepository creates a new PgUserRepository
func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// Create creates a new user and returns its id
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		user.Username, user.Email, user.Password).Scan(&id, &user.CreatedAt)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, apperrors.ErrUserAlreadyExists
		}
		logger.Error().Err(err).Msg("Error creating user")
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	user.ID = id
	return id, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, email, password, created_at
		FROM users
		WHERE LOWER(email) = $1`, strings.ToLower(email))
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, email, password, created_at
		FROM users
		WHERE id = $1`, id)
}

// Exists reports whether the email or username is registered
func (r *PgUserRepository) Exists(ctx context.Context, email, username string) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = $1 OR LOWER(username) = $2)`,
		strings.ToLower(email), strings.ToLower(username)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("error checking user existence: %w", err)
	}
	return found, nil
}

func (r *PgUserRepository) getOne(ctx context.Context, sql string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}
