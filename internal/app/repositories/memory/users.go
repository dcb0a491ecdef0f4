package memory

import (
	"context"
	"strings"
	"time"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
)

var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository is the in-memory account table.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *models.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.exists(user.Email, user.Username) {
		return 0, apperrors.ErrUserAlreadyExists
	}
	user.ID = r.s.nextUser
	user.CreatedAt = time.Now().UTC()
	r.s.nextUser++
	r.s.users = append(r.s.users, *user)
	return user.ID, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *UserRepository) Exists(_ context.Context, email, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.exists(email, username), nil
}

func (r *UserRepository) exists(email, username string) bool {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}
