package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/cache"
	"github.com/ssis-app/ssis/internal/events"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
	"github.com/ssis-app/ssis/internal/pkg/validation"
)

// CollegeService defines the interface for college-related operations
type CollegeService interface {
	ListColleges(ctx context.Context, p query.Params) (query.Page[models.College], error)
	GetDropdown(ctx context.Context) ([]models.College, error)
	GetCollege(ctx context.Context, code string) (*models.College, error)
	CreateCollege(ctx context.Context, college models.College) (*models.College, error)
	UpdateCollege(ctx context.Context, originalCode string, college models.College) (*models.College, error)
	DeleteCollege(ctx context.Context, code string) error
	CountColleges(ctx context.Context) (int, error)
}

// collegeServiceImpl implements the CollegeService interface
type collegeServiceImpl struct {
	collegeRepo repositories.CollegeRepository
	lists       ListConfig
	notify      *mutationNotifier
}

// NewCollegeService creates a new college service instance
func NewCollegeService(collegeRepo repositories.CollegeRepository, lists ListConfig, c cache.DropdownCache, p events.Publisher, logger zerolog.Logger) CollegeService {
	return &collegeServiceImpl{
		collegeRepo: collegeRepo,
		lists:       lists,
		notify:      newMutationNotifier(c, p, logger),
	}
}

// ListColleges returns one page of colleges
func (s *collegeServiceImpl) ListColleges(ctx context.Context, p query.Params) (query.Page[models.College], error) {
	p = s.lists.normalize(query.Colleges, p)
	items, total, err := s.collegeRepo.List(ctx, p)
	if err != nil {
		return query.Page[models.College]{}, fmt.Errorf("error listing colleges: %w", err)
	}
	return query.NewPage(query.Colleges, items, total, p), nil
}

// GetDropdown returns every college for pickers
func (s *collegeServiceImpl) GetDropdown(ctx context.Context) ([]models.College, error) {
	items, err := dropdown(ctx, s.notify, query.Colleges, s.collegeRepo.All)
	if err != nil {
		return nil, fmt.Errorf("error retrieving colleges: %w", err)
	}
	return items, nil
}

// GetCollege retrieves a college by code
func (s *collegeServiceImpl) GetCollege(ctx context.Context, code string) (*models.College, error) {
	college, err := s.collegeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrCollegeNotFound
		}
		return nil, fmt.Errorf("error retrieving college: %w", err)
	}
	return college, nil
}

// CreateCollege validates and stores a new college
func (s *collegeServiceImpl) CreateCollege(ctx context.Context, college models.College) (*models.College, error) {
	college = validation.NormalizeCollege(college)
	if err := validation.CheckCollege(college); err != nil {
		return nil, err
	}

	taken, err := s.collegeRepo.CodeTaken(ctx, college.CollegeCode, "")
	if err != nil {
		return nil, fmt.Errorf("error checking college code: %w", err)
	}
	if taken {
		return nil, apperrors.ErrCollegeCodeExists
	}

	if err := s.collegeRepo.Create(ctx, college); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.ErrCollegeCodeExists
		}
		return nil, fmt.Errorf("error creating college: %w", err)
	}

	s.notify.changed(ctx, query.Colleges, events.ActionCreated, college.CollegeCode, college.CollegeCode)
	return &college, nil
}

// UpdateCollege replaces the college stored under originalCode. A code change
// carries over to the college's programs.
func (s *collegeServiceImpl) UpdateCollege(ctx context.Context, originalCode string, college models.College) (*models.College, error) {
	if _, err := s.GetCollege(ctx, originalCode); err != nil {
		return nil, err
	}

	college = validation.NormalizeCollege(college)
	if err := validation.CheckCollege(college); err != nil {
		return nil, err
	}

	taken, err := s.collegeRepo.CodeTaken(ctx, college.CollegeCode, originalCode)
	if err != nil {
		return nil, fmt.Errorf("error checking college code: %w", err)
	}
	if taken {
		return nil, apperrors.ErrCollegeCodeExists
	}

	if err := s.collegeRepo.Update(ctx, originalCode, college); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrResourceNotFound):
			return nil, apperrors.ErrCollegeNotFound
		case errors.Is(err, apperrors.ErrConflict):
			return nil, apperrors.ErrCollegeCodeExists
		}
		return nil, fmt.Errorf("error updating college: %w", err)
	}

	s.notify.changed(ctx, query.Colleges, events.ActionUpdated, college.CollegeCode, originalCode)
	return &college, nil
}

// DeleteCollege deletes a college that has no programs
func (s *collegeServiceImpl) DeleteCollege(ctx context.Context, code string) error {
	if err := s.collegeRepo.Delete(ctx, code); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCollegeHasPrograms):
			return apperrors.ErrCollegeHasPrograms
		case errors.Is(err, apperrors.ErrResourceNotFound):
			return apperrors.ErrCollegeNotFound
		}
		return fmt.Errorf("error deleting college: %w", err)
	}

	s.notify.changed(ctx, query.Colleges, events.ActionDeleted, code, code)
	return nil
}

// CountColleges returns the number of colleges
func (s *collegeServiceImpl) CountColleges(ctx context.Context) (int, error) {
	n, err := s.collegeRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting colleges: %w", err)
	}
	return n, nil
}
