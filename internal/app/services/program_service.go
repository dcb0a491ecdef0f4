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

// ProgramService defines the interface for program-related operations
type ProgramService interface {
	ListPrograms(ctx context.Context, p query.Params) (query.Page[models.Program], error)
	GetDropdown(ctx context.Context) ([]models.Program, error)
	GetProgram(ctx context.Context, code string) (*models.Program, error)
	CreateProgram(ctx context.Context, program models.Program) (*models.Program, error)
	UpdateProgram(ctx context.Context, originalCode string, program models.Program) (*models.Program, error)
	DeleteProgram(ctx context.Context, code string) error
	CountPrograms(ctx context.Context) (int, error)
}

type programServiceImpl struct {
	programRepo repositories.ProgramRepository
	collegeRepo repositories.CollegeRepository
	lists       ListConfig
	notify      *mutationNotifier
}

// NewProgramService creates a new program service instance
func NewProgramService(
	programRepo repositories.ProgramRepository,
	collegeRepo repositories.CollegeRepository,
	lists ListConfig,
	c cache.DropdownCache,
	p events.Publisher,
	logger zerolog.Logger,
) ProgramService {
	return &programServiceImpl{
		programRepo: programRepo,
		collegeRepo: collegeRepo,
		lists:       lists,
		notify:      newMutationNotifier(c, p, logger),
	}
}

func (s *programServiceImpl) ListPrograms(ctx context.Context, p query.Params) (query.Page[models.Program], error) {
	p = s.lists.normalize(query.Programs, p)
	items, total, err := s.programRepo.List(ctx, p)
	if err != nil {
		return query.Page[models.Program]{}, fmt.Errorf("error listing programs: %w", err)
	}
	return query.NewPage(query.Programs, items, total, p), nil
}

func (s *programServiceImpl) GetDropdown(ctx context.Context) ([]models.Program, error) {
	items, err := dropdown(ctx, s.notify, query.Programs, s.programRepo.All)
	if err != nil {
		return nil, fmt.Errorf("error retrieving programs: %w", err)
	}
	return items, nil
}

func (s *programServiceImpl) GetProgram(ctx context.Context, code string) (*models.Program, error) {
	program, err := s.programRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, fmt.Errorf("error retrieving program: %w", err)
	}
	return program, nil
}

// validateProgram normalises the program and checks its fields, its code's
// availability and its college.
func (s *programServiceImpl) validateProgram(ctx context.Context, program models.Program, originalCode string) (models.Program, error) {
	program = validation.NormalizeProgram(program)
	if err := validation.CheckProgram(program); err != nil {
		return program, err
	}

	taken, err := s.programRepo.CodeTaken(ctx, program.ProgramCode, originalCode)
	if err != nil {
		return program, fmt.Errorf("error checking program code: %w", err)
	}
	if taken {
		return program, apperrors.ErrProgramCodeExists
	}

	if _, err := s.collegeRepo.GetByCode(ctx, program.CollegeCode); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return program, apperrors.ErrUnknownCollege
		}
		return program, fmt.Errorf("error checking college: %w", err)
	}
	return program, nil
}

func (s *programServiceImpl) CreateProgram(ctx context.Context, program models.Program) (*models.Program, error) {
	program, err := s.validateProgram(ctx, program, "")
	if err != nil {
		return nil, err
	}

	if err := s.programRepo.Create(ctx, program); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrValidationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating program: %w", err)
	}

	s.notify.changed(ctx, query.Programs, events.ActionCreated, program.ProgramCode, program.ProgramCode)
	return &program, nil
}

// UpdateProgram replaces the program stored under originalCode. A code change
// carries over to the program's students.
func (s *programServiceImpl) UpdateProgram(ctx context.Context, originalCode string, program models.Program) (*models.Program, error) {
	if _, err := s.GetProgram(ctx, originalCode); err != nil {
		return nil, err
	}

	program, err := s.validateProgram(ctx, program, originalCode)
	if err != nil {
		return nil, err
	}

	if err := s.programRepo.Update(ctx, originalCode, program); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrValidationFailed, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating program: %w", err)
	}

	s.notify.changed(ctx, query.Programs, events.ActionUpdated, program.ProgramCode, originalCode)
	return &program, nil
}

// DeleteProgram deletes a program. Its students keep their records without a program.
func (s *programServiceImpl) DeleteProgram(ctx context.Context, code string) error {
	if err := s.programRepo.Delete(ctx, code); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return apperrors.ErrProgramNotFound
		}
		return fmt.Errorf("error deleting program: %w", err)
	}

	s.notify.changed(ctx, query.Programs, events.ActionDeleted, code, code)
	return nil
}

func (s *programServiceImpl) CountPrograms(ctx context.Context) (int, error) {
	n, err := s.programRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting programs: %w", err)
	}
	return n, nil
}
