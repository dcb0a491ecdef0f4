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

// StudentService defines the interface for student-related operations.
// Every student it returns has its placeholders filled (see models.Student.WithDefaults).
type StudentService interface {
	ListStudents(ctx context.Context, p query.Params) (query.Page[models.Student], error)
	// SearchStudents applies search, filters and sort without pagination
	SearchStudents(ctx context.Context, p query.Params) ([]models.Student, error)
	GetDropdown(ctx context.Context) ([]models.Student, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	CreateStudent(ctx context.Context, student models.Student) (*models.Student, error)
	UpdateStudent(ctx context.Context, originalID string, student models.Student) (*models.Student, error)
	SetPhoto(ctx context.Context, id, photoURL string) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	CountStudents(ctx context.Context) (int, error)
	CountByProgram(ctx context.Context) ([]models.ProgramCount, error)
	CountByGender(ctx context.Context) ([]models.GenderCount, error)
	ListByProgram(ctx context.Context, programCode string) ([]models.Student, error)
}

type studentServiceImpl struct {
	studentRepo repositories.StudentRepository
	programRepo repositories.ProgramRepository
	lists       ListConfig
	notify      *mutationNotifier
}

// NewStudentService creates a new student service instance
func NewStudentService(
	studentRepo repositories.StudentRepository,
	programRepo repositories.ProgramRepository,
	lists ListConfig,
	c cache.DropdownCache,
	p events.Publisher,
	logger zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
		programRepo: programRepo,
		lists:       lists,
		notify:      newMutationNotifier(c, p, logger),
	}
}

func withDefaults(students []models.Student) []models.Student {
	out := make([]models.Student, len(students))
	for i, st := range students {
		out[i] = st.WithDefaults()
	}
	return out
}

func (s *studentServiceImpl) ListStudents(ctx context.Context, p query.Params) (query.Page[models.Student], error) {
	p = s.lists.normalize(query.Students, p)
	items, total, err := s.studentRepo.List(ctx, p)
	if err != nil {
		return query.Page[models.Student]{}, fmt.Errorf("error listing students: %w", err)
	}
	return query.NewPage(query.Students, withDefaults(items), total, p), nil
}

func (s *studentServiceImpl) SearchStudents(ctx context.Context, p query.Params) ([]models.Student, error) {
	p = s.lists.normalize(query.Students, p)
	items, err := s.studentRepo.ListAll(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error searching students: %w", err)
	}
	return withDefaults(items), nil
}

func (s *studentServiceImpl) GetDropdown(ctx context.Context) ([]models.Student, error) {
	items, err := dropdown(ctx, s.notify, query.Students, func(ctx context.Context) ([]models.Student, error) {
		all, err := s.studentRepo.All(ctx)
		return withDefaults(all), err
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving students: %w", err)
	}
	return items, nil
}

func (s *studentServiceImpl) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	st, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	out := st.WithDefaults()
	return &out, nil
}

// validateStudent normalises st and checks it for storage under originalID.
// With keepNoProgram set, the NoProgram placeholder is accepted and stored as
// no program.
func (s *studentServiceImpl) validateStudent(ctx context.Context, st models.Student, originalID string, keepNoProgram bool) (models.Student, error) {
	st = validation.NormalizeStudent(st)
	st.PhotoURL = ""
	if err := validation.CheckStudent(st); err != nil {
		return st, err
	}
	orphan := keepNoProgram && st.ProgramCode == models.NoProgram
	if orphan {
		st.ProgramCode = ""
	}

	taken, err := s.studentRepo.IDTaken(ctx, st.StudentID, originalID)
	if err != nil {
		return st, fmt.Errorf("error checking student ID: %w", err)
	}
	if taken {
		return st, apperrors.ErrStudentIDAlreadyExists
	}

	if orphan {
		return st, nil
	}
	if _, err := s.programRepo.GetByCode(ctx, st.ProgramCode); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return st, apperrors.ErrUnknownProgram
		}
		return st, fmt.Errorf("error checking program: %w", err)
	}
	return st, nil
}

func (s *studentServiceImpl) CreateStudent(ctx context.Context, student models.Student) (*models.Student, error) {
	student, err := s.validateStudent(ctx, student, "", false)
	if err != nil {
		return nil, err
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrValidationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating student: %w", err)
	}

	s.notify.changed(ctx, query.Students, events.ActionCreated, student.StudentID, student.StudentID)
	out := student.WithDefaults()
	return &out, nil
}

// UpdateStudent replaces the student stored under originalID, keeping its photo.
// A student whose program was deleted may be saved without picking a new one.
func (s *studentServiceImpl) UpdateStudent(ctx context.Context, originalID string, student models.Student) (*models.Student, error) {
	current, err := s.GetStudent(ctx, originalID)
	if err != nil {
		return nil, err
	}

	student, err = s.validateStudent(ctx, student, originalID, current.ProgramCode == models.NoProgram)
	if err != nil {
		return nil, err
	}

	if err := s.studentRepo.Update(ctx, originalID, student); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrValidationFailed, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating student: %w", err)
	}

	s.notify.changed(ctx, query.Students, events.ActionUpdated, student.StudentID, originalID)
	return s.GetStudent(ctx, student.StudentID)
}

// SetPhoto records the URL of a student's uploaded photo.
func (s *studentServiceImpl) SetPhoto(ctx context.Context, id, photoURL string) (*models.Student, error) {
	if err := s.studentRepo.UpdatePhoto(ctx, id, photoURL); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error updating student photo: %w", err)
	}

	s.notify.changed(ctx, query.Students, events.ActionUpdated, id, id)
	return s.GetStudent(ctx, id)
}

func (s *studentServiceImpl) DeleteStudent(ctx context.Context, id string) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error deleting student: %w", err)
	}

	s.notify.changed(ctx, query.Students, events.ActionDeleted, id, id)
	return nil
}

func (s *studentServiceImpl) CountStudents(ctx context.Context) (int, error) {
	n, err := s.studentRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}

func (s *studentServiceImpl) CountByProgram(ctx context.Context) ([]models.ProgramCount, error) {
	counts, err := s.studentRepo.CountByProgram(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting students by program: %w", err)
	}
	return counts, nil
}

func (s *studentServiceImpl) CountByGender(ctx context.Context) ([]models.GenderCount, error) {
	counts, err := s.studentRepo.CountByGender(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting students by gender: %w", err)
	}
	return counts, nil
}

// ListByProgram returns the students enrolled in a program. The NoProgram
// placeholder selects the students without one.
func (s *studentServiceImpl) ListByProgram(ctx context.Context, programCode string) ([]models.Student, error) {
	if programCode == models.NoProgram {
		programCode = ""
	}
	items, err := s.studentRepo.ListByProgram(ctx, programCode)
	if err != nil {
		return nil, fmt.Errorf("error listing students by program: %w", err)
	}
	return withDefaults(items), nil
}
