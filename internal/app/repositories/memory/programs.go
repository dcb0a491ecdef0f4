package memory

import (
	"context"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

var _ repositories.ProgramRepository = (*ProgramRepository)(nil)

// ProgramRepository is the in-memory program table.
type ProgramRepository struct {
	s *Store
}

func (r *ProgramRepository) List(_ context.Context, p query.Params) ([]models.Program, int, error) {
	r.s.mu.RLock()
	rows := sortedValues(r.s.programs)
	r.s.mu.RUnlock()

	items, total := query.Evaluate(query.Programs, rows, p)
	return items, total, nil
}

func (r *ProgramRepository) All(_ context.Context) ([]models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.programs), nil
}

func (r *ProgramRepository) GetByCode(_ context.Context, code string) (*models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.programs[code]
	if !ok {
		return nil, apperrors.ErrProgramNotFound
	}
	return &p, nil
}

func (r *ProgramRepository) CodeTaken(_ context.Context, code, except string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return takenFold(r.s.programs, code, except), nil
}

func (r *ProgramRepository) Create(_ context.Context, p models.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if takenFold(r.s.programs, p.ProgramCode, "") {
		return apperrors.ErrProgramCodeExists
	}
	if _, ok := r.s.colleges[p.CollegeCode]; !ok {
		return apperrors.ErrUnknownCollege
	}
	r.s.programs[p.ProgramCode] = p
	return nil
}

func (r *ProgramRepository) Update(_ context.Context, originalCode string, p models.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.programs[originalCode]; !ok {
		return apperrors.ErrProgramNotFound
	}
	if takenFold(r.s.programs, p.ProgramCode, originalCode) {
		return apperrors.ErrProgramCodeExists
	}
	if _, ok := r.s.colleges[p.CollegeCode]; !ok {
		return apperrors.ErrUnknownCollege
	}

	delete(r.s.programs, originalCode)
	r.s.programs[p.ProgramCode] = p
	if p.ProgramCode != originalCode {
		for id, st := range r.s.students {
			if st.ProgramCode == originalCode {
				st.ProgramCode = p.ProgramCode
				r.s.students[id] = st
			}
		}
	}
	return nil
}

func (r *ProgramRepository) Delete(_ context.Context, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.programs[code]; !ok {
		return apperrors.ErrProgramNotFound
	}
	delete(r.s.programs, code)
	for id, st := range r.s.students {
		if st.ProgramCode == code {
			st.ProgramCode = ""
			r.s.students[id] = st
		}
	}
	return nil
}

func (r *ProgramRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.programs), nil
}
