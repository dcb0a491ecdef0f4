package memory

import (
	"context"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

var _ repositories.CollegeRepository = (*CollegeRepository)(nil)

// CollegeRepository is the in-memory college table.
type CollegeRepository struct {
	s *Store
}

func (r *CollegeRepository) List(_ context.Context, p query.Params) ([]models.College, int, error) {
	r.s.mu.RLock()
	rows := sortedValues(r.s.colleges)
	r.s.mu.RUnlock()

	items, total := query.Evaluate(query.Colleges, rows, p)
	return items, total, nil
}

func (r *CollegeRepository) All(_ context.Context) ([]models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.colleges), nil
}

func (r *CollegeRepository) GetByCode(_ context.Context, code string) (*models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.colleges[code]
	if !ok {
		return nil, apperrors.ErrCollegeNotFound
	}
	return &c, nil
}

func (r *CollegeRepository) CodeTaken(_ context.Context, code, except string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return takenFold(r.s.colleges, code, except), nil
}

func (r *CollegeRepository) Create(_ context.Context, c models.College) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if takenFold(r.s.colleges, c.CollegeCode, "") {
		return apperrors.ErrCollegeCodeExists
	}
	r.s.colleges[c.CollegeCode] = c
	return nil
}

func (r *CollegeRepository) Update(_ context.Context, originalCode string, c models.College) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.colleges[originalCode]; !ok {
		return apperrors.ErrCollegeNotFound
	}
	if takenFold(r.s.colleges, c.CollegeCode, originalCode) {
		return apperrors.ErrCollegeCodeExists
	}

	delete(r.s.colleges, originalCode)
	r.s.colleges[c.CollegeCode] = c
	if c.CollegeCode != originalCode {
		for code, p := range r.s.programs {
			if p.CollegeCode == originalCode {
				p.CollegeCode = c.CollegeCode
				r.s.programs[code] = p
			}
		}
	}
	return nil
}

func (r *CollegeRepository) Delete(_ context.Context, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.colleges[code]; !ok {
		return apperrors.ErrCollegeNotFound
	}
	for _, p := range r.s.programs {
		if p.CollegeCode == code {
			return apperrors.ErrCollegeHasPrograms
		}
	}
	delete(r.s.colleges, code)
	return nil
}

func (r *CollegeRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.colleges), nil
}
