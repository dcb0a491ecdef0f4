package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

var _ repositories.StudentRepository = (*StudentRepository)(nil)

// StudentRepository is the in-memory student table.
type StudentRepository struct {
	s *Store
}

func (r *StudentRepository) filtered(f query.Filters) []models.Student {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := make([]models.Student, 0, len(r.s.students))
	for _, st := range sortedValues(r.s.students) {
		if f.Match(st.WithDefaults().ProgramCode, st.Gender, st.YearLevel) {
			rows = append(rows, st)
		}
	}
	return rows
}

func (r *StudentRepository) List(_ context.Context, p query.Params) ([]models.Student, int, error) {
	items, total := query.Evaluate(query.Students, r.filtered(p.Filters), p)
	return items, total, nil
}

func (r *StudentRepository) ListAll(_ context.Context, p query.Params) ([]models.Student, error) {
	rows := r.filtered(p.Filters)
	p.Page, p.PerPage = 1, len(rows)
	if p.PerPage == 0 {
		return []models.Student{}, nil
	}
	items, _ := query.Evaluate(query.Students, rows, p)
	return items, nil
}

func (r *StudentRepository) All(_ context.Context) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.students), nil
}

func (r *StudentRepository) GetByID(_ context.Context, id string) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return &st, nil
}

func (r *StudentRepository) IDTaken(_ context.Context, id, except string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.students[id]
	return ok && id != except, nil
}

func (r *StudentRepository) Create(_ context.Context, st models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[st.StudentID]; ok {
		return apperrors.ErrStudentIDAlreadyExists
	}
	if err := r.checkProgram(st.ProgramCode); err != nil {
		return err
	}
	r.s.students[st.StudentID] = st
	return nil
}

func (r *StudentRepository) Update(_ context.Context, originalID string, st models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.students[originalID]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	if _, taken := r.s.students[st.StudentID]; taken && st.StudentID != originalID {
		return apperrors.ErrStudentIDAlreadyExists
	}
	if err := r.checkProgram(st.ProgramCode); err != nil {
		return err
	}

	st.PhotoURL = old.PhotoURL
	delete(r.s.students, originalID)
	r.s.students[st.StudentID] = st
	return nil
}

func (r *StudentRepository) checkProgram(code string) error {
	if code == "" {
		return nil
	}
	if _, ok := r.s.programs[code]; !ok {
		return apperrors.ErrUnknownProgram
	}
	return nil
}

func (r *StudentRepository) UpdatePhoto(_ context.Context, id, photoURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[id]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	st.PhotoURL = photoURL
	r.s.students[id] = st
	return nil
}

func (r *StudentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.s.students, id)
	return nil
}

func (r *StudentRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.students), nil
}

func (r *StudentRepository) CountByProgram(_ context.Context) ([]models.ProgramCount, error) {
	r.s.mu.RLock()
	counts := map[string]int{}
	for _, st := range r.s.students {
		code := st.ProgramCode
		if code == "" {
			code = models.NoProgram
		}
		counts[code]++
	}
	r.s.mu.RUnlock()

	out := make([]models.ProgramCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, models.ProgramCount{ProgramCode: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramCode < out[j].ProgramCode })
	return out, nil
}

func (r *StudentRepository) CountByGender(_ context.Context) ([]models.GenderCount, error) {
	r.s.mu.RLock()
	counts := map[string]int{}
	for _, st := range r.s.students {
		counts[st.Gender]++
	}
	r.s.mu.RUnlock()

	out := make([]models.GenderCount, 0, len(counts))
	for g, n := range counts {
		out = append(out, models.GenderCount{Gender: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gender < out[j].Gender })
	return out, nil
}

func (r *StudentRepository) ListByProgram(_ context.Context, programCode string) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Student{}
	for _, st := range sortedValues(r.s.students) {
		if strings.EqualFold(st.ProgramCode, programCode) {
			out = append(out, st)
		}
	}
	return out, nil
}
