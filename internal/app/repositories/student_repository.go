package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/dberrors"
	"github.com/ssis-app/ssis/internal/pkg/helpers"
	"github.com/ssis-app/ssis/internal/pkg/logger"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

var studentSpec = listSpec{
	resource: query.Students,
	table:    "students",
	columns: map[string]string{
		"studentID":   "student_id",
		"firstName":   "first_name",
		"lastName":    "last_name",
		"programCode": "COALESCE(program_code, '')",
		"yearLevel":   "year_level",
		"gender":      "gender",
	},
	numeric: map[string]bool{"yearLevel": true},
}

var studentColumns = []string{
	"student_id", "first_name", "last_name", "COALESCE(program_code, '')",
	"year_level", "gender", "COALESCE(photo_url, '')",
}

// PgStudentRepository handles student database operations
type PgStudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPgStudentRepository creates a new PgStudentRepository
func NewPgStudentRepository(db *pgxpool.Pool) *PgStudentRepository {
	return &PgStudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// studentWhere combines the search predicate with the multi-select filters.
func studentWhere(p query.Params) squirrel.And {
	where := studentSpec.where(p)
	f := p.Filters
	if len(f.ProgramCode) > 0 {
		where = append(where, squirrel.Eq{"LOWER(COALESCE(program_code, '" + models.NoProgram + "'))": lowerAll(f.ProgramCode)})
	}
	if len(f.Gender) > 0 {
		where = append(where, squirrel.Eq{"LOWER(gender)": lowerAll(f.Gender)})
	}
	if len(f.YearLevel) > 0 {
		where = append(where, squirrel.Eq{"year_level": f.YearLevel})
	}
	return where
}

// List returns one page of students matching search and filters
func (r *PgStudentRepository) List(ctx context.Context, p query.Params) ([]models.Student, int, error) {
	where := studentWhere(p)

	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From(studentSpec.table).Where(where))
	if err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	b := r.sb.Select(studentColumns...).
		From(studentSpec.table).
		Where(where).
		OrderBy(studentSpec.orderBy(p)...)
	students, err := r.query(ctx, page(b, p))
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// ListAll returns every student matching search and filters, sorted
func (r *PgStudentRepository) ListAll(ctx context.Context, p query.Params) ([]models.Student, error) {
	return r.query(ctx, r.sb.Select(studentColumns...).
		From(studentSpec.table).
		Where(studentWhere(p)).
		OrderBy(studentSpec.orderBy(p)...))
}

// All returns every student ordered by ID
func (r *PgStudentRepository) All(ctx context.Context) ([]models.Student, error) {
	return r.query(ctx, r.sb.Select(studentColumns...).
		From(studentSpec.table).
		OrderBy(`student_id COLLATE "C" ASC`))
}

// GetByID retrieves a student by ID
func (r *PgStudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	students, err := r.query(ctx, r.sb.Select(studentColumns...).
		From(studentSpec.table).
		Where(squirrel.Eq{"student_id": id}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, apperrors.ErrStudentNotFound
	}
	return &students[0], nil
}

// IDTaken reports whether another student already uses id
func (r *PgStudentRepository) IDTaken(ctx context.Context, id, except string) (bool, error) {
	return exists(ctx, r.db, r.sb.Select("1").
		From(studentSpec.table).
		Where(squirrel.Eq{"student_id": id}).
		Where(squirrel.NotEq{"student_id": except}))
}

// Create inserts a student
func (r *PgStudentRepository) Create(ctx context.Context, s models.Student) error {
	sql, args, err := r.sb.Insert(studentSpec.table).
		Columns("student_id", "first_name", "last_name", "program_code", "year_level", "gender", "photo_url").
		Values(s.StudentID, s.FirstName, s.LastName, helpers.GetContentNullString(s.ProgramCode),
			s.YearLevel, s.Gender, helpers.GetContentNullString(s.PhotoURL)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, "create")
	}
	return nil
}

// Update rewrites the student stored under originalID. The photo is kept.
func (r *PgStudentRepository) Update(ctx context.Context, originalID string, s models.Student) error {
	sql, args, err := r.sb.Update(studentSpec.table).
		SetMap(map[string]interface{}{
			"student_id":   s.StudentID,
			"first_name":   s.FirstName,
			"last_name":    s.LastName,
			"program_code": helpers.GetContentNullString(s.ProgramCode),
			"year_level":   s.YearLevel,
			"gender":       s.Gender,
		}).
		Where(squirrel.Eq{"student_id": originalID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update student SQL")
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, "update")
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// UpdatePhoto sets the photo URL of a student
func (r *PgStudentRepository) UpdatePhoto(ctx context.Context, id, photoURL string) error {
	sql, args, err := r.sb.Update(studentSpec.table).
		Set("photo_url", helpers.GetContentNullString(photoURL)).
		Where(squirrel.Eq{"student_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update photo query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("studentID", id).Msg("Error executing update photo query")
		return fmt.Errorf("error updating student photo: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete removes a student
func (r *PgStudentRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete(studentSpec.table).
		Where(squirrel.Eq{"student_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("studentID", id).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Count returns the number of students
func (r *PgStudentRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From(studentSpec.table))
}

// CountByProgram returns student counts per program, programless students under N/A
func (r *PgStudentRepository) CountByProgram(ctx context.Context) ([]models.ProgramCount, error) {
	sql, args, err := r.sb.Select("COALESCE(program_code, '"+models.NoProgram+"') AS code", "COUNT(*)").
		From(studentSpec.table).
		GroupBy("code").
		OrderBy("code ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by program query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing count by program query")
		return nil, fmt.Errorf("error counting students by program: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ProgramCount, error) {
		var pc models.ProgramCount
		err := row.Scan(&pc.ProgramCode, &pc.Count)
		return pc, err
	})
}

// CountByGender returns student counts per gender
func (r *PgStudentRepository) CountByGender(ctx context.Context) ([]models.GenderCount, error) {
	sql, args, err := r.sb.Select("gender", "COUNT(*)").
		From(studentSpec.table).
		GroupBy("gender").
		OrderBy("gender ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by gender query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing count by gender query")
		return nil, fmt.Errorf("error counting students by gender: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GenderCount, error) {
		var gc models.GenderCount
		err := row.Scan(&gc.Gender, &gc.Count)
		return gc, err
	})
}

// ListByProgram returns the students enrolled in a program, ordered by ID.
// An empty code selects the students without a program.
func (r *PgStudentRepository) ListByProgram(ctx context.Context, programCode string) ([]models.Student, error) {
	var where squirrel.Sqlizer = squirrel.Eq{"program_code": nil}
	if programCode != "" {
		where = squirrel.Eq{"LOWER(program_code)": strings.ToLower(programCode)}
	}
	return r.query(ctx, r.sb.Select(studentColumns...).
		From(studentSpec.table).
		Where(where).
		OrderBy(`student_id COLLATE "C" ASC`))
}

func (r *PgStudentRepository) mapWriteError(err error, op string) error {
	switch {
	case dberrors.IsUniqueViolation(err):
		return apperrors.ErrStudentIDAlreadyExists
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrUnknownProgram
	}
	logger.Error().Err(err).Str("op", op).Msg("Error executing student write")
	return fmt.Errorf("error on student %s: %w", op, err)
}

func (r *PgStudentRepository) query(ctx context.Context, b squirrel.SelectBuilder) ([]models.Student, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students SQL")
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Student{}, nil
		}
		logger.Error().Err(err).Msg("Error executing list students query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.StudentID, &s.FirstName, &s.LastName, &s.ProgramCode,
			&s.YearLevel, &s.Gender, &s.PhotoURL); err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}
