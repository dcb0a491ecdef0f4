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
	"github.com/ssis-app/ssis/internal/pkg/logger"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

var programSpec = listSpec{
	resource: query.Programs,
	table:    "programs",
	columns: map[string]string{
		"programCode": "program_code",
		"programName": "program_name",
		"collegeCode": "college_code",
	},
}

var programColumns = []string{"program_code", "program_name", "college_code"}

// PgProgramRepository handles program database operations
type PgProgramRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPgProgramRepository creates a new PgProgramRepository
func NewPgProgramRepository(db *pgxpool.Pool) *PgProgramRepository {
	return &PgProgramRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns one page of programs
func (r *PgProgramRepository) List(ctx context.Context, p query.Params) ([]models.Program, int, error) {
	where := programSpec.where(p)

	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From(programSpec.table).Where(where))
	if err != nil {
		return nil, 0, fmt.Errorf("error counting programs: %w", err)
	}

	b := r.sb.Select(programColumns...).
		From(programSpec.table).
		Where(where).
		OrderBy(programSpec.orderBy(p)...)
	programs, err := r.query(ctx, page(b, p))
	if err != nil {
		return nil, 0, err
	}
	return programs, total, nil
}

// All returns every program ordered by code
func (r *PgProgramRepository) All(ctx context.Context) ([]models.Program, error) {
	return r.query(ctx, r.sb.Select(programColumns...).
		From(programSpec.table).
		OrderBy(`program_code COLLATE "C" ASC`))
}

// GetByCode retrieves a program by its exact code
func (r *PgProgramRepository) GetByCode(ctx context.Context, code string) (*models.Program, error) {
	sql, args, err := r.sb.Select(programColumns...).
		From(programSpec.table).
		Where(squirrel.Eq{"program_code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get program SQL")
		return nil, fmt.Errorf("failed to build get program query: %w", err)
	}

	var p models.Program
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.ProgramCode, &p.ProgramName, &p.CollegeCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProgramNotFound
		}
		logger.Error().Err(err).Str("programCode", code).Msg("Error scanning program row")
		return nil, fmt.Errorf("error getting program: %w", err)
	}
	return &p, nil
}

// CodeTaken reports whether another program already uses code
func (r *PgProgramRepository) CodeTaken(ctx context.Context, code, except string) (bool, error) {
	return exists(ctx, r.db, r.sb.Select("1").
		From(programSpec.table).
		Where(squirrel.Eq{"LOWER(program_code)": strings.ToLower(code)}).
		Where(squirrel.NotEq{"program_code": except}))
}

// Create inserts a program
func (r *PgProgramRepository) Create(ctx context.Context, p models.Program) error {
	sql, args, err := r.sb.Insert(programSpec.table).
		Columns(programColumns...).
		Values(p.ProgramCode, p.ProgramName, p.CollegeCode).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create program SQL")
		return fmt.Errorf("failed to build create program query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, "create")
	}
	return nil
}

// Update rewrites the program stored under originalCode. Students follow a
// code change through ON UPDATE CASCADE.
func (r *PgProgramRepository) Update(ctx context.Context, originalCode string, p models.Program) error {
	sql, args, err := r.sb.Update(programSpec.table).
		SetMap(map[string]interface{}{
			"program_code": p.ProgramCode,
			"program_name": p.ProgramName,
			"college_code": p.CollegeCode,
		}).
		Where(squirrel.Eq{"program_code": originalCode}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update program SQL")
		return fmt.Errorf("failed to build update program query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, "update")
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrProgramNotFound
	}
	return nil
}

// Delete removes a program. Its students keep their rows with no program.
func (r *PgProgramRepository) Delete(ctx context.Context, code string) error {
	sql, args, err := r.sb.Delete(programSpec.table).
		Where(squirrel.Eq{"program_code": code}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete program SQL")
		return fmt.Errorf("failed to build delete program query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("programCode", code).Msg("Error executing delete program query")
		return fmt.Errorf("error deleting program: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrProgramNotFound
	}
	return nil
}

// Count returns the number of programs
func (r *PgProgramRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From(programSpec.table))
}

func (r *PgProgramRepository) mapWriteError(err error, op string) error {
	switch {
	case dberrors.IsUniqueViolation(err):
		return apperrors.ErrProgramCodeExists
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrUnknownCollege
	}
	logger.Error().Err(err).Str("op", op).Msg("Error executing program write")
	return fmt.Errorf("error on program %s: %w", op, err)
}

func (r *PgProgramRepository) query(ctx context.Context, b squirrel.SelectBuilder) ([]models.Program, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list programs SQL")
		return nil, fmt.Errorf("failed to build list programs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list programs query")
		return nil, fmt.Errorf("error querying programs: %w", err)
	}
	defer rows.Close()

	programs := []models.Program{}
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(&p.ProgramCode, &p.ProgramName, &p.CollegeCode); err != nil {
			return nil, fmt.Errorf("error scanning program row: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating program rows: %w", err)
	}
	return programs, nil
}
