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

var collegeSpec = listSpec{
	resource: query.Colleges,
	table:    "colleges",
	columns: map[string]string{
		"collegeCode": "college_code",
		"collegeName": "college_name",
	},
}

// PgCollegeRepository handles college database operations
type PgCollegeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPgCollegeRepository creates a new PgCollegeRepository
func NewPgCollegeRepository(db *pgxpool.Pool) *PgCollegeRepository {
	return &PgCollegeRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns one page of colleges
func (r *PgCollegeRepository) List(ctx context.Context, p query.Params) ([]models.College, int, error) {
	where := collegeSpec.where(p)

	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From(collegeSpec.table).Where(where))
	if err != nil {
		return nil, 0, fmt.Errorf("error counting colleges: %w", err)
	}

	b := r.sb.Select("college_code", "college_name").
		From(collegeSpec.table).
		Where(where).
		OrderBy(collegeSpec.orderBy(p)...)
	colleges, err := r.query(ctx, page(b, p))
	if err != nil {
		return nil, 0, err
	}
	return colleges, total, nil
}

// All returns every college ordered by code
func (r *PgCollegeRepository) All(ctx context.Context) ([]models.College, error) {
	return r.query(ctx, r.sb.Select("college_code", "college_name").
		From(collegeSpec.table).
		OrderBy(`college_code COLLATE "C" ASC`))
}

// GetByCode retrieves a college by its exact code
func (r *PgCollegeRepository) GetByCode(ctx context.Context, code string) (*models.College, error) {
	sql, args, err := r.sb.Select("college_code", "college_name").
		From(collegeSpec.table).
		Where(squirrel.Eq{"college_code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get college SQL")
		return nil, fmt.Errorf("failed to build get college query: %w", err)
	}

	var c models.College
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.CollegeCode, &c.CollegeName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCollegeNotFound
		}
		logger.Error().Err(err).Str("collegeCode", code).Msg("Error scanning college row")
		return nil, fmt.Errorf("error getting college: %w", err)
	}
	return &c, nil
}

// CodeTaken reports whether another college already uses code
func (r *PgCollegeRepository) CodeTaken(ctx context.Context, code, except string) (bool, error) {
	return exists(ctx, r.db, r.sb.Select("1").
		From(collegeSpec.table).
		Where(squirrel.Eq{"LOWER(college_code)": strings.ToLower(code)}).
		Where(squirrel.NotEq{"college_code": except}))
}

// Create inserts a college
func (r *PgCollegeRepository) Create(ctx context.Context, c models.College) error {
	sql, args, err := r.sb.Insert(collegeSpec.table).
		Columns("college_code", "college_name").
		Values(c.CollegeCode, c.CollegeName).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create college SQL")
		return fmt.Errorf("failed to build create college query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrCollegeCodeExists
		}
		logger.Error().Err(err).Msg("Error executing create college query")
		return fmt.Errorf("error creating college: %w", err)
	}
	return nil
}

// Update rewrites the college stored under originalCode. Programs follow a
// code change through ON UPDATE CASCADE.
func (r *PgCollegeRepository) Update(ctx context.Context, originalCode string, c models.College) error {
	sql, args, err := r.sb.Update(collegeSpec.table).
		SetMap(map[string]interface{}{
			"college_code": c.CollegeCode,
			"college_name": c.CollegeName,
		}).
		Where(squirrel.Eq{"college_code": originalCode}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update college SQL")
		return fmt.Errorf("failed to build update college query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrCollegeCodeExists
		}
		logger.Error().Err(err).Str("collegeCode", originalCode).Msg("Error executing update college query")
		return fmt.Errorf("error updating college: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCollegeNotFound
	}
	return nil
}

// Delete removes a college. Colleges that still own programs are refused.
func (r *PgCollegeRepository) Delete(ctx context.Context, code string) error {
	sql, args, err := r.sb.Delete(collegeSpec.table).
		Where(squirrel.Eq{"college_code": code}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete college SQL")
		return fmt.Errorf("failed to build delete college query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCollegeHasPrograms
		}
		logger.Error().Err(err).Str("collegeCode", code).Msg("Error executing delete college query")
		return fmt.Errorf("error deleting college: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCollegeNotFound
	}
	return nil
}

// Count returns the number of colleges
func (r *PgCollegeRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From(collegeSpec.table))
}

func (r *PgCollegeRepository) query(ctx context.Context, b squirrel.SelectBuilder) ([]models.College, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list colleges SQL")
		return nil, fmt.Errorf("failed to build list colleges query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list colleges query")
		return nil, fmt.Errorf("error querying colleges: %w", err)
	}
	defer rows.Close()

	colleges := []models.College{}
	for rows.Next() {
		var c models.College
		if err := rows.Scan(&c.CollegeCode, &c.CollegeName); err != nil {
			return nil, fmt.Errorf("error scanning college row: %w", err)
		}
		colleges = append(colleges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating college rows: %w", err)
	}
	return colleges, nil
}
