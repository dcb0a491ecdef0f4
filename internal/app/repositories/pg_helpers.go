package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssis-app/ssis/internal/pkg/logger"
)

// count runs a single-value COUNT(*) query.
func count(ctx context.Context, db *pgxpool.Pool, b squirrel.SelectBuilder) (int, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count SQL")
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var n int
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Msg("Error executing count query")
		return 0, fmt.Errorf("error counting rows: %w", err)
	}
	return n, nil
}

// exists wraps b in SELECT EXISTS (...).
func exists(ctx context.Context, db *pgxpool.Pool, b squirrel.SelectBuilder) (bool, error) {
	sql, args, err := b.Prefix("SELECT EXISTS (").Suffix(")").Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building exists SQL")
		return false, fmt.Errorf("failed to build existence query: %w", err)
	}

	var found bool
	err = db.QueryRow(ctx, sql, args...).Scan(&found)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Msg("Error checking existence")
		return false, fmt.Errorf("error checking existence: %w", err)
	}
	return found, nil
}
