package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestViolationChecks(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "colleges_code_lower_idx"})
	fk := &pgconn.PgError{Code: CodeForeignKeyViolation}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("boom")))

	assert.True(t, IsDuplicateConstraintError(unique, "colleges_code_lower_idx"))
	assert.False(t, IsDuplicateConstraintError(unique, "other"))
}
