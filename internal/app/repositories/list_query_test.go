package repositories

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssis-app/ssis/internal/pkg/query"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func TestListSpec_SearchAllFields(t *testing.T) {
	p := query.Params{Page: 2, PerPage: 15, Search: "50%_off", SearchBy: query.SearchAll, SortBy: "collegeName", Order: query.Desc}

	b := sb.Select("college_code").From("colleges").Where(collegeSpec.where(p)).OrderBy(collegeSpec.orderBy(p)...)
	sql, args, err := page(b, p).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT college_code FROM colleges WHERE ((college_code ILIKE $1 OR college_name ILIKE $2)) `+
			`ORDER BY LOWER(college_name) COLLATE "C" DESC, college_code COLLATE "C" ASC LIMIT 15 OFFSET 15`,
		sql)
	assert.Equal(t, []interface{}{`%50\%\_off%`, `%50\%\_off%`}, args)
}

func TestListSpec_NumericField(t *testing.T) {
	p := query.Params{Search: "2", SearchBy: "yearLevel", SortBy: "yearLevel", Order: query.Asc}

	sql, args, err := sb.Select("student_id").From("students").Where(studentSpec.where(p)).OrderBy(studentSpec.orderBy(p)...).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "CAST(year_level AS TEXT) ILIKE $1")
	assert.Contains(t, sql, `ORDER BY year_level ASC, student_id COLLATE "C" ASC`)
	assert.Equal(t, []interface{}{"%2%"}, args)
}

func TestStudentWhere_Filters(t *testing.T) {
	p := query.Params{SortBy: "studentID", Filters: query.Filters{
		ProgramCode: []string{"BSCS", "bsit"},
		Gender:      []string{"Male"},
		YearLevel:   []int{1, 4},
	}}

	sql, args, err := sb.Select("student_id").From("students").Where(studentWhere(p)).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT student_id FROM students WHERE (LOWER(COALESCE(program_code, 'N/A')) IN ($1,$2) AND LOWER(gender) IN ($3) AND year_level IN ($4,$5))",
		sql)
	assert.Equal(t, []interface{}{"bscs", "bsit", "male", 1, 4}, args)
}

func TestStudentWhere_NoConstraints(t *testing.T) {
	where := studentWhere(query.Params{})
	assert.Empty(t, where)
}
