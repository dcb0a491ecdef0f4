package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

func seeded(t *testing.T) *repositories.Repositories {
	t.Helper()
	ctx := context.Background()
	repos := NewRepositories()
	require.NoError(t, repos.Colleges.Create(ctx, models.College{CollegeCode: "CCS", CollegeName: "Computer Studies"}))
	require.NoError(t, repos.Colleges.Create(ctx, models.College{CollegeCode: "COE", CollegeName: "Engineering"}))
	require.NoError(t, repos.Programs.Create(ctx, models.Program{ProgramCode: "BSCS", ProgramName: "Computer Science", CollegeCode: "CCS"}))
	require.NoError(t, repos.Programs.Create(ctx, models.Program{ProgramCode: "BSIT", ProgramName: "Information Technology", CollegeCode: "CCS"}))
	for _, st := range []models.Student{
		{StudentID: "2023-0001", FirstName: "Ana", LastName: "Cruz", ProgramCode: "BSCS", YearLevel: 1, Gender: "Female"},
		{StudentID: "2023-0002", FirstName: "Ben", LastName: "Diaz", ProgramCode: "BSIT", YearLevel: 2, Gender: "Male"},
		{StudentID: "2023-0003", FirstName: "Cara", LastName: "Ely", ProgramCode: "BSCS", YearLevel: 2, Gender: "Female"},
		{StudentID: "2023-0004", FirstName: "Dan", LastName: "Fox", ProgramCode: "BSIT", YearLevel: 3, Gender: "Male"},
	} {
		require.NoError(t, repos.Students.Create(ctx, st))
	}
	return repos
}

func TestColleges_CaseInsensitiveConflict(t *testing.T) {
	repos := seeded(t)
	ctx := context.Background()

	err := repos.Colleges.Create(ctx, models.College{CollegeCode: "ccs", CollegeName: "dup"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	taken, err := repos.Colleges.CodeTaken(ctx, "ccs", "CCS")
	require.NoError(t, err)
	assert.False(t, taken, "a row does not conflict with itself")
}

func TestColleges_RenameCascades(t *testing.T) {
	repos := seeded(t)
	ctx := context.Background()

	require.NoError(t, repos.Colleges.Update(ctx, "CCS", models.College{CollegeCode: "CICS", CollegeName: "Computing"}))
	p, err := repos.Programs.GetByCode(ctx, "BSCS")
	require.NoError(t, err)
	assert.Equal(t, "CICS", p.CollegeCode)

	_, err = repos.Colleges.GetByCode(ctx, "CCS")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestColleges_DeleteRestricted(t *testing.T) {
	repos := seeded(t)
	ctx := context.Background()

	assert.Equal(t, apperrors.ErrCollegeHasPrograms, repos.Colleges.Delete(ctx, "CCS"))
	assert.NoError(t, repos.Colleges.Delete(ctx, "COE"))
	assert.ErrorIs(t, repos.Colleges.Delete(ctx, "COE"), apperrors.ErrResourceNotFound)
}

func TestPrograms_DeleteNullsStudents(t *testing.T) {
	repos := seeded(t)
	ctx := context.Background()

	require.NoError(t, repos.Programs.Delete(ctx, "BSIT"))
	st, err := repos.Students.GetByID(ctx, "2023-0002")
	require.NoError(t, err)
	assert.Empty(t, st.ProgramCode)
	assert.Equal(t, models.NoProgram, st.WithDefaults().ProgramCode)

	counts, err := repos.Students.CountByProgram(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ProgramCount{{ProgramCode: "BSCS", Count: 2}, {ProgramCode: "N/A", Count: 2}}, counts)
}

func TestPrograms_UnknownCollege(t *testing.T) {
	repos := seeded(t)
	err := repos.Programs.Create(context.Background(), models.Program{ProgramCode: "BSX", ProgramName: "X", CollegeCode: "NOPE"})
	assert.Equal(t, apperrors.ErrUnknownCollege, err)
}

func TestStudents_FilterComposition(t *testing.T) {
	repos := seeded(t)
	ctx := context.Background()

	p := query.DefaultParams(query.Students)
	p.Filters = query.Filters{ProgramCode: []string{"BSCS"}, YearLevel: []int{2}}
	items, total, err := repos.Students.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2023-0003", items[0].StudentID)

	p.Filters = query.Filters{Gender: []string{"Male"}, YearLevel: []int{2, 3}}
	p.SortBy, p.Order = "studentID", query.Desc
	items, total, err = repos.Students.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "2023-0004", items[0].StudentID)

	all, err := repos.Students.ListAll(ctx, p)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStudents_UpdateKeepsPhoto(t *testing.T) {
	repos := seeded(t)
	ctx := context.Background()

	require.NoError(t, repos.Students.UpdatePhoto(ctx, "2023-0001", "/uploads/a.jpg"))
	require.NoError(t, repos.Students.Update(ctx, "2023-0001", models.Student{
		StudentID: "2023-0101", FirstName: "Ana", LastName: "Cruz", ProgramCode: "BSCS", YearLevel: 2, Gender: "Female"}))

	st, err := repos.Students.GetByID(ctx, "2023-0101")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.jpg", st.PhotoURL)
	assert.Equal(t, 2, st.YearLevel)

	err = repos.Students.Update(ctx, "2023-0101", models.Student{StudentID: "2023-0002"})
	assert.Equal(t, apperrors.ErrStudentIDAlreadyExists, err)
}

func TestUsers(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	id, err := repos.Users.Create(ctx, &models.User{Username: "reg", Email: "reg@school.edu", Password: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = repos.Users.Create(ctx, &models.User{Username: "REG", Email: "x@school.edu"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	u, err := repos.Users.GetByEmail(ctx, "REG@school.edu")
	require.NoError(t, err)
	assert.Equal(t, "reg", u.Username)
}
