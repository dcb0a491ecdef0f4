package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
)

func TestIsStudentID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"2023-0001", true},
		{"0000-0000", true},
		{"2023-001", false},
		{"20230001", false},
		{"2023-00012", false},
		{"abcd-efgh", false},
		{" 2023-0001", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStudentID(tt.id))
		})
	}
}

func TestCheckStudent(t *testing.T) {
	valid := models.Student{StudentID: "2023-0001", FirstName: "Ana", LastName: "Cruz",
		ProgramCode: "BSCS", YearLevel: 2, Gender: models.GenderFemale}
	require.NoError(t, CheckStudent(valid))

	missing := valid
	missing.FirstName = ""
	assert.Equal(t, apperrors.MsgMissingFields, CheckStudent(missing).Error())

	badID := valid
	badID.StudentID = "2023-1"
	assert.ErrorIs(t, CheckStudent(badID), apperrors.ErrValidationFailed)
	assert.Equal(t, apperrors.ErrInvalidStudentID, CheckStudent(badID))

	year := valid
	year.YearLevel = 6
	assert.EqualError(t, CheckStudent(year), MsgInvalidYearLevel)

	gender := valid
	gender.Gender = "Other"
	assert.EqualError(t, CheckStudent(gender), MsgInvalidGender)

	long := valid
	long.LastName = "AbcdefghijabcdefghijabcdefghijabcdefghijabcdefghijK"
	assert.EqualError(t, CheckStudent(long), "Last name must be at most 50 characters.")
}

func TestNormalizeStudent(t *testing.T) {
	s := NormalizeStudent(models.Student{StudentID: " 2023-0001 ", FirstName: "  Ana", Gender: "female "})
	assert.Equal(t, "2023-0001", s.StudentID)
	assert.Equal(t, "Ana", s.FirstName)
	assert.Equal(t, models.GenderFemale, s.Gender)
}

func TestCheckCollegeAndProgram(t *testing.T) {
	assert.NoError(t, CheckCollege(NormalizeCollege(models.College{CollegeCode: " CCS ", CollegeName: "Computing"})))
	assert.Equal(t, apperrors.ErrMissingFields, CheckCollege(NormalizeCollege(models.College{CollegeCode: "  ", CollegeName: "X"})))
	assert.EqualError(t, CheckCollege(models.College{CollegeCode: "ABCDEFGHIJK", CollegeName: "X"}),
		"College code must be at most 10 characters.")

	assert.Equal(t, apperrors.ErrMissingFields, CheckProgram(models.Program{ProgramCode: "BSCS", ProgramName: "CS"}))
	assert.NoError(t, CheckProgram(models.Program{ProgramCode: "BSCS", ProgramName: "CS", CollegeCode: "CCS"}))
}

func TestCheckSignup(t *testing.T) {
	assert.NoError(t, CheckSignup("registrar", "registrar@school.edu", "secret1"))
	assert.EqualError(t, CheckSignup("", "a@b.co", "secret1"), "Username is required.")
	assert.EqualError(t, CheckSignup("u", "not-an-email", "secret1"), MsgInvalidEmail)
	assert.EqualError(t, CheckSignup("u", "a@b.co", "short"), MsgPasswordTooShort)
}

func TestRegisterTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterTags(v))

	type form struct {
		ID   string `validate:"studentid"`
		Name string `validate:"trimmed"`
	}
	assert.NoError(t, v.Struct(form{ID: "2024-1234", Name: "Ana"}))
	assert.Error(t, v.Struct(form{ID: "2024-12345", Name: "Ana"}))
	assert.Error(t, v.Struct(form{ID: "2024-1234", Name: "   "}))
}
