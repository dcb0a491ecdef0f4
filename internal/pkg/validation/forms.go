package validation

import (
	"fmt"
	"strings"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
)

// Messages returned by the form checks.
const (
	MsgInvalidYearLevel = "Year level must be between 1 and 5."
	MsgInvalidGender    = "Gender must be Male or Female."
	MsgPasswordTooShort = "Password must be at least 6 characters."
	MsgInvalidEmail     = "Email is not valid."
)

// NormalizeCollege trims every text field.
func NormalizeCollege(c models.College) models.College {
	c.CollegeCode = strings.TrimSpace(c.CollegeCode)
	c.CollegeName = strings.TrimSpace(c.CollegeName)
	return c
}

// NormalizeProgram trims every text field.
func NormalizeProgram(p models.Program) models.Program {
	p.ProgramCode = strings.TrimSpace(p.ProgramCode)
	p.ProgramName = strings.TrimSpace(p.ProgramName)
	p.CollegeCode = strings.TrimSpace(p.CollegeCode)
	return p
}

// NormalizeStudent trims every text field and canonicalises the gender spelling.
func NormalizeStudent(s models.Student) models.Student {
	s.StudentID = strings.TrimSpace(s.StudentID)
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.ProgramCode = strings.TrimSpace(s.ProgramCode)
	s.Gender = strings.TrimSpace(s.Gender)
	switch {
	case strings.EqualFold(s.Gender, models.GenderMale):
		s.Gender = models.GenderMale
	case strings.EqualFold(s.Gender, models.GenderFemale):
		s.Gender = models.GenderFemale
	}
	return s
}

// CheckCollege validates an already normalised college.
func CheckCollege(c models.College) error {
	if c.CollegeCode == "" || c.CollegeName == "" {
		return apperrors.ErrMissingFields
	}
	if err := maxLen("College code", c.CollegeCode, CodeMaxLength); err != nil {
		return err
	}
	return maxLen("College name", c.CollegeName, NameMaxLength)
}

// CheckProgram validates an already normalised program.
func CheckProgram(p models.Program) error {
	if p.ProgramCode == "" || p.ProgramName == "" || p.CollegeCode == "" {
		return apperrors.ErrMissingFields
	}
	if err := maxLen("Program code", p.ProgramCode, CodeMaxLength); err != nil {
		return err
	}
	return maxLen("Program name", p.ProgramName, NameMaxLength)
}

// CheckStudent validates an already normalised student.
func CheckStudent(s models.Student) error {
	if s.StudentID == "" || s.FirstName == "" || s.LastName == "" ||
		s.ProgramCode == "" || s.YearLevel == 0 || s.Gender == "" {
		return apperrors.ErrMissingFields
	}
	if !IsStudentID(s.StudentID) {
		return apperrors.ErrInvalidStudentID
	}
	if !NewNumericValidation(s.YearLevel).WithMin(YearLevelMin).WithMax(YearLevelMax).Validate() {
		return apperrors.NewValidationError(MsgInvalidYearLevel)
	}
	if s.Gender != models.GenderMale && s.Gender != models.GenderFemale {
		return apperrors.NewValidationError(MsgInvalidGender)
	}
	if err := maxLen("First name", s.FirstName, PersonNameMaxLength); err != nil {
		return err
	}
	return maxLen("Last name", s.LastName, PersonNameMaxLength)
}

// CheckSignup validates a new account's credentials.
func CheckSignup(username, email, password string) error {
	switch {
	case username == "":
		return apperrors.NewValidationError("Username is required.")
	case email == "":
		return apperrors.NewValidationError("Email is required.")
	case password == "":
		return apperrors.NewValidationError("Password is required.")
	}
	if !CompiledPatterns.Email.MatchString(email) {
		return apperrors.NewValidationError(MsgInvalidEmail)
	}
	if !NewStringValidation(password).WithMinLength(PasswordMinLength).Validate() {
		return apperrors.NewValidationError(MsgPasswordTooShort)
	}
	return maxLen("Username", username, PersonNameMaxLength)
}

func maxLen(label, value string, max int) error {
	if NewStringValidation(value).WithMaxLength(max).Validate() {
		return nil
	}
	return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters.", label, max))
}
