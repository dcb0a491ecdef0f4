package models

import "strconv"

// DefaultPhotoURL is served for students without an uploaded photo.
const DefaultPhotoURL = "/static/default-avatar.png"

// NoProgram is what a student without a program reports as its program code.
const NoProgram = "N/A"

// Gender values accepted for students.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Student defines the student model based on the 'students' table
type Student struct {
	StudentID   string `json:"studentID" db:"student_id" example:"2023-0001"`
	FirstName   string `json:"firstName" db:"first_name" example:"Juan"`
	LastName    string `json:"lastName" db:"last_name" example:"Dela Cruz"`
	ProgramCode string `json:"programCode" db:"program_code" example:"BSCS"`
	YearLevel   int    `json:"yearLevel" db:"year_level" example:"1"`
	Gender      string `json:"gender" db:"gender" example:"Male"`
	PhotoURL    string `json:"photoUrl,omitempty" db:"photo_url"`
}

// Field returns the value of a list field by its contract name.
func (s Student) Field(name string) string {
	switch name {
	case "studentID":
		return s.StudentID
	case "firstName":
		return s.FirstName
	case "lastName":
		return s.LastName
	case "programCode":
		return s.ProgramCode
	case "yearLevel":
		return strconv.Itoa(s.YearLevel)
	case "gender":
		return s.Gender
	}
	return ""
}

// Identity returns the code and display name used in confirmations.
func (s Student) Identity() (code, name string) {
	return s.StudentID, s.FirstName + " " + s.LastName
}

// WithDefaults fills the serialised placeholders for optional columns.
func (s Student) WithDefaults() Student {
	if s.PhotoURL == "" {
		s.PhotoURL = DefaultPhotoURL
	}
	if s.ProgramCode == "" {
		s.ProgramCode = NoProgram
	}
	return s
}

// ProgramCount is one row of the students-per-program statistic.
type ProgramCount struct {
	ProgramCode string `json:"programCode"`
	Count       int    `json:"count"`
}

// GenderCount is one row of the students-per-gender statistic.
type GenderCount struct {
	Gender string `json:"gender"`
	Count  int    `json:"count"`
}
