package workflow

import (
	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
	"github.com/ssis-app/ssis/internal/pkg/validation"
)

// Form describes how a dialog treats one resource's values.
type Form[T any] struct {
	Resource query.Resource
	// KeyLabel names the natural key in messages, e.g. "College Code".
	KeyLabel string
	// Conflict is the server message reporting a duplicate key.
	Conflict  string
	Normalize func(T) T
	Validate  func(T) error
	Identity  func(T) (code, name string)
}

// CollegeForm is the college dialog form.
var CollegeForm = Form[models.College]{
	Resource:  query.Colleges,
	KeyLabel:  "College Code",
	Conflict:  apperrors.MsgCollegeCodeExists,
	Normalize: validation.NormalizeCollege,
	Validate:  validation.CheckCollege,
	Identity:  models.College.Identity,
}

// ProgramForm is the program dialog form.
var ProgramForm = Form[models.Program]{
	Resource:  query.Programs,
	KeyLabel:  "Program Code",
	Conflict:  apperrors.MsgProgramCodeExists,
	Normalize: validation.NormalizeProgram,
	Validate:  validation.CheckProgram,
	Identity:  models.Program.Identity,
}

// StudentForm is the student dialog form.
var StudentForm = Form[models.Student]{
	Resource:  query.Students,
	KeyLabel:  "Student ID",
	Conflict:  apperrors.MsgStudentIDExists,
	Normalize: validation.NormalizeStudent,
	Validate:  validation.CheckStudent,
	Identity:  models.Student.Identity,
}
