package dto

import "github.com/ssis-app/ssis/internal/app/models"

// CollegeRequest is the create/update body for a college
type CollegeRequest struct {
	CollegeCode string `json:"collegeCode" binding:"trimmed,max=10"`
	CollegeName string `json:"collegeName" binding:"trimmed,max=100"`
}

// Model converts the request to the domain model
func (r CollegeRequest) Model() models.College {
	return models.College{CollegeCode: r.CollegeCode, CollegeName: r.CollegeName}
}

// ProgramRequest is the create/update body for a program
type ProgramRequest struct {
	ProgramCode string `json:"programCode" binding:"trimmed,max=10"`
	ProgramName string `json:"programName" binding:"trimmed,max=100"`
	CollegeCode string `json:"collegeCode" binding:"trimmed"`
}

// Model converts the request to the domain model
func (r ProgramRequest) Model() models.Program {
	return models.Program{ProgramCode: r.ProgramCode, ProgramName: r.ProgramName, CollegeCode: r.CollegeCode}
}

// StudentRequest is the create/update body for a student
type StudentRequest struct {
	StudentID   string `json:"studentID" binding:"trimmed,studentid"`
	FirstName   string `json:"firstName" binding:"trimmed,max=50"`
	LastName    string `json:"lastName" binding:"trimmed,max=50"`
	ProgramCode string `json:"programCode" binding:"trimmed"`
	YearLevel   int    `json:"yearLevel" binding:"required,min=1,max=5"`
	Gender      string `json:"gender" binding:"trimmed"`
}

// Model converts the request to the domain model
func (r StudentRequest) Model() models.Student {
	return models.Student{
		StudentID:   r.StudentID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		ProgramCode: r.ProgramCode,
		YearLevel:   r.YearLevel,
		Gender:      r.Gender,
	}
}
