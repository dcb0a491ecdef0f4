package models

// Program belongs to a college through CollegeCode.
type Program struct {
	ProgramCode string `json:"programCode" db:"program_code" example:"BSCS"`
	ProgramName string `json:"programName" db:"program_name" example:"Bachelor of Science in Computer Science"`
	CollegeCode string `json:"collegeCode" db:"college_code" example:"CCS"`
}

// Field returns the value of a list field by its contract name.
func (p Program) Field(name string) string {
	switch name {
	case "programCode":
		return p.ProgramCode
	case "programName":
		return p.ProgramName
	case "collegeCode":
		return p.CollegeCode
	}
	return ""
}

// Identity returns the code and display name used in confirmations.
func (p Program) Identity() (code, name string) {
	return p.ProgramCode, p.ProgramName
}
