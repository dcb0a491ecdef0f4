package models

// College is the top-level academic unit. CollegeCode is user chosen and unique.
type College struct {
	CollegeCode string `json:"collegeCode" db:"college_code" example:"CCS"`
	CollegeName string `json:"collegeName" db:"college_name" example:"College of Computer Studies"`
}

// Field returns the value of a list field by its contract name.
func (c College) Field(name string) string {
	switch name {
	case "collegeCode":
		return c.CollegeCode
	case "collegeName":
		return c.CollegeName
	}
	return ""
}

// Identity returns the code and display name used in confirmations.
func (c College) Identity() (code, name string) {
	return c.CollegeCode, c.CollegeName
}
