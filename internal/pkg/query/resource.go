// Package query defines the list-view query contract shared by the API server
// and the dashboard client: request parameters, their URL encoding, the
// paginated response envelope and the page arithmetic both sides agree on.
package query

// SearchAll is the searchBy sentinel meaning "match if any field contains the text".
const SearchAll = "all"

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// Resource describes one listable resource type.
type Resource struct {
	Name     string   // URL segment and response key, e.g. "colleges"
	Singular string   // body key for single-entity responses, e.g. "college"
	Label    string   // human label, e.g. "College"
	Key      string   // natural (primary) key field
	Fields   []string // sortable and searchable fields
	PerPage  int      // default page size
}

var (
	Colleges = Resource{
		Name:     "colleges",
		Singular: "college",
		Label:    "College",
		Key:      "collegeCode",
		Fields:   []string{"collegeCode", "collegeName"},
		PerPage:  15,
	}
	Programs = Resource{
		Name:     "programs",
		Singular: "program",
		Label:    "Program",
		Key:      "programCode",
		Fields:   []string{"programCode", "programName", "collegeCode"},
		PerPage:  15,
	}
	Students = Resource{
		Name:     "students",
		Singular: "student",
		Label:    "Student",
		Key:      "studentID",
		Fields:   []string{"studentID", "firstName", "lastName", "programCode", "yearLevel", "gender"},
		PerPage:  10,
	}
)

// Dependents lists the resources whose rows embed codes of the named resource.
// A mutation of the parent can change what a dependent's pickers should offer.
var Dependents = map[string][]string{
	Colleges.Name: {Programs.Name},
	Programs.Name: {Students.Name},
}

// HasField reports whether field is sortable/searchable on the resource.
func (r Resource) HasField(field string) bool {
	for _, f := range r.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Lookup returns the resource registered under name.
func Lookup(name string) (Resource, bool) {
	switch name {
	case Colleges.Name:
		return Colleges, true
	case Programs.Name:
		return Programs, true
	case Students.Name:
		return Students, true
	}
	return Resource{}, false
}
