package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Flip returns the opposite direction.
func (o Order) Flip() Order {
	if o == Desc {
		return Asc
	}
	return Desc
}

// Valid reports whether o is a known direction.
func (o Order) Valid() bool {
	return o == Asc || o == Desc
}

// Filters carries the independent multi-select constraints of the student list.
// Values are OR-ed within a field and AND-ed across fields; an empty field
// imposes no constraint.
type Filters struct {
	ProgramCode []string `json:"programCode,omitempty"`
	Gender      []string `json:"gender,omitempty"`
	YearLevel   []int    `json:"yearLevel,omitempty"`
}

// Empty reports whether no constraint is set.
func (f Filters) Empty() bool {
	return len(f.ProgramCode) == 0 && len(f.Gender) == 0 && len(f.YearLevel) == 0
}

// Clone returns a deep copy so callers cannot alias internal slices.
func (f Filters) Clone() Filters {
	return Filters{
		ProgramCode: append([]string(nil), f.ProgramCode...),
		Gender:      append([]string(nil), f.Gender...),
		YearLevel:   append([]int(nil), f.YearLevel...),
	}
}

// Equal compares two filter sets ignoring element order.
func (f Filters) Equal(o Filters) bool {
	return sameStrings(f.ProgramCode, o.ProgramCode) &&
		sameStrings(f.Gender, o.Gender) &&
		sameInts(f.YearLevel, o.YearLevel)
}

// Match evaluates the filter predicate against one student row.
func (f Filters) Match(programCode, gender string, yearLevel int) bool {
	if len(f.ProgramCode) > 0 && !containsFold(f.ProgramCode, programCode) {
		return false
	}
	if len(f.Gender) > 0 && !containsFold(f.Gender, gender) {
		return false
	}
	if len(f.YearLevel) > 0 {
		found := false
		for _, y := range f.YearLevel {
			if y == yearLevel {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Params is one list request.
type Params struct {
	Page     int
	PerPage  int
	Search   string
	SearchBy string
	SortBy   string
	Order    Order
	Filters  Filters
}

// DefaultParams returns the initial list state for a resource.
func DefaultParams(r Resource) Params {
	return Params{
		Page:     1,
		PerPage:  r.PerPage,
		SearchBy: SearchAll,
		SortBy:   r.Key,
		Order:    Asc,
	}
}

// Normalize clamps the parameters into the contract's domain. Unknown sort or
// search fields fall back to the resource defaults rather than failing.
func (p Params) Normalize(r Resource, maxPerPage int) Params {
	if maxPerPage <= 0 {
		maxPerPage = MaxPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = r.PerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	p.Search = strings.TrimSpace(p.Search)
	if p.SearchBy != SearchAll && !r.HasField(p.SearchBy) {
		p.SearchBy = SearchAll
	}
	if !r.HasField(p.SortBy) {
		p.SortBy = r.Key
	}
	if !p.Order.Valid() {
		p.Order = Asc
	}
	if r.Name != Students.Name {
		p.Filters = Filters{}
	}
	return p
}

// Values encodes the parameters for a GET query string.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("per_page", strconv.Itoa(p.PerPage))
	v.Set("search", p.Search)
	v.Set("searchBy", p.SearchBy)
	v.Set("sortBy", p.SortBy)
	v.Set("order", string(p.Order))
	for _, c := range p.Filters.ProgramCode {
		v.Add("programCode", c)
	}
	for _, g := range p.Filters.Gender {
		v.Add("gender", g)
	}
	for _, y := range p.Filters.YearLevel {
		v.Add("yearLevel", strconv.Itoa(y))
	}
	return v
}

// ParseValues decodes a query string. The result still needs Normalize.
func ParseValues(v url.Values) Params {
	p := Params{
		Search:   v.Get("search"),
		SearchBy: v.Get("searchBy"),
		SortBy:   v.Get("sortBy"),
		Order:    Order(strings.ToLower(v.Get("order"))),
	}
	p.Page, _ = strconv.Atoi(v.Get("page"))
	p.PerPage, _ = strconv.Atoi(v.Get("per_page"))

	p.Filters.ProgramCode = nonEmpty(v["programCode"])
	p.Filters.Gender = nonEmpty(v["gender"])
	for _, raw := range v["yearLevel"] {
		if y, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			p.Filters.YearLevel = append(p.Filters.YearLevel, y)
		}
	}
	return p
}

// Pages is ceil(total / perPage); zero rows means zero pages.
func Pages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Offset converts a 1-based page into a row offset.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
