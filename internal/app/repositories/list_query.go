package repositories

import (
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/ssis-app/ssis/internal/pkg/query"
)

// listSpec maps a resource's contract fields onto SQL columns.
type listSpec struct {
	resource query.Resource
	table    string
	columns  map[string]string // contract field -> column expression
	numeric  map[string]bool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where builds the search predicate. Filters are added by the caller.
func (s listSpec) where(p query.Params) squirrel.And {
	cond := squirrel.And{}
	needle := strings.TrimSpace(p.Search)
	if needle == "" {
		return cond
	}

	pattern := "%" + likeEscaper.Replace(needle) + "%"
	fields := s.resource.Fields
	if p.SearchBy != query.SearchAll && s.resource.HasField(p.SearchBy) {
		fields = []string{p.SearchBy}
	}

	or := squirrel.Or{}
	for _, f := range fields {
		col := s.columns[f]
		if s.numeric[f] {
			or = append(or, squirrel.Expr("CAST("+col+" AS TEXT) ILIKE ?", pattern))
			continue
		}
		or = append(or, squirrel.ILike{col: pattern})
	}
	return append(cond, or)
}

// orderBy yields the total order: the requested column, then the natural
// key ascending. Text compares case-insensitively in byte order.
func (s listSpec) orderBy(p query.Params) []string {
	dir := "ASC"
	if p.Order == query.Desc {
		dir = "DESC"
	}

	sortField := p.SortBy
	if !s.resource.HasField(sortField) {
		sortField = s.resource.Key
	}
	col := s.columns[sortField]
	if !s.numeric[sortField] {
		col = "LOWER(" + col + `) COLLATE "C"`
	}
	return []string{col + " " + dir, s.columns[s.resource.Key] + ` COLLATE "C" ASC`}
}

// page applies LIMIT/OFFSET for p.
func page(b squirrel.SelectBuilder, p query.Params) squirrel.SelectBuilder {
	return b.Limit(uint64(p.PerPage)).Offset(uint64(query.Offset(p.Page, p.PerPage)))
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
