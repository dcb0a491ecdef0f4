package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Page is the list response envelope:
// { <Key>: T[], total, pages, current_page }.
type Page[T any] struct {
	Key         string
	Items       []T
	Total       int
	Pages       int
	CurrentPage int
}

// NewPage builds a page for params p over a result set of size total.
func NewPage[T any](r Resource, items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Key:         r.Name,
		Items:       items,
		Total:       total,
		Pages:       Pages(total, p.PerPage),
		CurrentPage: p.Page,
	}
}

// MarshalJSON writes the items under the resource key.
func (p Page[T]) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	key := p.Key
	if key == "" {
		key = "items"
	}
	return json.Marshal(map[string]any{
		key:            items,
		"total":        p.Total,
		"pages":        p.Pages,
		"current_page": p.CurrentPage,
	})
}

// UnmarshalJSON reads the items from Key. When Key is empty the only array
// field in the body is used.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for field, dst := range map[string]*int{"total": &p.Total, "pages": &p.Pages, "current_page": &p.CurrentPage} {
		if v, ok := raw[field]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("decode %s: %w", field, err)
			}
		}
	}

	key := p.Key
	if key == "" {
		for k := range raw {
			switch k {
			case "total", "pages", "current_page":
				continue
			}
			key = k
			break
		}
		p.Key = key
	}
	p.Items = []T{}
	if v, ok := raw[key]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &p.Items); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return nil
}

// Row exposes a record's fields to the in-memory evaluator.
type Row interface {
	Field(name string) string
}

// Evaluate applies search, then sort (ties broken by the natural key
// ascending), then pagination to rows that already passed any filters.
// It returns the page slice and the total size of the searched set.
func Evaluate[T Row](r Resource, rows []T, p Params) ([]T, int) {
	matched := make([]T, 0, len(rows))
	needle := strings.ToLower(strings.TrimSpace(p.Search))
	for _, row := range rows {
		if needle == "" || matchSearch(r, row, p.SearchBy, needle) {
			matched = append(matched, row)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a := strings.ToLower(matched[i].Field(p.SortBy))
		b := strings.ToLower(matched[j].Field(p.SortBy))
		if a != b {
			if p.Order == Desc {
				return a > b
			}
			return a < b
		}
		return matched[i].Field(r.Key) < matched[j].Field(r.Key)
	})

	total := len(matched)
	start := Offset(p.Page, p.PerPage)
	if start >= total {
		return []T{}, total
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func matchSearch[T Row](r Resource, row T, searchBy, needle string) bool {
	if searchBy != SearchAll && searchBy != "" {
		return strings.Contains(strings.ToLower(row.Field(searchBy)), needle)
	}
	for _, f := range r.Fields {
		if strings.Contains(strings.ToLower(row.Field(f)), needle) {
			return true
		}
	}
	return false
}
