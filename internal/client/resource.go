package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// Resource is the CRUD client for one resource type.
type Resource[T any] struct {
	session *Session
	desc    query.Resource
}

// NewResource creates a client for the resource r.
func NewResource[T any](s *Session, r query.Resource) *Resource[T] {
	return &Resource[T]{session: s, desc: r}
}

// Colleges returns the college client.
func Colleges(s *Session) *Resource[models.College] {
	return NewResource[models.College](s, query.Colleges)
}

// Programs returns the program client.
func Programs(s *Session) *Resource[models.Program] {
	return NewResource[models.Program](s, query.Programs)
}

// Students returns the student client.
func Students(s *Session) *Resource[models.Student] {
	return NewResource[models.Student](s, query.Students)
}

// Descriptor returns the resource description.
func (c *Resource[T]) Descriptor() query.Resource {
	return c.desc
}

func (c *Resource[T]) path(parts ...string) string {
	p := "/api/" + c.desc.Name
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// List fetches one page.
func (c *Resource[T]) List(ctx context.Context, p query.Params) (query.Page[T], error) {
	page := query.Page[T]{Key: c.desc.Name}
	if err := c.session.do(ctx, http.MethodGet, c.path(), p.Values(), nil, &page); err != nil {
		return query.Page[T]{}, err
	}
	return page, nil
}

// Dropdown fetches every row, unpaginated. The rows arrive under the
// resource's plural key.
func (c *Resource[T]) Dropdown(ctx context.Context) ([]T, error) {
	var envelope map[string][]T
	if err := c.session.do(ctx, http.MethodGet, c.path("dropdown"), nil, nil, &envelope); err != nil {
		return nil, err
	}
	items, ok := envelope[c.desc.Name]
	if !ok {
		return nil, fmt.Errorf("response has no %q field", c.desc.Name)
	}
	return items, nil
}

// Total returns the number of rows.
func (c *Resource[T]) Total(ctx context.Context) (int, error) {
	var resp dto.TotalResponse
	if err := c.session.do(ctx, http.MethodGet, c.path("total"), nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// Get fetches one row by its natural key.
func (c *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := c.session.do(ctx, http.MethodGet, c.path(id), nil, nil, &out)
	return out, err
}

// Create inserts v and returns the stored row.
func (c *Resource[T]) Create(ctx context.Context, v T) (T, error) {
	return c.mutate(ctx, http.MethodPost, c.path("create"), v)
}

// Update replaces the row stored under originalID with v.
func (c *Resource[T]) Update(ctx context.Context, originalID string, v T) (T, error) {
	return c.mutate(ctx, http.MethodPut, c.path(originalID), v)
}

// Delete removes the row.
func (c *Resource[T]) Delete(ctx context.Context, id string) error {
	return c.session.do(ctx, http.MethodDelete, c.path(id), nil, nil, nil)
}

// mutate sends v and unwraps the { <singular>: T, message } envelope.
func (c *Resource[T]) mutate(ctx context.Context, method, path string, v T) (T, error) {
	var zero T
	var envelope map[string]json.RawMessage
	if err := c.session.do(ctx, method, path, nil, v, &envelope); err != nil {
		return zero, err
	}
	raw, ok := envelope[c.desc.Singular]
	if !ok {
		return zero, fmt.Errorf("response has no %q field", c.desc.Singular)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", c.desc.Singular, err)
	}
	return out, nil
}
