package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/cache"
	"github.com/ssis-app/ssis/internal/events"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// Services defined in this package:
// - CollegeService, ProgramService, StudentService: the registry resources
// - AuthService: dashboard accounts and sessions
// - SpreadsheetService: student export/import
// - PhotoService: student photo uploads

// ListConfig carries the configured page sizes.
type ListConfig struct {
	CollegesPerPage int
	ProgramsPerPage int
	StudentsPerPage int
	MaxPerPage      int
}

// resource returns r with its default page size taken from the configuration.
func (c ListConfig) resource(r query.Resource) query.Resource {
	var perPage int
	switch r.Name {
	case query.Colleges.Name:
		perPage = c.CollegesPerPage
	case query.Programs.Name:
		perPage = c.ProgramsPerPage
	case query.Students.Name:
		perPage = c.StudentsPerPage
	}
	if perPage > 0 {
		r.PerPage = perPage
	}
	return r
}

// normalize clamps list parameters for r.
func (c ListConfig) normalize(r query.Resource, p query.Params) query.Params {
	return p.Normalize(c.resource(r), c.MaxPerPage)
}

// mutationNotifier runs the side effects of a committed mutation: it drops
// the dropdown cache entries that may now be stale and publishes an event.
// Failures are logged and never fail the request, the row is already written.
type mutationNotifier struct {
	cache  cache.DropdownCache
	events events.Publisher
	logger zerolog.Logger
}

func newMutationNotifier(c cache.DropdownCache, p events.Publisher, logger zerolog.Logger) *mutationNotifier {
	if c == nil {
		c = cache.Nop{}
	}
	if p == nil {
		p = events.Nop{}
	}
	return &mutationNotifier{cache: c, events: p, logger: logger}
}

func (n *mutationNotifier) changed(ctx context.Context, r query.Resource, action events.Action, key, previousKey string) {
	stale := append([]string{r.Name}, query.Dependents[r.Name]...)
	if err := n.cache.Invalidate(ctx, stale...); err != nil {
		n.logger.Warn().Err(err).Strs("resources", stale).Msg("Failed to invalidate dropdown cache")
	}

	e := events.Event{Resource: r.Name, Action: action, Key: key}
	if previousKey != key {
		e.PreviousKey = previousKey
	}
	if err := n.events.Publish(ctx, e); err != nil {
		n.logger.Warn().Err(err).Str("resource", r.Name).Str("key", key).Msg("Failed to publish mutation event")
	}
}

// dropdown serves the unpaginated listing of r through the cache.
func dropdown[T any](ctx context.Context, n *mutationNotifier, r query.Resource, load func(context.Context) ([]T, error)) ([]T, error) {
	var items []T
	hit, err := n.cache.Get(ctx, r.Name, &items)
	if err != nil {
		n.logger.Warn().Err(err).Str("resource", r.Name).Msg("Dropdown cache read failed")
	}
	if hit {
		return items, nil
	}

	items, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	if err := n.cache.Set(ctx, r.Name, items); err != nil {
		n.logger.Warn().Err(err).Str("resource", r.Name).Msg("Dropdown cache write failed")
	}
	return items, nil
}
