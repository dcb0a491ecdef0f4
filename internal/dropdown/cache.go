// Package dropdown caches the unpaginated option lists that mutation dialogs
// offer in their pickers (colleges for a program, programs for a student).
package dropdown

import (
	"context"
	"sync"

	"github.com/ssis-app/ssis/internal/invalidate"
)

// Loader fetches every option of a resource.
type Loader[T any] interface {
	Dropdown(ctx context.Context) ([]T, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[T any] func(ctx context.Context) ([]T, error)

// Dropdown calls f.
func (f LoaderFunc[T]) Dropdown(ctx context.Context) ([]T, error) { return f(ctx) }

// Cache loads the options once and serves them until invalidated. A dialog
// owns one Cache for its lifetime.
type Cache[T any] struct {
	loader Loader[T]

	mu     sync.Mutex
	items  []T
	loaded bool
	stale  bool
	loads  int

	stop func()
	done chan struct{}
}

// New creates an empty cache.
func New[T any](loader Loader[T]) *Cache[T] {
	return &Cache[T]{loader: loader}
}

// Watch marks the cache stale whenever resource is invalidated on bus.
// The subscription ends with Close.
func (c *Cache[T]) Watch(bus *invalidate.Bus, resource string) {
	signals, stop := bus.Subscribe(resource)
	done := make(chan struct{})

	c.mu.Lock()
	c.stop = stop
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for range signals {
			c.Invalidate()
		}
	}()
}

// Get returns the options, loading them on first use or after an
// invalidation. A failed load leaves the previous options in place.
func (c *Cache[T]) Get(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && !c.stale {
		return c.items, nil
	}

	items, err := c.loader.Dropdown(ctx)
	c.loads++
	if err != nil {
		return c.items, err
	}
	if items == nil {
		items = []T{}
	}
	c.items = items
	c.loaded = true
	c.stale = false
	return c.items, nil
}

// Reload discards the options and fetches them again.
func (c *Cache[T]) Reload(ctx context.Context) ([]T, error) {
	c.Invalidate()
	return c.Get(ctx)
}

// Preload refetches the options, keeping the previous ones when it fails.
func (c *Cache[T]) Preload(ctx context.Context) error {
	_, err := c.Reload(ctx)
	return err
}

// Has reports whether an option satisfies match, loading the options first
// when needed.
func (c *Cache[T]) Has(ctx context.Context, match func(T) bool) (bool, error) {
	items, err := c.Get(ctx)
	if err != nil && len(items) == 0 {
		return false, err
	}
	for _, item := range items {
		if match(item) {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate makes the next Get reload.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Loads returns how many requests the cache has issued.
func (c *Cache[T]) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// Close stops watching for invalidations.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}
