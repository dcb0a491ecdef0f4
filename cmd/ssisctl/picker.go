package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ssis-app/ssis/internal/client"
	"github.com/ssis-app/ssis/internal/dropdown"
	"github.com/ssis-app/ssis/internal/workflow"
)

// picker checks one code field of a form against the options of the
// resource it references. The options are cached for the dialog's lifetime
// and go stale on the invocation's bus.
type picker[T any] struct {
	flag    string
	label   string
	allowed string // accepted without a lookup, e.g. models.NoProgram
	code    func(T) string
	options workflow.Preloader
	has     func(ctx context.Context, code string) (bool, error)
	codes   func(ctx context.Context) []string
	close   func()
}

func newPicker[T any, O any](
	c *ctl,
	flag string,
	options *client.Resource[O],
	identity func(O) (string, string),
	code func(T) string,
	allowed string,
) *picker[T] {
	r := options.Descriptor()
	cache := dropdown.New[O](options)
	cache.Watch(c.bus, r.Name)

	codeOf := func(o O) string {
		k, _ := identity(o)
		return k
	}
	return &picker[T]{
		flag:    flag,
		label:   r.Label,
		allowed: allowed,
		code:    code,
		options: cache,
		has: func(ctx context.Context, want string) (bool, error) {
			return cache.Has(ctx, func(o O) bool { return strings.EqualFold(codeOf(o), want) })
		},
		codes: func(ctx context.Context) []string {
			items, _ := cache.Get(ctx)
			out := make([]string, 0, len(items))
			for _, o := range items {
				out = append(out, codeOf(o))
			}
			return out
		},
		close: cache.Close,
	}
}

// check rejects a reference to a code the options do not list. Empty codes
// are left to form validation.
func (p *picker[T]) check(ctx context.Context, v T) error {
	if p == nil {
		return nil
	}
	code := strings.TrimSpace(p.code(v))
	if code == "" || (p.allowed != "" && code == p.allowed) {
		return nil
	}
	ok, err := p.has(ctx, code)
	if err != nil {
		return apiExit(err)
	}
	if !ok {
		return cli.Exit(fmt.Sprintf("Unknown %s code %s for --%s. Choose one of: %s.",
			strings.ToLower(p.label), code, p.flag, strings.Join(p.codes(ctx), ", ")), 1)
	}
	return nil
}

func (p *picker[T]) Close() {
	if p != nil {
		p.close()
	}
}
