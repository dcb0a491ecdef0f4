package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ssis-app/ssis/internal/listview"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// settleTimeout bounds the wait for a list query to answer.
const settleTimeout = 10 * time.Second

const browseHelp = `search <text>       search, empty text clears
by <field>|all      choose the searched field
sort <field>        sort by field; again flips the order
next, prev, page N  move between pages
filter k=v,v ...    students only: program, gender, year; bare "filter" clears
delete <key>        remove a row
refresh, help, quit`

// browse runs an interactive list view over stdin. Deletions go through the
// same bus as the list, which re-queries once they are dismissed.
func browse[T entity](cc *cli.Context, c *ctl, def resourceDef[T]) error {
	r := def.form.Resource
	m := listview.New[T](def.resource(c.session), r, listview.Options{
		PerPage:           cc.Int("per-page"),
		ResetPageOnChange: true,
		Bus:               c.bus,
		Logger:            c.log,
	})
	defer m.Close()
	sub := m.Subscribe()
	m.Start()

	fmt.Fprintln(c.out, "Type help for commands.")
	var after uint64
	for {
		s, err := awaitSettled(cc.Context, m, sub, after)
		if err != nil {
			return err
		}
		after = 0
		if err := renderState(c.out, r, s); err != nil {
			return err
		}

		fmt.Fprint(c.out, "> ")
		line, ok, err := c.nextCommand()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(c.out)
			return nil
		}

		verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(verb) {
		case "q", "quit", "exit":
			return nil
		case "", "help", "?":
			fmt.Fprintln(c.out, browseHelp)
		case "search", "s":
			m.SetSearch(arg)
		case "by":
			if arg != query.SearchAll && !r.HasField(arg) {
				fmt.Fprintf(c.out, "Unknown field %q. Fields: %s\n", arg, strings.Join(r.Fields, ", "))
				continue
			}
			m.SetSearchBy(arg)
		case "sort":
			if !r.HasField(arg) {
				fmt.Fprintf(c.out, "Unknown field %q. Fields: %s\n", arg, strings.Join(r.Fields, ", "))
				continue
			}
			m.ToggleSort(arg)
		case "next", "n":
			m.NextPage()
		case "prev", "p":
			m.PrevPage()
		case "page":
			n, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(c.out, "page expects a number")
				continue
			}
			m.SetPage(n)
		case "filter":
			f, err := parseFilters(r, arg)
			if err != nil {
				fmt.Fprintln(c.out, err)
				continue
			}
			m.SetFilters(f)
		case "refresh", "r":
			m.Refresh()
		case "delete":
			if arg == "" {
				fmt.Fprintln(c.out, "delete expects a key")
				continue
			}
			before := m.State().Version
			deleted, err := remove(cc.Context, c, def, arg, false)
			if err != nil {
				fmt.Fprintln(c.out, err)
				continue
			}
			if deleted {
				after = before
			}
		default:
			fmt.Fprintf(c.out, "Unknown command %q. Type help.\n", verb)
		}
	}
}

// awaitSettled waits until no query is in flight, no search text is pending
// and the snapshot is newer than after.
func awaitSettled[T any](ctx context.Context, m *listview.Machine[T], sub <-chan listview.State[T], after uint64) (listview.State[T], error) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	for {
		s := m.State()
		if !s.IsLoading && s.Search == s.Typed && s.Version > after {
			return s, nil
		}
		select {
		case _, ok := <-sub:
			if !ok {
				return s, errors.New("list closed")
			}
		case <-ctx.Done():
			return s, fmt.Errorf("list did not load: %w", ctx.Err())
		}
	}
}

func renderState[T entity](w io.Writer, r query.Resource, s listview.State[T]) error {
	if err := writeTable(w, r.Fields, s.Items); err != nil {
		return err
	}
	status := []string{fmt.Sprintf("Page %d of %d (%d %s)", s.Page, s.Pages, s.Total, r.Name)}
	if s.Search != "" {
		status = append(status, fmt.Sprintf("search %q in %s", s.Search, s.SearchBy))
	}
	status = append(status, fmt.Sprintf("sort %s %s", s.SortBy, s.Order))
	if !s.Filters.Empty() {
		status = append(status, "filter "+formatFilters(s.Filters))
	}
	_, err := fmt.Fprintf(w, "\n%s\n", strings.Join(status, " | "))
	return err
}

// parseFilters reads "program=BSCS,BSIT gender=Female year=1,2". An empty
// argument clears every filter.
func parseFilters(r query.Resource, arg string) (query.Filters, error) {
	var f query.Filters
	if arg == "" {
		return f, nil
	}
	if r.Name != query.Students.Name {
		return f, fmt.Errorf("%s have no filters", r.Name)
	}
	for _, term := range strings.Fields(arg) {
		key, raw, ok := strings.Cut(term, "=")
		if !ok || raw == "" {
			return f, fmt.Errorf("filter %q is not key=value", term)
		}
		values := splitValues(raw)
		switch strings.ToLower(key) {
		case "program":
			f.ProgramCode = values
		case "gender":
			f.Gender = values
		case "year":
			for _, v := range values {
				n, err := strconv.Atoi(v)
				if err != nil {
					return f, fmt.Errorf("year %q is not a number", v)
				}
				f.YearLevel = append(f.YearLevel, n)
			}
		default:
			return f, fmt.Errorf("unknown filter %q; use program, gender or year", key)
		}
	}
	return f, nil
}

func formatFilters(f query.Filters) string {
	var parts []string
	if len(f.ProgramCode) > 0 {
		parts = append(parts, "program="+strings.Join(f.ProgramCode, ","))
	}
	if len(f.Gender) > 0 {
		parts = append(parts, "gender="+strings.Join(f.Gender, ","))
	}
	if len(f.YearLevel) > 0 {
		years := make([]string, 0, len(f.YearLevel))
		for _, y := range f.YearLevel {
			years = append(years, strconv.Itoa(y))
		}
		parts = append(parts, "year="+strings.Join(years, ","))
	}
	return strings.Join(parts, " ")
}

func splitValues(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// nextCommand reads one line of the interactive session. ok is false once
// input is exhausted.
func (c *ctl) nextCommand() (line string, ok bool, err error) {
	line, err = c.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}
