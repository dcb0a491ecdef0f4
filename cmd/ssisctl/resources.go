package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/client"
	"github.com/ssis-app/ssis/internal/pkg/query"
	"github.com/ssis-app/ssis/internal/workflow"
)

type entity interface {
	comparable
	Field(name string) string
}

// resourceDef describes the CRUD subcommands of one resource.
type resourceDef[T entity] struct {
	resource func(*client.Session) *client.Resource[T]
	form     workflow.Form[T]
	// fields are the create/update flags; apply copies the ones set onto v.
	fields      []cli.Flag
	apply       func(cc *cli.Context, v T) T
	listFlags   []cli.Flag
	listFilters func(cc *cli.Context) query.Filters
	// picker, when set, checks the form's reference to another resource.
	picker func(c *ctl) *picker[T]
	extra  []*cli.Command
}

func resourceCommand[T entity](c *ctl, def resourceDef[T]) *cli.Command {
	r := def.form.Resource
	key := "<" + strings.ToLower(r.Label) + "-key>"

	listFlags := append([]cli.Flag{
		&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1},
		&cli.IntFlag{Name: "per-page", Value: r.PerPage},
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
		&cli.StringFlag{Name: "search-by", Value: query.SearchAll, Usage: "all or one of " + strings.Join(r.Fields, ", ")},
		&cli.StringFlag{Name: "sort-by", Value: r.Key},
		&cli.StringFlag{Name: "order", Value: string(query.Asc), Usage: "asc or desc"},
		&cli.BoolFlag{Name: "json", Usage: "print the raw page"},
	}, def.listFlags...)

	commands := []*cli.Command{
		{
			Name:  "list",
			Usage: "list one page of " + r.Name,
			Flags: listFlags,
			Action: func(cc *cli.Context) error {
				p := listParams(cc, r, def.listFilters)
				page, err := def.resource(c.session).List(cc.Context, p)
				if err != nil {
					return apiExit(err)
				}
				if cc.Bool("json") {
					return json.NewEncoder(c.out).Encode(page)
				}
				if err := writeTable(c.out, r.Fields, page.Items); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "\nPage %d of %d (%d %s)\n", page.CurrentPage, page.Pages, page.Total, r.Name)
				return nil
			},
		},
		{
			Name:  "browse",
			Usage: "page through " + r.Name + " interactively",
			Flags: []cli.Flag{&cli.IntFlag{Name: "per-page", Value: r.PerPage}},
			Action: func(cc *cli.Context) error {
				return browse(cc, c, def)
			},
		},
		{
			Name:  "options",
			Usage: "list every " + strings.ToLower(r.Label) + " code and name",
			Action: func(cc *cli.Context) error {
				items, err := def.resource(c.session).Dropdown(cc.Context)
				if err != nil {
					return apiExit(err)
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					code, name := def.form.Identity(item)
					rows = append(rows, []string{code, name})
				}
				return writeRows(c.out, []string{"code", "name"}, rows)
			},
		},
		{
			Name:      "get",
			Usage:     "show one " + strings.ToLower(r.Label),
			ArgsUsage: key,
			Action: func(cc *cli.Context) error {
				id, err := oneArg(cc, key)
				if err != nil {
					return err
				}
				v, err := def.resource(c.session).Get(cc.Context, id)
				if err != nil {
					return apiExit(err)
				}
				return writeRecord(c.out, r.Fields, v)
			},
		},
		{
			Name:  "create",
			Usage: "add a " + strings.ToLower(r.Label),
			Flags: def.fields,
			Action: func(cc *cli.Context) error {
				d, pk := newDialog(c, def)
				defer pk.Close()
				defer d.Close()
				if err := d.OpenCreate(cc.Context); err != nil {
					return err
				}
				var zero T
				if err := d.Set(def.apply(cc, zero)); err != nil {
					return err
				}
				if err := pk.check(cc.Context, d.State().Values); err != nil {
					return err
				}
				return submit(cc, c, d)
			},
		},
		{
			Name:      "update",
			Usage:     "change a " + strings.ToLower(r.Label) + "; unset flags keep their value",
			ArgsUsage: key,
			Flags:     def.fields,
			Action: func(cc *cli.Context) error {
				id, err := oneArg(cc, key)
				if err != nil {
					return err
				}
				d, pk := newDialog(c, def)
				defer pk.Close()
				defer d.Close()
				if err := d.OpenEdit(cc.Context, id); err != nil {
					return apiExit(err)
				}
				if err := d.Set(def.apply(cc, d.State().Values)); err != nil {
					return err
				}
				if err := pk.check(cc.Context, d.State().Values); err != nil {
					return err
				}
				return submit(cc, c, d)
			},
		},
		{
			Name:      "delete",
			Usage:     "remove a " + strings.ToLower(r.Label),
			ArgsUsage: key,
			Flags:     []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation"}},
			Action: func(cc *cli.Context) error {
				id, err := oneArg(cc, key)
				if err != nil {
					return err
				}
				_, err = remove(cc.Context, c, def, id, cc.Bool("yes"))
				return err
			},
		},
	}

	return &cli.Command{
		Name:        r.Name,
		Usage:       "manage " + r.Name,
		Subcommands: append(commands, def.extra...),
	}
}

// newDialog opens a dialog wired to the invocation's bus. The picker is nil
// for resources that reference nothing.
func newDialog[T entity](c *ctl, def resourceDef[T]) (*workflow.Dialog[T], *picker[T]) {
	opts := workflow.Options{Bus: c.bus, Logger: c.log}
	var pk *picker[T]
	if def.picker != nil {
		pk = def.picker(c)
		opts.Preload = []workflow.Preloader{pk.options}
	}
	return workflow.New[T](def.resource(c.session), def.form, opts), pk
}

// remove deletes the row stored under id after asking, unless yes is set.
// It reports whether the row was deleted.
func remove[T entity](ctx context.Context, c *ctl, def resourceDef[T], id string, yes bool) (bool, error) {
	d, pk := newDialog(c, def)
	defer pk.Close()
	defer d.Close()
	if err := d.OpenDelete(ctx, id); err != nil {
		return false, apiExit(err)
	}

	if !yes {
		code, name := def.form.Identity(d.State().Values)
		var err error
		if yes, err = c.confirm(fmt.Sprintf("Delete %s %s (%s)?", def.form.Resource.Label, code, name)); err != nil {
			return false, err
		}
	}
	if !yes {
		if err := d.Confirm(ctx, false); err != nil {
			return false, err
		}
		<-d.Results()
		fmt.Fprintln(c.out, "Cancelled")
		return false, nil
	}
	if err := d.Confirm(ctx, true); err != nil {
		return false, formExit(err)
	}
	return true, dismiss(c, d)
}

// submit sends the dialog and prints the confirmation.
func submit[T entity](cc *cli.Context, c *ctl, d *workflow.Dialog[T]) error {
	if err := d.Submit(cc.Context); err != nil {
		return formExit(err)
	}
	return dismiss(c, d)
}

// dismiss prints the confirmation and closes it without waiting for the
// timeout.
func dismiss[T entity](c *ctl, d *workflow.Dialog[T]) error {
	s := d.State()
	if s.Confirmation == nil {
		return errors.New("no confirmation to show")
	}
	fmt.Fprintf(c.out, "%s %s (%s) %s.\n", d.Resource().Label, s.Confirmation.Code, s.Confirmation.Name, s.Confirmation.Action)
	if err := d.Dismiss(); err != nil {
		return err
	}
	<-d.Results()
	return nil
}

func formExit(err error) error {
	var formErr *workflow.FormError
	if errors.As(err, &formErr) {
		return cli.Exit(formErr.Message, 1)
	}
	return apiExit(err)
}

func oneArg(cc *cli.Context, name string) (string, error) {
	if cc.Args().Len() != 1 {
		return "", cli.Exit("expected exactly one argument: "+name, 2)
	}
	return cc.Args().First(), nil
}

func listParams(cc *cli.Context, r query.Resource, filters func(*cli.Context) query.Filters) query.Params {
	p := query.DefaultParams(r)
	p.Page = cc.Int("page")
	p.PerPage = cc.Int("per-page")
	p.Search = cc.String("search")
	p.SearchBy = cc.String("search-by")
	p.SortBy = cc.String("sort-by")
	p.Order = query.Order(strings.ToLower(cc.String("order")))
	if filters != nil {
		p.Filters = filters(cc)
	}
	return p.Normalize(r, query.MaxPerPage)
}

func (c *ctl) collegesCommand() *cli.Command {
	return resourceCommand(c, resourceDef[models.College]{
		resource: client.Colleges,
		form:     workflow.CollegeForm,
		fields: []cli.Flag{
			&cli.StringFlag{Name: "code"},
			&cli.StringFlag{Name: "name"},
		},
		apply: func(cc *cli.Context, v models.College) models.College {
			if cc.IsSet("code") {
				v.CollegeCode = cc.String("code")
			}
			if cc.IsSet("name") {
				v.CollegeName = cc.String("name")
			}
			return v
		},
	})
}

func (c *ctl) programsCommand() *cli.Command {
	return resourceCommand(c, resourceDef[models.Program]{
		resource: client.Programs,
		form:     workflow.ProgramForm,
		fields: []cli.Flag{
			&cli.StringFlag{Name: "code"},
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "college"},
		},
		apply: func(cc *cli.Context, v models.Program) models.Program {
			if cc.IsSet("code") {
				v.ProgramCode = cc.String("code")
			}
			if cc.IsSet("name") {
				v.ProgramName = cc.String("name")
			}
			if cc.IsSet("college") {
				v.CollegeCode = cc.String("college")
			}
			return v
		},
		picker: func(c *ctl) *picker[models.Program] {
			return newPicker(c, "college", client.Colleges(c.session), models.College.Identity,
				func(p models.Program) string { return p.CollegeCode }, "")
		},
	})
}
