package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/client"
	"github.com/ssis-app/ssis/internal/pkg/query"
	"github.com/ssis-app/ssis/internal/workflow"
)

func studentFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "program", Usage: "only these program codes"},
		&cli.StringSliceFlag{Name: "gender", Usage: "only these genders"},
		&cli.IntSliceFlag{Name: "year", Usage: "only these year levels"},
	}
}

func studentFilters(cc *cli.Context) query.Filters {
	return query.Filters{
		ProgramCode: cc.StringSlice("program"),
		Gender:      cc.StringSlice("gender"),
		YearLevel:   cc.IntSlice("year"),
	}
}

func (c *ctl) studentsCommand() *cli.Command {
	return resourceCommand(c, resourceDef[models.Student]{
		resource: client.Students,
		form:     workflow.StudentForm,
		fields: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "student ID, e.g. 2024-0001"},
			&cli.StringFlag{Name: "first"},
			&cli.StringFlag{Name: "last"},
			&cli.StringFlag{Name: "program"},
			&cli.IntFlag{Name: "year"},
			&cli.StringFlag{Name: "gender", Usage: "Male or Female"},
		},
		apply: func(cc *cli.Context, v models.Student) models.Student {
			if cc.IsSet("id") {
				v.StudentID = cc.String("id")
			}
			if cc.IsSet("first") {
				v.FirstName = cc.String("first")
			}
			if cc.IsSet("last") {
				v.LastName = cc.String("last")
			}
			if cc.IsSet("program") {
				v.ProgramCode = cc.String("program")
			}
			if cc.IsSet("year") {
				v.YearLevel = cc.Int("year")
			}
			if cc.IsSet("gender") {
				v.Gender = cc.String("gender")
			}
			return v
		},
		picker: func(c *ctl) *picker[models.Student] {
			return newPicker(c, "program", client.Programs(c.session), models.Program.Identity,
				func(s models.Student) string { return s.ProgramCode }, models.NoProgram)
		},
		listFlags:   studentFilterFlags(),
		listFilters: studentFilters,
		extra: []*cli.Command{
			c.exportCommand(),
			c.importCommand(),
			c.photoCommand(),
			c.byProgramCommand(),
		},
	})
}

func (c *ctl) exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "download the matching students as an xlsx workbook",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
			&cli.StringFlag{Name: "search-by", Value: query.SearchAll},
			&cli.StringFlag{Name: "sort-by", Value: query.Students.Key},
			&cli.StringFlag{Name: "order", Value: string(query.Asc)},
		}, studentFilterFlags()...),
		Action: func(cc *cli.Context) error {
			p := query.DefaultParams(query.Students)
			p.Search = cc.String("search")
			p.SearchBy = cc.String("search-by")
			p.SortBy = cc.String("sort-by")
			p.Order = query.Order(cc.String("order"))
			p.Filters = studentFilters(cc)
			p = p.Normalize(query.Students, query.MaxPerPage)

			name := cc.String("out")
			if name == "" {
				name = "students-" + time.Now().Format("20060102") + ".xlsx"
			}
			f, err := os.Create(name)
			if err != nil {
				return err
			}
			if err := c.session.ExportStudents(cc.Context, p, f); err != nil {
				f.Close()
				os.Remove(name)
				return apiExit(err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Wrote %s\n", name)
			return nil
		},
	}
}

func (c *ctl) importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "add students from an xlsx workbook",
		ArgsUsage: "<file.xlsx>",
		Action: func(cc *cli.Context) error {
			name, err := oneArg(cc, "<file.xlsx>")
			if err != nil {
				return err
			}
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := c.session.ImportStudents(cc.Context, name, f)
			if err != nil {
				return apiExit(err)
			}
			fmt.Fprintf(c.out, "Imported %d, skipped %d\n", res.Imported, res.Skipped)
			for _, e := range res.Errors {
				fmt.Fprintln(c.out, "  "+e)
			}
			return nil
		},
	}
}

func (c *ctl) photoCommand() *cli.Command {
	return &cli.Command{
		Name:      "photo",
		Usage:     "replace a student's photo",
		ArgsUsage: "<student-id> <image>",
		Action: func(cc *cli.Context) error {
			if cc.Args().Len() != 2 {
				return cli.Exit("expected <student-id> <image>", 2)
			}
			id, name := cc.Args().Get(0), cc.Args().Get(1)
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := c.session.UploadPhoto(cc.Context, id, name, f)
			if err != nil {
				return apiExit(err)
			}
			fmt.Fprintf(c.out, "Photo for %s stored at %s\n", s.StudentID, s.PhotoURL)
			return nil
		},
	}
}

func (c *ctl) byProgramCommand() *cli.Command {
	return &cli.Command{
		Name:      "by-program",
		Usage:     "list every student of one program",
		ArgsUsage: "<program-code>",
		Action: func(cc *cli.Context) error {
			code, err := oneArg(cc, "<program-code>")
			if err != nil {
				return err
			}
			students, err := c.session.StudentsByProgram(cc.Context, code)
			if err != nil {
				return apiExit(err)
			}
			return writeTable(c.out, query.Students.Fields, students)
		},
	}
}

func (c *ctl) statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "show dashboard totals",
		Action: func(cc *cli.Context) error {
			colleges, err := client.Colleges(c.session).Total(cc.Context)
			if err != nil {
				return apiExit(err)
			}
			programs, err := client.Programs(c.session).Total(cc.Context)
			if err != nil {
				return apiExit(err)
			}
			students, err := client.Students(c.session).Total(cc.Context)
			if err != nil {
				return apiExit(err)
			}
			byProgram, err := c.session.CountByProgram(cc.Context)
			if err != nil {
				return apiExit(err)
			}
			byGender, err := c.session.CountByGender(cc.Context)
			if err != nil {
				return apiExit(err)
			}

			if err := writeRows(c.out, []string{"total", "count"}, [][]string{
				{"colleges", strconv.Itoa(colleges)},
				{"programs", strconv.Itoa(programs)},
				{"students", strconv.Itoa(students)},
			}); err != nil {
				return err
			}

			rows := make([][]string, 0, len(byProgram))
			for _, pc := range byProgram {
				rows = append(rows, []string{pc.ProgramCode, strconv.Itoa(pc.Count)})
			}
			fmt.Fprintln(c.out)
			if err := writeRows(c.out, []string{"program", "students"}, rows); err != nil {
				return err
			}

			rows = rows[:0]
			for _, gc := range byGender {
				rows = append(rows, []string{gc.Gender, strconv.Itoa(gc.Count)})
			}
			fmt.Fprintln(c.out)
			return writeRows(c.out, []string{"gender", "students"}, rows)
		},
	}
}
