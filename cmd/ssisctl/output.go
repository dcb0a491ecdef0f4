package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func writeTable[T entity](w io.Writer, fields []string, items []T) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, 0, len(fields))
		for _, f := range fields {
			row = append(row, item.Field(f))
		}
		rows = append(rows, row)
	}
	return writeRows(w, fields, rows)
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if len(rows) == 0 {
		fmt.Fprintln(tw, "(none)")
	}
	return tw.Flush()
}

func writeRecord[T entity](w io.Writer, fields []string, v T) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f, v.Field(f))
	}
	return tw.Flush()
}
