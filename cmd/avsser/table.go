package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

type column struct {
	header string
	align  columnAlignment
	// maxWidth wraps long cells; zero leaves the column unbounded.
	maxWidth int
}

type tableSpec struct {
	title   string
	columns []column
	rows    [][]string
	footer  []string
}

func renderTable(spec tableSpec) string {
	count := len(spec.columns)
	if count == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if spec.title != "" {
		tw.SetTitle("%s", spec.title)
	}

	tw.AppendHeader(fill(count, func(i int) string { return spec.columns[i].header }))
	for _, row := range spec.rows {
		tw.AppendRow(fill(count, func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}))
	}
	if len(spec.footer) > 0 {
		tw.AppendFooter(fill(count, func(i int) string {
			if i < len(spec.footer) {
				return spec.footer[i]
			}
			return ""
		}))
	}

	configs := make([]table.ColumnConfig, 0, count)
	for i, col := range spec.columns {
		align := text.AlignLeft
		if col.align == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
			WidthMax:    col.maxWidth,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func fill(count int, cell func(i int) string) table.Row {
	row := make(table.Row, count)
	for i := range row {
		row[i] = cell(i)
	}
	return row
}
