// Package report renders a drive.Result as a styled terminal table using
// github.com/charmbracelet/bubbles/table — the same component CalcMark's
// TUI imports from the bubbles suite, used here in its non-interactive
// form (built once, rendered with a single View() call, never driven
// through a tea.Program) since the CLI prints one table and exits.
// Column styling follows the teacher's theme.go pattern of turning a
// loaded ThemeConfig into reusable lipgloss.Style values, and
// golang.org/x/text/number gives every numeric cell locale-aware,
// fixed-precision formatting.
package report

import (
	"io"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/contisim/contisim/cmd/contisim/config"
	"github.com/contisim/contisim/internal/drive"
)

// Render writes result to w as a table.Model view, formatting every
// numeric cell to precision decimal places with golang.org/x/text/message.
func Render(w io.Writer, result *drive.Result, precision int, styles config.Styles) {
	printer := message.NewPrinter(language.English)

	cols := make([]table.Column, len(result.Columns))
	widths := columnWidths(result, precision, printer)
	for i, name := range result.Columns {
		cols[i] = table.Column{Title: name, Width: widths[i]}
	}

	rows := make([]table.Row, len(result.Rows))
	for i, row := range result.Rows {
		cells := make(table.Row, len(row))
		for j, v := range row {
			cells[j] = formatCell(v, precision, printer)
		}
		rows[i] = cells
	}

	height := len(rows) + 1
	if height < 1 {
		height = 1
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithFocused(false),
	)
	t.SetStyles(tableStyles(styles))

	io.WriteString(w, t.View())
	io.WriteString(w, "\n")
}

func tableStyles(styles config.Styles) table.Styles {
	s := table.DefaultStyles()
	s.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Cell = lipgloss.NewStyle()
	s.Selected = lipgloss.NewStyle()
	return s
}

func columnWidths(result *drive.Result, precision int, printer *message.Printer) []int {
	widths := make([]int, len(result.Columns))
	for i, name := range result.Columns {
		widths[i] = len(name)
	}
	for _, row := range result.Rows {
		for i, v := range row {
			if l := len(formatCell(v, precision, printer)); l > widths[i] {
				widths[i] = l
			}
		}
	}
	return widths
}

func formatCell(v float64, precision int, printer *message.Printer) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(precision), number.MinFractionDigits(precision)))
}
