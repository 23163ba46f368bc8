// Package render draws report results for the terminal.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"example.com/backstage/foodshare/internal/reports"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	defaultChartWidth = 40
	barGlyph          = "█"
)

var (
	primaryColor = lipgloss.Color("#8B5CF6")
	mutedColor   = lipgloss.Color("#64748B")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Bold(true).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	barStyle   = lipgloss.NewStyle().Foreground(primaryColor)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// Title renders a report heading
func Title(def reports.Definition) string {
	return titleStyle.Render(fmt.Sprintf("%d. %s", def.ID, def.Title))
}

// Error renders a failure line
func Error(msg string) string {
	return errorStyle.Render(msg)
}

// Table renders a report result as a bordered table
func Table(t *reports.Table) string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = FormatValue(v)
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Columns...).
		Rows(rows...).
		String()
}

// Catalog renders the list of available reports
func Catalog(defs []reports.Definition) string {
	rows := make([][]string, len(defs))
	for i, def := range defs {
		chart := ""
		if def.Chart {
			chart = "yes"
		}
		rows[i] = []string{strconv.Itoa(def.ID), def.Slug, def.Title, strings.Join(def.Params, ", "), chart}
	}
	return Table(&reports.Table{
		Columns: []string{"ID", "Slug", "Title", "Params", "Chart"},
		Rows:    toCells(rows),
	})
}

// BarChart renders a horizontal bar chart keyed by the first text column
// with the first numeric column as the value. It returns an empty string
// when the table has no such pair of columns.
func BarChart(t *reports.Table, width int) string {
	if width <= 0 {
		width = defaultChartWidth
	}
	labelCol, valueCol, ok := chartColumns(t)
	if !ok || len(t.Rows) == 0 {
		return ""
	}

	maxValue := 0.0
	labelWidth := 0
	for _, row := range t.Rows {
		v, _ := toFloat(row[valueCol])
		maxValue = math.Max(maxValue, v)
		labelWidth = max(labelWidth, lipgloss.Width(FormatValue(row[labelCol])))
	}

	var b strings.Builder
	for _, row := range t.Rows {
		label := FormatValue(row[labelCol])
		v, _ := toFloat(row[valueCol])
		n := 0
		if maxValue > 0 {
			n = int(math.Round(v / maxValue * float64(width)))
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render(label+strings.Repeat(" ", labelWidth-lipgloss.Width(label))),
			barStyle.Render(strings.Repeat(barGlyph, n)),
			FormatValue(row[valueCol]),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// chartColumns picks the label and value columns from the first row
func chartColumns(t *reports.Table) (int, int, bool) {
	if len(t.Rows) == 0 {
		return 0, 0, false
	}
	labelCol, valueCol := -1, -1
	for i, v := range t.Rows[0] {
		if _, numeric := toFloat(v); numeric {
			if valueCol < 0 {
				valueCol = i
			}
		} else if labelCol < 0 {
			labelCol = i
		}
	}
	return labelCol, valueCol, labelCol >= 0 && valueCol >= 0
}

// FormatValue renders one cell
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

func toCells(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
