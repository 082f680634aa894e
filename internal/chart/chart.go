// Package chart renders histogram rows as terminal bar charts.
package chart

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/awrhist/internal/model"
)

// DefaultWidth is the terminal width assumed when none is configured.
const DefaultWidth = 80

const (
	minWidth    = 30
	chartHeight = 8
	legendWidth = 22
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	// Low latency buckets are cool, the long tail is hot.
	bucketColors = []string{"39", "45", "49", "82", "190", "214", "202", "196"}
)

func bucketStyle(i int) lipgloss.Style {
	c := lipgloss.Color(bucketColors[i%len(bucketColors)])
	return lipgloss.NewStyle().Foreground(c).Background(c)
}

// Buckets returns the bucket columns of row as numbers. Blank or
// unparseable cells count as zero.
func Buckets(row *model.HistogramRow) (names []string, values []float64) {
	if len(row.Columns) < 3 {
		return nil, nil
	}
	for i, col := range row.Columns[2:] {
		var v float64
		if i+2 < len(row.Values) {
			if f, err := strconv.ParseFloat(strings.TrimSpace(row.Values[i+2]), 64); err == nil {
				v = f
			}
		}
		names = append(names, col)
		values = append(values, v)
	}
	return names, values
}

// Render draws one row: a title line, the bar chart and a legend.
func Render(row *model.HistogramRow, width int) string {
	title := titleStyle.Render(row.WaitEvent) + mutedStyle.Render("  "+filepath.Base(row.Filename))
	if !row.Found {
		return title + "\n" + missingStyle.Render("  not found in report")
	}

	names, values := Buckets(row)
	if len(names) == 0 {
		return title + "\n" + missingStyle.Render("  no bucket columns")
	}

	if width < minWidth+legendWidth {
		width = minWidth + legendWidth
	}
	chartWidth := width - legendWidth - 2

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(max(1, chartWidth/len(names)-1)),
		barchart.WithNoAxis(),
	)
	for i, name := range names {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: name, Value: values[i], Style: bucketStyle(i)},
			},
		})
	}
	bc.Draw()

	legend := make([]string, 0, len(names)+1)
	if count := row.Value(countColumn(row)); count != "" {
		legend = append(legend, mutedStyle.Render(fmt.Sprintf("%-6s %s", countColumn(row), count)))
	}
	for i, name := range names {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(bucketColors[i%len(bucketColors)])).Render("■")
		legend = append(legend, fmt.Sprintf("%s %-6s %s", swatch, name, strconv.FormatFloat(values[i], 'f', -1, 64)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		bc.View(),
		"  ",
		lipgloss.NewStyle().Width(legendWidth).Render(strings.Join(legend, "\n")),
	)
	return title + "\n" + body
}

// RenderAll draws each row separated by a blank line.
func RenderAll(rows []*model.HistogramRow, width int) string {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, Render(row, width))
	}
	return strings.Join(parts, "\n\n")
}

func countColumn(row *model.HistogramRow) string {
	if len(row.Columns) > 1 {
		return row.Columns[1]
	}
	return ""
}
