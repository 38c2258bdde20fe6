// Package ui renders terminal output for fmp.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderTable renders a bordered table with a header row, one line per row
func RenderTable(header []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		}).
		Headers(header...).
		Rows(rows...)
	return t.Render()
}

// PrintTable writes RenderTable output followed by a newline
func PrintTable(w io.Writer, header []string, rows [][]string) error {
	_, err := fmt.Fprintln(w, RenderTable(header, rows))
	return err
}
