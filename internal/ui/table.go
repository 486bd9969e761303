package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RefRow is one entry of a relationship listing.
type RefRow struct {
	ID     string
	Type   string
	Line   int
	Zombie bool
}

const (
	leftMargin    = 2
	columnPadding = 2
	minIDWidth    = 12
	maxTypeWidth  = 24
	lineWidth     = 5
)

// RenderRefs renders rows as a borderless three-column table: id, type label
// and line. Ids are truncated to fit the terminal width.
func RenderRefs(d *DisplayContext, rows []RefRow) string {
	if len(rows) == 0 {
		return ""
	}

	typeWidth := 0
	for _, r := range rows {
		if w := lipgloss.Width(r.Type); w > typeWidth {
			typeWidth = w
		}
	}
	if typeWidth > maxTypeWidth {
		typeWidth = maxTypeWidth
	}
	idWidth := d.TermWidth - leftMargin - typeWidth - lineWidth - 2*columnPadding
	if idWidth < minIDWidth {
		idWidth = minIDWidth
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		line := ""
		if r.Line > 0 {
			line = strconv.Itoa(r.Line)
		}
		id := TruncateWithEllipsis(r.ID, idWidth-2)
		cells[i] = []string{DocID(id, r.Zombie), TruncateWithEllipsis(r.Type, typeWidth), line}
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			switch col {
			case 0:
				style = style.PaddingRight(columnPadding)
			case 1:
				style = Muted.PaddingRight(columnPadding)
			case 2:
				style = Muted.Width(lineWidth).Align(lipgloss.Right)
			}
			return style
		}).
		Rows(cells...)

	return indent(tbl.Render(), leftMargin)
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if ln != "" {
			lines[i] = pad + ln
		}
	}
	return strings.Join(lines, "\n")
}

// TruncateWithEllipsis truncates a string to maxLen runes, adding an
// ellipsis when it cuts.
func TruncateWithEllipsis(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
