package view

import (
	"strings"

	"github.com/go-ports/stride/internal/spaces"
)

// NoSpaces is shown when the active hierarchy is empty.
const NoSpaces = "No spaces found"

// Nav renders the visible navigation rows. cursor is the highlighted row,
// or -1 for none.
func (r *Renderer) Nav(mode spaces.Mode, rows []spaces.Row, cursor int) string {
	var b strings.Builder
	all, sub := activeTabStyle, inactiveTabStyle
	if mode == spaces.ModeSubscribed {
		all, sub = inactiveTabStyle, activeTabStyle
	}
	b.WriteString(all.Render("All") + sub.Render("Subscribed"))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render(NoSpaces))
		return b.String()
	}
	for i, row := range rows {
		b.WriteString(navLine(row, i == cursor))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func navLine(row spaces.Row, highlighted bool) string {
	marker := "  "
	if !row.Space.IsLeaf() {
		marker = "▸ "
		if row.Expanded {
			marker = "▾ "
		}
	}
	line := strings.Repeat("  ", row.Depth) + marker + row.Space.Name
	switch {
	case row.Selected:
		line = selectedStyle.Render(line)
	case highlighted:
		line = accentStyle.Render(line)
	}
	if highlighted {
		return "> " + line
	}
	return "  " + line
}

// Tree renders a full forest without navigation state, for listings.
func Tree(rows []spaces.Row) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Repeat("  ", row.Depth))
		b.WriteString(row.Space.Name)
		b.WriteString(mutedStyle.Render("  (" + row.Space.ID + ")"))
		b.WriteByte('\n')
	}
	return b.String()
}
