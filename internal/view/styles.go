// Package view renders hub data for the terminal. Every function returns a
// string; the CLI prints it and the browser composes it into panes.
package view

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-ports/stride/internal/thread"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	accentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	chipStyle        = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("236"))
	bannerStyle      = lipgloss.NewStyle().Bold(true).Padding(1, 2).Background(lipgloss.Color("57")).Foreground(lipgloss.Color("231"))
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(0, 1)
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
)

// Renderer carries the layout settings shared by every render function.
type Renderer struct {
	Width    int // 0 means no wrapping
	MaxDepth int
	UserID   string // current user; hides add-reaction controls they already used
	Now      func() time.Time
}

// NewRenderer returns a Renderer with the default interaction depth.
func NewRenderer(width int) *Renderer {
	return &Renderer{Width: width, MaxDepth: thread.DefaultMaxDepth, Now: time.Now}
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Renderer) wrap(s string) string {
	if r.Width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(r.Width).Render(s)
}

// Error renders an inline error line.
func Error(msg string) string { return errorStyle.Render(msg) }

// Muted renders secondary text.
func Muted(msg string) string { return mutedStyle.Render(msg) }
