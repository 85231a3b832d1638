package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SourceStatus describes where the listing came from.
type SourceStatus struct {
	Name      string
	FetchedAt time.Time
	Stale     bool
	Loading   bool
}

// StatusLine renders the source status.
func StatusLine(s SourceStatus, now time.Time) string {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	staleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if s.FetchedAt.IsZero() {
		return staleStyle.Render("○ "+s.Name) + dimStyle.Render(" waiting for first snapshot")
	}

	line := okStyle.Render("● " + s.Name)
	if s.Stale {
		line = staleStyle.Render("◐ " + s.Name + " (stale)")
	}
	ago := now.Sub(s.FetchedAt).Round(time.Second)
	line += dimStyle.Render(fmt.Sprintf("  fetched %s ago", ago))
	if s.Loading {
		line += dimStyle.Render("  refreshing…")
	}
	return line
}
