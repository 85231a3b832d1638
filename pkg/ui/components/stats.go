package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Stats summarises one listing.
type Stats struct {
	Pools     int
	Markets   int
	Malformed []string
}

// StatsLine renders the listing counts and any unparsed names.
func StatsLine(s Stats) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	line := fmt.Sprintf("%s %s %s %s",
		style.Render("Pools"), valueStyle.Render(fmt.Sprintf("%d", s.Pools)),
		style.Render("Markets"), valueStyle.Render(fmt.Sprintf("%d", s.Markets)))
	if len(s.Malformed) > 0 {
		line += "  " + warnStyle.Render("unparsed: "+strings.Join(s.Malformed, ", "))
	}
	return line
}
