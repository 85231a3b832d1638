package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PriceRow is one market's spot price.
type PriceRow struct {
	Market string
	Price  string
}

// SpotPrices renders the spot price table.
func SpotPrices(rows []PriceRow) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("SPOT PRICES"))
	sb.WriteString("\n")
	if len(rows) == 0 {
		sb.WriteString(dimStyle.Render("  no spot prices"))
		return sb.String()
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("  %-10s %14s\n", r.Market, r.Price))
	}
	return strings.TrimRight(sb.String(), "\n")
}
