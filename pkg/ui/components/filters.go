package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Filters is the current filter selection, pre-formatted for display.
type Filters struct {
	Market     string
	Leverage   string
	SortBy     string
	Denotation string
	Account    string // empty when not connected
}

// FilterBar renders the active filters on one line.
func FilterBar(f Filters, open bool) string {
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	account := "not connected"
	if f.Account != "" {
		account = shortAddress(f.Account)
	}

	parts := []string{
		keyStyle.Render("Market ") + valueStyle.Render(f.Market),
		keyStyle.Render("Leverage ") + valueStyle.Render(f.Leverage),
		keyStyle.Render("Sort ") + valueStyle.Render(f.SortBy),
		keyStyle.Render("Values ") + valueStyle.Render(f.Denotation),
		keyStyle.Render("Account ") + valueStyle.Render(account),
	}
	if !open {
		return strings.Join(parts[:3], "  │  ")
	}
	return strings.Join(parts, "  │  ")
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return fmt.Sprintf("%s…%s", addr[:6], addr[len(addr)-4:])
}
