// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SideRow is one side of a pool card.
type SideRow struct {
	TVL      string
	TCRPrice string
	DEXPrice string
	Share    float64 // percent of pool TVL
	Trade    string  // "3.00x LONG"
}

// CardRow is one pool card.
type CardRow struct {
	Title      string // "3x ETH/USD"
	CommitWait string
	Short      SideRow
	Long       SideRow
	Holding    string // empty when the account holds nothing
	Exposure   string
}

// BannerRow is one market banner with its cards.
type BannerRow struct {
	AssetName    string
	MarketSymbol string
	SpotPrice    string
	Volume       string
	Cards        []CardRow
}

// BannersComponent renders market banners and scrolls through them.
type BannersComponent struct {
	rows   []BannerRow
	offset int
}

// NewBannersComponent creates a new banners component.
func NewBannersComponent() *BannersComponent {
	return &BannersComponent{}
}

// Update replaces the banners, keeping the scroll position in range.
func (b *BannersComponent) Update(rows []BannerRow) {
	b.rows = rows
	if b.offset >= len(rows) {
		b.offset = max(0, len(rows)-1)
	}
}

// ScrollUp moves to the previous banner.
func (b *BannersComponent) ScrollUp() {
	if b.offset > 0 {
		b.offset--
	}
}

// ScrollDown moves to the next banner.
func (b *BannersComponent) ScrollDown() {
	if b.offset < len(b.rows)-1 {
		b.offset++
	}
}

// Offset is the index of the first visible banner.
func (b *BannersComponent) Offset() int {
	return b.offset
}

// View renders banners from the scroll offset until height lines are used.
// A height <= 0 renders everything.
func (b *BannersComponent) View(height int) string {
	if len(b.rows) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("No pools match the current filters.")
	}

	var sb strings.Builder
	used := 0
	for _, row := range b.rows[b.offset:] {
		block := renderBanner(row)
		lines := strings.Count(block, "\n") + 1
		if height > 0 && used > 0 && used+lines > height {
			break
		}
		sb.WriteString(block)
		sb.WriteString("\n")
		used += lines
	}

	if b.offset > 0 || used < totalLines(b.rows) {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
		sb.WriteString(dim.Render(fmt.Sprintf("  market %d of %d", b.offset+1, len(b.rows))))
	}
	return sb.String()
}

func totalLines(rows []BannerRow) int {
	n := 0
	for _, r := range rows {
		n += strings.Count(renderBanner(r), "\n") + 1
	}
	return n
}

func renderBanner(row BannerRow) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s", row.AssetName, row.MarketSymbol)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %s %s   %s %s\n",
		dimStyle.Render("Spot Price"), valueStyle.Render(row.SpotPrice),
		dimStyle.Render("24H Volume"), valueStyle.Render(row.Volume)))
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 72)))

	for _, c := range row.Cards {
		sb.WriteString("\n")
		sb.WriteString(renderCard(c))
	}
	return sb.String()
}

func renderCard(c CardRow) string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	shortStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	longStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s\n",
		titleStyle.Render(fmt.Sprintf("%-16s", c.Title)),
		dimStyle.Render("commit "+c.CommitWait)))
	sb.WriteString("    " + shortStyle.Render(sideLine("SHORT", c.Short)) + "\n")
	sb.WriteString("    " + longStyle.Render(sideLine("LONG", c.Long)) + "\n")
	if c.Holding != "" {
		sb.WriteString("    " + titleStyle.Render("held "+c.Holding) + dimStyle.Render("  exposure "+c.Exposure) + "\n")
	}
	sb.WriteString("    " + shareBar(c.Short.Share, 40, shortStyle, longStyle))
	return sb.String()
}

func sideLine(label string, s SideRow) string {
	return fmt.Sprintf("%-5s TVL %-12s TCR %-10s DEX %-10s %-12s",
		label, s.TVL, s.TCRPrice, s.DEXPrice, s.Trade)
}

// shareBar draws the short/long TVL split as a single bar.
func shareBar(shortPct float64, width int, short, long lipgloss.Style) string {
	n := int(shortPct / 100 * float64(width))
	n = min(max(n, 0), width)
	return short.Render(strings.Repeat("█", n)) + long.Render(strings.Repeat("█", width-n)) +
		fmt.Sprintf(" %.2f%% / %.2f%%", shortPct, 100-shortPct)
}
