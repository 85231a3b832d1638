// Package infra contains presentation adapters for the pools context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fd1az/perpetual-pools/business/pools/app"
)

const rule = "================================================================================"

// ConsoleReporter implements app.Reporter as a plain text grouped listing.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Start prints the header.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Perpetual Pools")
	fmt.Fprintln(r.out, "===============")
	return nil
}

// Render prints one browse result: filters, then a banner and cards per market.
func (r *ConsoleReporter) Render(view *app.BrowseView) {
	if view == nil {
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Market: %s  Leverage: %s  Sort: %s  Denotation: %s\n",
		view.State.MarketFilter, view.State.LeverageFilter, view.State.SortBy, view.Denotation)
	if view.State.Search != "" {
		fmt.Fprintf(r.out, "Search: %q\n", view.State.Search)
	}
	fetched := "never"
	if !view.FetchedAt.IsZero() {
		fetched = view.FetchedAt.Format(time.RFC3339)
	}
	stale := ""
	if view.Stale {
		stale = "  [STALE]"
	}
	fmt.Fprintf(r.out, "Source: %s  Fetched: %s  Pools: %d%s\n", view.Source, fetched, len(view.Rows), stale)
	fmt.Fprintln(r.out, rule)

	if len(view.Banners) == 0 {
		fmt.Fprintln(r.out, "No pools match the current filters.")
	}

	for _, b := range view.Banners {
		fmt.Fprintln(r.out, "")
		fmt.Fprintf(r.out, "%s (%s)\n", b.AssetName, b.MarketSymbol)
		fmt.Fprintf(r.out, "  Spot Price:     %s\n", b.SpotPrice)
		fmt.Fprintf(r.out, "  24H Volume:     %s\n", b.Volume)
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		for _, c := range b.Cards {
			r.renderCard(c)
		}
	}

	if len(view.Malformed) > 0 {
		fmt.Fprintln(r.out, "")
		fmt.Fprintf(r.out, "Unparsed pool names: %s\n", strings.Join(view.Malformed, ", "))
	}
	fmt.Fprintln(r.out, rule)
}

func (r *ConsoleReporter) renderCard(c app.PoolCard) {
	fmt.Fprintf(r.out, "  %-24s Commit wait: %s\n", c.Title, c.CommitWait)
	fmt.Fprintf(r.out, "    %-6s TVL %-12s TCR %-12s DEX %-12s %6s%%  %s\n",
		"SHORT", c.Short.TVL, c.Short.TCRPrice, c.Short.DEXPrice, c.Short.TVLShare.StringFixed(2), c.Short.Trade)
	fmt.Fprintf(r.out, "    %-6s TVL %-12s TCR %-12s DEX %-12s %6s%%  %s\n",
		"LONG", c.Long.TVL, c.Long.TCRPrice, c.Long.DEXPrice, c.Long.TVLShare.StringFixed(2), c.Long.Trade)
	if c.Holding.Value != "" && !c.Holding.NetValue.IsZero() {
		fmt.Fprintf(r.out, "    %-6s %s  exposure %s\n", "HELD", c.Holding.Value, c.Holding.Exposure)
	}
}

// Stop prints the footer.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Perpetual Pools Stopped")
	return nil
}
