package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/fd1az/perpetual-pools/business/pools/app"
	poolsDI "github.com/fd1az/perpetual-pools/business/pools/di"
	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/business/pools/infra"
	"github.com/fd1az/perpetual-pools/internal/config"
	"github.com/fd1az/perpetual-pools/pkg/ui"
)

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse pools in the terminal (TUI by default)",
		RunE:  runBrowse,
	}
	cmd.Flags().Bool("cli", false, "print listings to stdout instead of the TUI")
	cmd.Flags().String("search", "", "case-insensitive name/symbol filter")
	cmd.Flags().String("market", "", "market filter (All, Ethereum, btc, ...)")
	cmd.Flags().String("leverage", "", "leverage filter (All, 1, 3x, ...)")
	cmd.Flags().String("sort", "", "sort key (name, tvl, holdings)")
	cmd.Flags().String("denotation", "", "value denotation (base, notional)")
	cmd.Flags().String("account", "", "account address for holdings")
	return cmd
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cliMode, _ := cmd.Flags().GetBool("cli")

	rt, err := bootstrap(ctx, cmd, !cliMode)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	state, bctx, err := browseParams(cmd, rt.cfg)
	if err != nil {
		return err
	}
	svc := poolsDI.GetBrowseService(rt.mono.Services())

	if !cliMode {
		return ui.Run(ctx, svc, ui.Config{
			Account:         bctx.Account,
			Connected:       bctx.AccountConnected(),
			Denotation:      bctx.Denotation,
			State:           state,
			RefreshInterval: rt.cfg.Source.RefreshInterval,
		})
	}

	if rt.cfg.Telemetry.Enabled {
		go func() {
			if err := rt.metrics.Serve(ctx, rt.cfg.Telemetry.PrometheusPort); err != nil {
				rt.log.Warn(ctx, "metrics server failed", "error", err)
			}
		}()
	}

	watcher := app.NewWatcher(svc, infra.NewConsoleReporter(), app.WatcherConfig{
		State:    state,
		Context:  bctx,
		Interval: rt.cfg.Source.RefreshInterval,
	}, rt.log)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()
	rt.log.Info(context.Background(), "shutting down")
	return watcher.Stop()
}

// browseParams merges the browse section of the config with flag overrides
// and validates them the same way the HTTP API does.
func browseParams(cmd *cobra.Command, cfg *config.Config) (domain.BrowseState, app.BrowseContext, error) {
	q := url.Values{}
	set := func(key, flag, fallback string) {
		v, _ := cmd.Flags().GetString(flag)
		if v == "" {
			v = fallback
		}
		if v != "" {
			q.Set(key, v)
		}
	}
	set("search", "search", cfg.Browse.Search)
	set("market", "market", cfg.Browse.Market)
	set("leverage", "leverage", cfg.Browse.Leverage)
	set("sort", "sort", cfg.Browse.SortBy)
	set("denotation", "denotation", "")
	set("account", "account", cfg.Browse.Account)

	state, bctx, err := infra.ParseQuery(q, app.ParseDenotation(cfg.Display.Denotation))
	if err != nil {
		return state, bctx, fmt.Errorf("invalid browse options: %w", err)
	}
	return state, bctx, nil
}
