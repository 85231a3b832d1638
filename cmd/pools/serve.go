package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/fd1az/perpetual-pools/business/pools"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON listing, health probes and metrics over HTTP",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := bootstrap(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	server := rt.mono.HTTPServer()
	server.Handle("GET /metrics", rt.metrics.Handler())
	server.Start(ctx)
	rt.log.Info(ctx, "serving pools", "port", rt.cfg.Server.Port, "route", pools.APIRoute)

	<-ctx.Done()

	timeout := rt.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rt.log.Info(shutdownCtx, "shutting down")
	return server.Stop(shutdownCtx)
}
