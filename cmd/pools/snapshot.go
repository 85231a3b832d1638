package main

import (
	"fmt"

	"github.com/spf13/cobra"

	poolsDI "github.com/fd1az/perpetual-pools/business/pools/di"
	"github.com/fd1az/perpetual-pools/business/pools/infra/jsonfile"
	"github.com/fd1az/perpetual-pools/business/pools/infra/postgres"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Copy the configured source's rows into a JSON file or Postgres",
		RunE:  runSnapshot,
	}
	cmd.Flags().String("to", "jsonfile", "destination (jsonfile, postgres)")
	cmd.Flags().String("path", "pools-snapshot.json", "output file for jsonfile")
	cmd.Flags().String("dsn", "", "Postgres DSN for postgres (defaults to source.dsn)")
	return cmd
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := bootstrap(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	source := poolsDI.GetRowSource(rt.mono.Services())
	rows, err := source.Rows(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s source: %w", source.Name(), err)
	}

	to, _ := cmd.Flags().GetString("to")
	var id string
	switch to {
	case "jsonfile":
		path, _ := cmd.Flags().GetString("path")
		id, err = jsonfile.NewSource(path).SaveSnapshot(ctx, rows)
	case "postgres":
		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			dsn = rt.cfg.Source.DSN
		}
		if dsn == "" {
			return fmt.Errorf("--dsn is required when source.dsn is not set")
		}
		store, serr := postgres.NewStore(ctx, dsn, source.Name())
		if serr != nil {
			return serr
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		id, err = store.SaveSnapshot(ctx, rows)
	default:
		return fmt.Errorf("unknown destination %q", to)
	}
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	rt.log.Info(ctx, "snapshot saved", "to", to, "id", id, "rows", len(rows))
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d rows from %s to %s (%s)\n", len(rows), source.Name(), to, id)
	return nil
}
