package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/worker"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Resolve closed tickets past the threshold once and exit",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer c.Close()

	return sweep(ctx, c.lifecycle, cmd.OutOrStdout(), logger)
}

// sweep runs one pass. A storage failure fails the command with a non-zero exit.
func sweep(ctx context.Context, resolver worker.ClosedResolver, out io.Writer, logger *zap.Logger) error {
	n, err := worker.Sweep(ctx, resolver, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "resolved %d closed tickets\n", n)
	return nil
}
