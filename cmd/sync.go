package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klokku/calsync/internal/app"
	"github.com/spf13/cobra"
)

const defaultSyncTimeout = 10 * time.Minute

func newSyncCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one fresh sync and wait until every calendar is imported",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			application, err := app.NewApplication(ctx, configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
			defer timeoutCancel()

			completed, err := application.SyncOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fresh sync %s finished in %s: %d calendars, %d event fetches\n",
				completed.RunID, completed.FinishedAt.Sub(completed.StartedAt).Round(time.Millisecond),
				completed.Calendars, completed.EventFetches)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSyncTimeout, "Maximum time to wait for the fresh sync to finish")
	return cmd
}
