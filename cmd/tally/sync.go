package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay local habits to the remote backend",
	Long: `Push every locally-created habit and its progress history to the
remote backend. Counters are rebuilt remotely from the replayed history.

Requires remote configuration (--remote-url or TALLY_REMOTE_URL) and a
user identity (--user-id or TALLY_USER_ID).

Example:
  tally sync --remote-url ws://localhost:8000/rpc --user-id alice`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.RemoteURL == "" {
		return fmt.Errorf("TALLY_REMOTE_URL not configured")
	}
	if cfg.UserID == "" {
		return fmt.Errorf("TALLY_USER_ID not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	outputText(cmd, "Synchronizing with remote backend...\n")
	start := time.Now()

	stats, err := client.SyncToRemote(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, stats)
	}

	outputText(cmd, "Synced %d of %d habits (took %s)\n",
		stats.SyncedHabits, stats.TotalHabits, time.Since(start).Round(time.Millisecond))
	if stats.SyncedHabits < stats.TotalHabits {
		outputText(cmd, "%d habits failed; rerun with --debug for details.\n",
			stats.TotalHabits-stats.SyncedHabits)
	}
	return nil
}
