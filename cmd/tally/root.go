package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/tally"
	"github.com/spf13/cobra"
)

var (
	cfgDBPath    string
	cfgRemoteURL string
	cfgNamespace string
	cfgDatabase  string
	cfgUsername  string
	cfgPassword  string
	cfgUserID    string
	cfgDebug     bool
	outputJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Tally - habit tracking CLI",
	Long: `Tally tracks daily habits, streaks, and completion history.

Data lives in a local SQLite database and works fully offline. When a
remote backend is configured and a user identity is set, operations are
served from the remote store with automatic fallback to local data.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local database (default: ~/.tally/tally.db)")
	rootCmd.PersistentFlags().StringVar(&cfgRemoteURL, "remote-url", "", "URL of remote SurrealDB backend")
	rootCmd.PersistentFlags().StringVar(&cfgNamespace, "remote-ns", "", "Remote namespace (default: tally)")
	rootCmd.PersistentFlags().StringVar(&cfgDatabase, "remote-db", "", "Remote database (default: habits)")
	rootCmd.PersistentFlags().StringVar(&cfgUsername, "remote-user", "", "Remote backend username")
	rootCmd.PersistentFlags().StringVar(&cfgPassword, "remote-pass", "", "Remote backend password")
	rootCmd.PersistentFlags().StringVar(&cfgUserID, "user-id", "", "Signed-in user identity for remote records")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(habitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(dataCmd)
}

// loadConfig builds the client config from the environment, then lets flags
// win over it.
func loadConfig() tally.Config {
	cfg := tally.ConfigFromEnv()

	if cfgDBPath != "" {
		cfg.LocalPath = cfgDBPath
	}
	if cfgRemoteURL != "" {
		cfg.RemoteURL = cfgRemoteURL
	}
	if cfgNamespace != "" {
		cfg.Namespace = cfgNamespace
	}
	if cfgDatabase != "" {
		cfg.Database = cfgDatabase
	}
	if cfgUsername != "" {
		cfg.Username = cfgUsername
	}
	if cfgPassword != "" {
		cfg.Password = cfgPassword
	}
	if cfgUserID != "" {
		cfg.UserID = cfgUserID
	}
	if cfgDebug {
		cfg.Debug = true
	}

	return cfg
}

// newClient opens the data layer for one command invocation. The session is
// static: identity comes from --user-id or TALLY_USER_ID.
func newClient(ctx context.Context) (*tally.Client, error) {
	cfg := loadConfig()
	client, err := tally.New(ctx, cfg, tally.StaticSession{ID: cfg.UserID})
	if err != nil {
		return nil, fmt.Errorf("initialize client: %w", err)
	}
	return client, nil
}
