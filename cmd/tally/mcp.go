package main

import (
	"context"

	tallymcp "github.com/hyperengineering/tally/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for coding agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

This allows coding agents to read and update habits through tally tools.

Configuration for an MCP-capable agent:

  {
    "mcpServers": {
      "tally": {
        "command": "tally",
        "args": ["mcp"],
        "env": {
          "TALLY_DB_PATH": "/path/to/tally.db"
        }
      }
    }
  }

Environment variables:
  TALLY_DB_PATH     Path to local SQLite database
  TALLY_REMOTE_URL  Remote backend URL (optional, enables sync)
  TALLY_USER_ID     Signed-in identity (required for remote operations)`,
	RunE: runMCPServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	// The client persists for the server lifetime.
	client, err := newClient(context.Background())
	if err != nil {
		return err
	}
	defer client.Close()

	srv := tallymcp.NewServer(client)
	return srv.Run()
}
