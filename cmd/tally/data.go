package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export, import, or clear local data",
	Long: `Manage the local database as a whole.

Subcommands:
  export  Write a JSON snapshot of habits and progress
  import  Replace local collections from a snapshot
  clear   Delete all local data

Example:
  tally data export > backup.json
  tally data import backup.json
  tally data clear --confirm`,
}

var dataExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export local data as JSON",
	Long: `Write a JSON snapshot of the local habit and progress collections
to a file, or to stdout when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDataExport,
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON snapshot",
	Long: `Replace the local habit and progress collections with the contents
of a snapshot produced by 'tally data export'.`,
	Args: cobra.ExactArgs(1),
	RunE: runDataImport,
}

var dataClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all local data",
	Long: `Delete every local habit, progress record, and preference.

Requires --confirm. Prompts interactively unless --force is given.`,
	RunE: runDataClear,
}

var (
	clearConfirm bool
	clearForce   bool
)

func init() {
	dataClearCmd.Flags().BoolVar(&clearConfirm, "confirm", false, "Confirm deletion")
	dataClearCmd.Flags().BoolVar(&clearForce, "force", false, "Skip interactive prompt")

	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataClearCmd)
}

func runDataExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		defer f.Close()
		out = f
	}

	if err := client.Local().Export(out); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if len(args) == 1 {
		outputText(cmd, "Exported to %s\n", args[0])
	}
	return nil
}

func runDataImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	if err := client.Local().Import(f); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	habits, err := client.Local().ListHabits()
	if err != nil {
		return err
	}
	outputText(cmd, "Imported %d habits from %s\n", len(habits), args[0])
	return nil
}

func runDataClear(cmd *cobra.Command, args []string) error {
	if !clearConfirm {
		return fmt.Errorf("refusing to delete all data without --confirm")
	}

	if !clearForce {
		fmt.Fprint(cmd.OutOrStdout(), "Delete ALL local habits and progress? Type 'yes' to continue: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			outputText(cmd, "Aborted.\n")
			return nil
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Local().ClearAll(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	outputText(cmd, "All local data deleted.\n")
	return nil
}
