package main

import (
	"fmt"

	"github.com/hyperengineering/tally"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <habit>",
	Short: "Log a habit completion",
	Long: `Mark a habit as completed for a date (default: today). Repeating
the command for the same date updates the existing record.

Example:
  tally log "Drink water"
  tally log "Read" --date 2024-03-01 --note "two chapters"
  tally log "Read" --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

var (
	logDate string
	logNote string
	logUndo bool
)

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "Completion date, YYYY-MM-DD (default: today)")
	logCmd.Flags().StringVar(&logNote, "note", "", "Optional note for the day")
	logCmd.Flags().BoolVar(&logUndo, "undo", false, "Mark the date as not completed")
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	habit, err := resolveHabit(ctx, client, args[0])
	if err != nil {
		return err
	}

	date := logDate
	if date == "" {
		date = tally.Today()
	}

	record, err := client.UpsertProgress(ctx, habit.ID, date, !logUndo, logNote)
	if err != nil {
		return fmt.Errorf("log progress: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, record)
	}
	if logUndo {
		outputText(cmd, "Unmarked %q for %s.\n", habit.Name, date)
	} else {
		outputText(cmd, "Logged %q for %s.\n", habit.Name, date)
	}

	updated, err := client.GetHabit(ctx, habit.ID)
	if err == nil {
		outputText(cmd, "Streak: %d (best %d), %d completions all time.\n",
			updated.CurrentStreak, updated.BestStreak, updated.TotalCompletions)
	}
	return nil
}
