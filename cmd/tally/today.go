package main

import (
	"fmt"

	"github.com/hyperengineering/tally"
	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's progress",
	Long: `Show every habit with its completion state for a date
(default: today).

Example:
  tally today
  tally today --date 2024-03-01`,
	RunE: runToday,
}

var todayDate string

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date to show, YYYY-MM-DD (default: today)")
}

func runToday(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	date := todayDate
	if date == "" {
		date = tally.Today()
	}

	day, err := client.DayProgress(ctx, date)
	if err != nil {
		return fmt.Errorf("day progress: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, day)
	}

	if len(day) == 0 {
		outputText(cmd, "No habits yet. Add one with 'tally habit add <name>'.\n")
		return nil
	}

	done := 0
	outputText(cmd, "%s\n", date)
	for _, entry := range day {
		mark := "[ ]"
		if entry.Completed {
			mark = "[x]"
			done++
		}
		line := fmt.Sprintf("%s %s", mark, entry.Name)
		if entry.Streak > 0 {
			line += fmt.Sprintf("  (streak %d)", entry.Streak)
		}
		if entry.Note != "" {
			line += fmt.Sprintf("  (%s)", entry.Note)
		}
		outputText(cmd, "%s\n", line)
	}
	outputText(cmd, "%d of %d completed.\n", done, len(day))
	return nil
}
