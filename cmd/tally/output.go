package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperengineering/tally"
	"github.com/spf13/cobra"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputText prints text to the command's stdout.
func outputText(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// outputError prints an error to stderr, keeping the remote password out of
// the message if it ever leaks into one.
func outputError(w io.Writer, err error) {
	msg := err.Error()
	if cfgPassword != "" && strings.Contains(msg, cfgPassword) {
		msg = strings.ReplaceAll(msg, cfgPassword, "[REDACTED]")
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
}

// outputHabit prints a single habit in the configured format.
func outputHabit(cmd *cobra.Command, habit *tally.Habit) error {
	if outputJSON {
		return outputAsJSON(cmd, habit)
	}
	outputText(cmd, "%s  %s\n", habit.ID, habit.Name)
	outputText(cmd, "  category: %s\n", habit.Category)
	outputText(cmd, "  streak: %d (best %d)\n", habit.CurrentStreak, habit.BestStreak)
	outputText(cmd, "  completions: %d all time, %d this week\n", habit.TotalCompletions, habit.CompletedThisWeek)
	return nil
}

// outputHabitList prints habits in the configured format.
func outputHabitList(cmd *cobra.Command, habits []tally.Habit) error {
	if outputJSON {
		return outputAsJSON(cmd, habits)
	}
	if len(habits) == 0 {
		outputText(cmd, "No habits yet. Add one with 'tally habit add <name>'.\n")
		return nil
	}
	for _, h := range habits {
		marker := " "
		if h.CurrentStreak > 0 {
			marker = "*"
		}
		outputText(cmd, "%s %-24s streak %-3d total %-4d %s\n", marker, h.Name, h.CurrentStreak, h.TotalCompletions, h.ID)
	}
	return nil
}
