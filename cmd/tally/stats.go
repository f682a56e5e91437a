package main

import (
	"fmt"

	"github.com/hyperengineering/tally"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show overall statistics",
	Long: `Display aggregate statistics across all habits.

Example:
  tally stats
  tally stats --json`,
	RunE: runStats,
}

type statsSummary struct {
	Habits           int    `json:"habits"`
	TotalCompletions int    `json:"total_completions"`
	ActiveStreaks    int    `json:"active_streaks"`
	BestStreak       int    `json:"best_streak"`
	BestStreakHabit  string `json:"best_streak_habit,omitempty"`
	CompletedToday   int    `json:"completed_today"`
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	habits, err := client.ListHabits(ctx)
	if err != nil {
		return fmt.Errorf("list habits: %w", err)
	}
	day, err := client.DayProgress(ctx, tally.Today())
	if err != nil {
		return fmt.Errorf("day progress: %w", err)
	}

	var summary statsSummary
	summary.Habits = len(habits)
	for _, h := range habits {
		summary.TotalCompletions += h.TotalCompletions
		if h.CurrentStreak > 0 {
			summary.ActiveStreaks++
		}
		if h.BestStreak > summary.BestStreak {
			summary.BestStreak = h.BestStreak
			summary.BestStreakHabit = h.Name
		}
	}
	for _, entry := range day {
		if entry.Completed {
			summary.CompletedToday++
		}
	}

	if outputJSON {
		return outputAsJSON(cmd, summary)
	}

	outputText(cmd, "Habit Statistics\n")
	outputText(cmd, "----------------\n")
	outputText(cmd, "Habits:            %d\n", summary.Habits)
	outputText(cmd, "Total completions: %d\n", summary.TotalCompletions)
	outputText(cmd, "Active streaks:    %d\n", summary.ActiveStreaks)
	if summary.BestStreak > 0 {
		outputText(cmd, "Best streak:       %d (%s)\n", summary.BestStreak, summary.BestStreakHabit)
	} else {
		outputText(cmd, "Best streak:       0\n")
	}
	outputText(cmd, "Completed today:   %d of %d\n", summary.CompletedToday, summary.Habits)
	return nil
}
