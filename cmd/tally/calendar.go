package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the monthly completion calendar",
	Long: `Render the completion calendar for a month (default: the current
month). Each day shows its completion count across all habits.

Example:
  tally calendar
  tally calendar --month 2024-05`,
	RunE: runCalendar,
}

var calendarMonth string

func init() {
	calendarCmd.Flags().StringVar(&calendarMonth, "month", "", "Month to show, YYYY-MM (default: current)")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if calendarMonth != "" {
		parsed, err := time.Parse("2006-01", calendarMonth)
		if err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM", calendarMonth)
		}
		year, month = parsed.Year(), int(parsed.Month())
	}

	data, err := client.MonthData(ctx, year, month)
	if err != nil {
		return fmt.Errorf("month data: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, data)
	}

	outputText(cmd, "%s %d\n", time.Month(month), year)
	outputText(cmd, "Su Mo Tu We Th Fr Sa\n")

	var row []string
	flush := func() {
		if len(row) > 0 {
			outputText(cmd, "%s\n", strings.Join(row, " "))
			row = row[:0]
		}
	}
	for _, cell := range data.Cells {
		if cell == nil {
			row = append(row, "  ")
		} else {
			day := fmt.Sprintf("%2d", cell.Day)
			switch {
			case cell.IsToday:
				day = "[" + strings.TrimSpace(day) + "]"
			case cell.Completions > 0:
				day += "*"
			}
			row = append(row, day)
		}
		if len(row) == 7 {
			flush()
		}
	}
	flush()

	outputText(cmd, "\n%d completions across %d active days.\n",
		data.Stats.TotalCompletions, data.Stats.ActiveDays)
	return nil
}
