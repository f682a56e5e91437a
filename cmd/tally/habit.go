package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/tally"
	"github.com/spf13/cobra"
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
	Long: `Create, list, update, and delete habits.

Example:
  tally habit list
  tally habit add "Drink water" --category Health --icon water
  tally habit edit <habit> --name "Hydrate"
  tally habit rm <habit>`,
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all habits",
	RunE:  runHabitList,
}

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new habit",
	Long: `Add a new habit. Streak counters start at zero.

Example:
  tally habit add "Drink water"
  tally habit add "Read" --category Learning --icon book`,
	Args: cobra.ExactArgs(1),
	RunE: runHabitAdd,
}

var habitEditCmd = &cobra.Command{
	Use:   "edit <habit>",
	Short: "Edit a habit",
	Long: `Update a habit's name, icon, or category. Only the given flags
change; counters are never edited directly.

The habit may be referenced by id or by exact name.`,
	Args: cobra.ExactArgs(1),
	RunE: runHabitEdit,
}

var habitRmCmd = &cobra.Command{
	Use:   "rm <habit>",
	Short: "Delete a habit",
	Long: `Delete a habit and its entire progress history.

The habit may be referenced by id or by exact name.`,
	Args: cobra.ExactArgs(1),
	RunE: runHabitRm,
}

var (
	habitIcon     string
	habitCategory string
	habitNewName  string
)

func init() {
	habitAddCmd.Flags().StringVar(&habitIcon, "icon", "", "Icon name (default: checkmark-circle)")
	habitAddCmd.Flags().StringVar(&habitCategory, "category", "", "Category (default: Custom)")

	habitEditCmd.Flags().StringVar(&habitNewName, "name", "", "New name")
	habitEditCmd.Flags().StringVar(&habitIcon, "icon", "", "New icon")
	habitEditCmd.Flags().StringVar(&habitCategory, "category", "", "New category")

	habitCmd.AddCommand(habitListCmd)
	habitCmd.AddCommand(habitAddCmd)
	habitCmd.AddCommand(habitEditCmd)
	habitCmd.AddCommand(habitRmCmd)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// resolveHabit finds a habit by id, falling back to exact name match.
func resolveHabit(ctx context.Context, client *tally.Client, ref string) (*tally.Habit, error) {
	if habit, err := client.GetHabit(ctx, ref); err == nil {
		return habit, nil
	}

	habits, err := client.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	for i := range habits {
		if strings.EqualFold(habits[i].Name, ref) {
			return &habits[i], nil
		}
	}
	return nil, fmt.Errorf("no habit matching %q", ref)
}

func runHabitList(cmd *cobra.Command, args []string) error {
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
	return outputHabitList(cmd, habits)
}

func runHabitAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	habit, err := client.CreateHabit(ctx, tally.HabitDraft{
		Name:     args[0],
		Icon:     habitIcon,
		Category: habitCategory,
	})
	if err != nil {
		return fmt.Errorf("add habit: %w", err)
	}
	return outputHabit(cmd, habit)
}

func runHabitEdit(cmd *cobra.Command, args []string) error {
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

	var patch tally.HabitPatch
	if habitNewName != "" {
		patch.Name = &habitNewName
	}
	if habitIcon != "" {
		patch.Icon = &habitIcon
	}
	if habitCategory != "" {
		patch.Category = &habitCategory
	}
	if patch.Name == nil && patch.Icon == nil && patch.Category == nil {
		return fmt.Errorf("nothing to change: pass --name, --icon, or --category")
	}

	updated, err := client.UpdateHabit(ctx, habit.ID, patch)
	if err != nil {
		return fmt.Errorf("edit habit: %w", err)
	}
	return outputHabit(cmd, updated)
}

func runHabitRm(cmd *cobra.Command, args []string) error {
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

	if err := client.DeleteHabit(ctx, habit.ID); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	outputText(cmd, "Deleted %q and its progress history.\n", habit.Name)
	return nil
}
