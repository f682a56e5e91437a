package tally

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// TestReconciler_ReplaysHistory verifies a synced habit's counters are
// rebuilt remotely from its progress records, not copied from the local
// habit row.
func TestReconciler_ReplaysHistory(t *testing.T) {
	local := newTestStore(t)
	remote := newMemRemote("remote-user")

	habit, err := local.CreateHabit(HabitDraft{Name: "Water", Category: "Health"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	for _, date := range []string{"2024-03-01", "2024-03-02"} {
		if _, err := local.UpsertProgress(habit.ID, date, true, ""); err != nil {
			t.Fatalf("UpsertProgress failed: %v", err)
		}
	}

	stats, err := NewReconciler(local, remote, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.SyncedHabits != 1 || stats.TotalHabits != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	habits, err := remote.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("remote ListHabits failed: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 remote habit, got %d", len(habits))
	}
	got := habits[0]
	if got.Name != "Water" || got.Category != "Health" {
		t.Errorf("identity not carried over: %+v", got)
	}
	if got.UserID != "remote-user" {
		t.Errorf("expected remote ownership, got %q", got.UserID)
	}
	if got.TotalCompletions != 2 || got.CurrentStreak != 2 {
		t.Errorf("expected counters rebuilt from replay (total=2, streak=2), got %+v", got)
	}

	progress, err := remote.ListProgress(context.Background())
	if err != nil {
		t.Fatalf("remote ListProgress failed: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 remote progress records, got %d", len(progress))
	}
	for _, p := range progress {
		if p.HabitID != got.ID {
			t.Errorf("progress record points at local id %q instead of remote id %q", p.HabitID, got.ID)
		}
	}
}

// TestReconciler_CountersNotCopied tampers with the local counters to prove
// the replay path is the only source of remote counters.
func TestReconciler_CountersNotCopied(t *testing.T) {
	local := newTestStore(t)
	remote := newMemRemote("remote-user")

	habit, err := local.CreateHabit(HabitDraft{Name: "Water"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	// Inflate counters without matching progress records.
	for i := 0; i < 5; i++ {
		if _, err := local.ApplyCompletion(habit.ID, true); err != nil {
			t.Fatalf("ApplyCompletion failed: %v", err)
		}
	}

	if _, err := NewReconciler(local, remote, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	habits, err := remote.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("remote ListHabits failed: %v", err)
	}
	if habits[0].TotalCompletions != 0 || habits[0].CurrentStreak != 0 {
		t.Errorf("counters were copied instead of rebuilt: %+v", habits[0])
	}
}

// TestReconciler_ContinuesPastFailures verifies one habit's failure does not
// abort the rest of the run.
func TestReconciler_ContinuesPastFailures(t *testing.T) {
	local := newTestStore(t)
	remote := newMemRemote("remote-user")
	remote.failCreate["Read"] = true

	for _, name := range []string{"Water", "Read", "Run"} {
		if _, err := local.CreateHabit(HabitDraft{Name: name}); err != nil {
			t.Fatalf("CreateHabit(%q) failed: %v", name, err)
		}
	}

	stats, err := NewReconciler(local, remote, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.SyncedHabits != 2 {
		t.Errorf("expected 2 synced habits, got %d", stats.SyncedHabits)
	}
	if stats.TotalHabits != 3 {
		t.Errorf("expected 3 total habits, got %d", stats.TotalHabits)
	}

	habits, err := remote.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("remote ListHabits failed: %v", err)
	}
	if len(habits) != 2 {
		t.Errorf("expected the 2 surviving habits remotely, got %d", len(habits))
	}
}

// TestReconciler_LeavesLocalDataInPlace verifies the run is a copy, not a
// move.
func TestReconciler_LeavesLocalDataInPlace(t *testing.T) {
	local := newTestStore(t)
	remote := newMemRemote("remote-user")

	habit, err := local.CreateHabit(HabitDraft{Name: "Water"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	if _, err := local.UpsertProgress(habit.ID, "2024-03-01", true, ""); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}

	if _, err := NewReconciler(local, remote, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	habits, err := local.ListHabits()
	if err != nil {
		t.Fatalf("local ListHabits failed: %v", err)
	}
	if len(habits) != 1 {
		t.Errorf("local habits changed: got %d", len(habits))
	}
	progress, err := local.ListProgress()
	if err != nil {
		t.Fatalf("local ListProgress failed: %v", err)
	}
	if len(progress) != 1 {
		t.Errorf("local progress changed: got %d", len(progress))
	}
}

func TestReconciler_EmptyStore(t *testing.T) {
	local := newTestStore(t)
	remote := newMemRemote("remote-user")

	stats, err := NewReconciler(local, remote, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.SyncedHabits != 0 || stats.TotalHabits != 0 {
		t.Errorf("unexpected stats for empty store: %+v", stats)
	}
	if len(remote.calls) != 0 {
		t.Errorf("expected no remote calls for empty store, got %v", remote.calls)
	}
}

// TestReconciler_ClosedLocalStore ensures a defunct local store fails the
// run instead of silently reporting zero habits.
func TestReconciler_ClosedLocalStore(t *testing.T) {
	local, err := NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	if err := local.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := NewReconciler(local, newMemRemote("u"), zerolog.Nop()).Run(context.Background()); err == nil {
		t.Error("expected error from closed local store")
	}
}
