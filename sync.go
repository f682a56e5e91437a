package tally

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler replays locally-created habits and their progress history into
// the remote store, establishing remote identities for entities that so far
// exist only on-device. It runs once per sign-in.
//
// Each habit is sent as a fresh create (name, icon, category only); derived
// counters are not copied. The habit's progress records are then replayed
// through the normal upsert path, which rebuilds the remote counters one
// completion at a time in insertion order. Habits are processed
// sequentially so remote-identity creation order stays deterministic and
// peak load on the backend stays bounded.
//
// The run is not re-run safe: it always creates, so invoking it again for
// the same local data duplicates remote habits. Local data is left in place
// afterwards as a historical copy.
type Reconciler struct {
	local  *LocalStore
	remote RemoteAPI
	log    zerolog.Logger
}

// NewReconciler creates a reconciler over the given stores.
func NewReconciler(local *LocalStore, remote RemoteAPI, log zerolog.Logger) *Reconciler {
	return &Reconciler{local: local, remote: remote, log: log}
}

// Run performs the local-to-remote replay. One habit's failure does not
// abort the rest: failures are logged and counted, and the returned stats
// carry only the aggregate (synced vs total).
func (r *Reconciler) Run(ctx context.Context) (*SyncStats, error) {
	start := time.Now()

	habits, err := r.local.ListHabits()
	if err != nil {
		return nil, err
	}
	progress, err := r.local.ListProgress()
	if err != nil {
		return nil, err
	}

	synced := 0
	for _, habit := range habits {
		if err := r.syncHabit(ctx, habit, progress); err != nil {
			r.log.Warn().Err(err).Str("habit", habit.Name).Msg("habit sync failed, continuing")
			continue
		}
		r.log.Info().Str("habit", habit.Name).Msg("habit synced")
		synced++
	}

	return &SyncStats{
		SyncedHabits: synced,
		TotalHabits:  len(habits),
		Duration:     time.Since(start),
	}, nil
}

func (r *Reconciler) syncHabit(ctx context.Context, habit Habit, progress []ProgressRecord) error {
	created, err := r.remote.CreateHabit(ctx, HabitDraft{
		Name:     habit.Name,
		Icon:     habit.Icon,
		Category: habit.Category,
	})
	if err != nil {
		return err
	}

	for _, p := range progress {
		if p.HabitID != habit.ID {
			continue
		}
		if _, err := r.remote.UpsertProgress(ctx, created.ID, p.CompletionDate, p.Completed, p.Note); err != nil {
			return err
		}
	}
	return nil
}
