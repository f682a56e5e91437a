package tally

// applyCompletion folds a single day's completion toggle into a habit's
// derived counters. Both stores route every progress write through this.
//
// The model is a monotonic increment, not a calendar-aware streak: every
// completed=true upsert increments the streak regardless of which date it
// targets, and re-toggling the same date counts again. Un-completing only
// resets the current streak; best streak and totals are untouched.
// CompletedThisWeek is incremented but never reset on week boundaries,
// matching the original behavior.
func applyCompletion(h *Habit, completed bool) {
	if completed {
		h.CurrentStreak++
		if h.CurrentStreak > h.BestStreak {
			h.BestStreak = h.CurrentStreak
		}
		h.TotalCompletions++
		h.CompletedThisWeek++
		return
	}
	h.CurrentStreak = 0
}
