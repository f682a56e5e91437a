package tally

import "time"

// DateFormat is the calendar-date layout used throughout the data layer.
// Progress records are keyed by (habit id, date) using this format.
const DateFormat = "2006-01-02"

// LocalUserID is the sentinel owner identity used for records created
// without an authenticated session.
const LocalUserID = "local_user"

// DefaultCategory is assigned to habits created without a category.
const DefaultCategory = "Custom"

// DefaultIcon is assigned to habits created without an icon tag.
const DefaultIcon = "checkmark-circle"

// Collection keys of the local store. Each key addresses an ordered
// sequence of records persisted as a single document.
const (
	CollectionHabits      = "habits"
	CollectionProgress    = "progress"
	CollectionPreferences = "user_preferences"
)

// Habit is a tracked habit together with its derived counters.
// BestStreak >= CurrentStreak holds after every update and TotalCompletions
// never decreases. CompletedThisWeek only ever increments: the original
// system has no week-boundary reset, and that behavior is kept.
type Habit struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Icon              string    `json:"icon"`
	Category          string    `json:"category"`
	CurrentStreak     int       `json:"current_streak"`
	BestStreak        int       `json:"best_streak"`
	CompletedThisWeek int       `json:"completed_this_week"`
	TotalCompletions  int       `json:"total_completions"`
	UserID            string    `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProgressRecord is one habit's completion state for one calendar date.
// At most one record exists per (habit id, date, owner).
type ProgressRecord struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habit_id"`
	CompletionDate string    `json:"completion_date"`
	Completed      bool      `json:"completed"`
	Note           string    `json:"note"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HabitDraft carries the caller-supplied fields for a new habit.
// Derived counters always start at zero.
type HabitDraft struct {
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Category string `json:"category,omitempty"`
}

// HabitPatch is a partial habit update. Nil fields are left unchanged.
type HabitPatch struct {
	Name     *string `json:"name,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	Category *string `json:"category,omitempty"`
}

// DayProgress is the per-date view of one habit: its identity joined with
// that day's completion state, if any.
type DayProgress struct {
	HabitID   string `json:"habit_id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Completed bool   `json:"completed"`
	Note      string `json:"note"`
	Streak    int    `json:"streak"`
}

// CalendarCell is one day of a month grid. Cells are derived on demand and
// never persisted.
type CalendarCell struct {
	Day         int  `json:"day"`
	Completions int  `json:"completions"`
	IsToday     bool `json:"is_today"`
}

// MonthStats aggregates completions over one month.
type MonthStats struct {
	ActiveDays       int `json:"active_days"`
	TotalCompletions int `json:"total_completions"`
}

// MonthData is the calendar grid for one month. Cells holds one nil entry
// per weekday offset before the 1st (the grid starts on Sunday), then one
// cell per day of the month. The tail is not padded.
type MonthData struct {
	Cells []*CalendarCell `json:"calendar"`
	Stats MonthStats      `json:"stats"`
}

// SyncStats summarizes one reconciler run.
type SyncStats struct {
	SyncedHabits int           `json:"synced_habits"`
	TotalHabits  int           `json:"total_habits"`
	Duration     time.Duration `json:"duration"`
}
