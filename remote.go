package tally

import (
	"context"
	"fmt"
	"strings"
	"time"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// RemoteStore adapts the remote SurrealDB backend to the same operation
// surface as LocalStore. Every row carries an owner identity and every
// statement is predicated on owner equality, so one user can never read or
// mutate another user's rows. All statements are parameterized; no user
// value is ever interpolated into SurrealQL.
type RemoteStore struct {
	db      *surrealdb.DB
	session SessionProvider
}

const (
	remoteHabitsTable   = "habits"
	remoteProgressTable = "progress"
)

// remoteHabit is the habits-table row shape.
type remoteHabit struct {
	ID                *models.RecordID      `json:"id,omitempty"`
	Name              string                `json:"name"`
	Icon              string                `json:"icon"`
	Category          string                `json:"category"`
	CurrentStreak     int                   `json:"current_streak"`
	BestStreak        int                   `json:"best_streak"`
	CompletedThisWeek int                   `json:"completed_this_week"`
	TotalCompletions  int                   `json:"total_completions"`
	Owner             string                `json:"owner"`
	CreatedAt         models.CustomDateTime `json:"created_at"`
	UpdatedAt         models.CustomDateTime `json:"updated_at"`
}

// remoteProgress is the progress-table row shape. HabitID is the string
// form of the owning habit's record id; equality and date-range queries run
// against habit_id and completion_date.
type remoteProgress struct {
	ID             *models.RecordID      `json:"id,omitempty"`
	HabitID        string                `json:"habit_id"`
	CompletionDate string                `json:"completion_date"`
	Completed      bool                  `json:"completed"`
	Note           string                `json:"note"`
	Owner          string                `json:"owner"`
	CreatedAt      models.CustomDateTime `json:"created_at"`
	UpdatedAt      models.CustomDateTime `json:"updated_at"`
}

// NewRemoteStore connects to the remote backend described by cfg and binds
// it to the given session provider for identity resolution.
func NewRemoteStore(ctx context.Context, cfg Config, session SessionProvider) (*RemoteStore, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.RemoteURL)
	if err != nil {
		return nil, fmt.Errorf("connect remote: %w", err)
	}

	if cfg.Username != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			return nil, fmt.Errorf("remote sign-in: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}

	return &RemoteStore{db: db, session: session}, nil
}

// Close closes the remote connection.
func (r *RemoteStore) Close(ctx context.Context) error {
	return r.db.Close(ctx)
}

// owner resolves the session identity. Absence of an identity is a caller
// bug, never silently downgraded to the local sentinel.
func (r *RemoteStore) owner() (string, error) {
	id, ok := r.session.UserID()
	if !ok || id == "" {
		return "", ErrNotAuthenticated
	}
	return id, nil
}

func habitRecordID(id string) (models.RecordID, error) {
	table, key, ok := strings.Cut(id, ":")
	if !ok || table != remoteHabitsTable || key == "" {
		return models.RecordID{}, fmt.Errorf("%w: malformed habit id %q", ErrNotFound, id)
	}
	return models.NewRecordID(table, key), nil
}

func (rh *remoteHabit) toHabit() Habit {
	h := Habit{
		Name:              rh.Name,
		Icon:              rh.Icon,
		Category:          rh.Category,
		CurrentStreak:     rh.CurrentStreak,
		BestStreak:        rh.BestStreak,
		CompletedThisWeek: rh.CompletedThisWeek,
		TotalCompletions:  rh.TotalCompletions,
		UserID:            rh.Owner,
		CreatedAt:         rh.CreatedAt.Time,
		UpdatedAt:         rh.UpdatedAt.Time,
	}
	if rh.ID != nil {
		h.ID = rh.ID.String()
	}
	return h
}

func (rp *remoteProgress) toProgress() ProgressRecord {
	p := ProgressRecord{
		HabitID:        rp.HabitID,
		CompletionDate: rp.CompletionDate,
		Completed:      rp.Completed,
		Note:           rp.Note,
		UserID:         rp.Owner,
		CreatedAt:      rp.CreatedAt.Time,
		UpdatedAt:      rp.UpdatedAt.Time,
	}
	if rp.ID != nil {
		p.ID = rp.ID.String()
	}
	return p
}

// queryRows runs a single-statement query and returns its rows.
func queryRows[T any](ctx context.Context, r *RemoteStore, op, sql string, vars map[string]any) ([]T, error) {
	res, err := surrealdb.Query[[]T](ctx, r.db, sql, vars)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[0].Result, nil
}

// ListHabits returns the owner's habits, newest first.
func (r *RemoteStore) ListHabits(ctx context.Context) ([]Habit, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}

	rows, err := queryRows[remoteHabit](ctx, r, "list habits",
		`SELECT * FROM habits WHERE owner = $owner ORDER BY created_at DESC`,
		map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}

	habits := make([]Habit, 0, len(rows))
	for i := range rows {
		habits = append(habits, rows[i].toHabit())
	}
	return habits, nil
}

// GetHabit returns one of the owner's habits by id.
func (r *RemoteStore) GetHabit(ctx context.Context, id string) (*Habit, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}
	rid, err := habitRecordID(id)
	if err != nil {
		return nil, err
	}

	rows, err := queryRows[remoteHabit](ctx, r, "get habit",
		`SELECT * FROM habits WHERE id = $id AND owner = $owner`,
		map[string]any{"id": rid, "owner": owner})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	h := rows[0].toHabit()
	return &h, nil
}

// CreateHabit inserts a new habit row owned by the session identity.
// Derived counters start at zero.
func (r *RemoteStore) CreateHabit(ctx context.Context, draft HabitDraft) (*Habit, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}
	if draft.Name == "" {
		return nil, ErrEmptyName
	}

	now := models.CustomDateTime{Time: time.Now().UTC()}
	row := remoteHabit{
		Name:      draft.Name,
		Icon:      draft.Icon,
		Category:  draft.Category,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if row.Icon == "" {
		row.Icon = DefaultIcon
	}
	if row.Category == "" {
		row.Category = DefaultCategory
	}

	created, err := surrealdb.Create[remoteHabit](ctx, r.db, remoteHabitsTable, row)
	if err != nil {
		return nil, &RemoteError{Op: "create habit", Err: err}
	}
	h := created.toHabit()
	return &h, nil
}

// UpdateHabit merges a patch into one of the owner's habits.
func (r *RemoteStore) UpdateHabit(ctx context.Context, id string, patch HabitPatch) (*Habit, error) {
	merge := map[string]any{}
	if patch.Name != nil {
		merge["name"] = *patch.Name
	}
	if patch.Icon != nil {
		merge["icon"] = *patch.Icon
	}
	if patch.Category != nil {
		merge["category"] = *patch.Category
	}
	return r.mergeHabit(ctx, "update habit", id, merge)
}

func (r *RemoteStore) mergeHabit(ctx context.Context, op, id string, merge map[string]any) (*Habit, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}
	rid, err := habitRecordID(id)
	if err != nil {
		return nil, err
	}
	merge["updated_at"] = models.CustomDateTime{Time: time.Now().UTC()}

	rows, err := queryRows[remoteHabit](ctx, r, op,
		`UPDATE habits MERGE $data WHERE id = $id AND owner = $owner RETURN AFTER`,
		map[string]any{"id": rid, "owner": owner, "data": merge})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	h := rows[0].toHabit()
	return &h, nil
}

// DeleteHabit removes one of the owner's habits and every progress row that
// references it. Both deletes run in one transaction so no orphaned
// progress rows can survive.
func (r *RemoteStore) DeleteHabit(ctx context.Context, id string) error {
	owner, err := r.owner()
	if err != nil {
		return err
	}
	rid, err := habitRecordID(id)
	if err != nil {
		return err
	}

	// Existence check first so a missing id surfaces as ErrNotFound rather
	// than a silently empty delete.
	if _, err := r.GetHabit(ctx, id); err != nil {
		return err
	}

	_, err = surrealdb.Query[any](ctx, r.db, `
		BEGIN;
		DELETE FROM progress WHERE habit_id = $habit AND owner = $owner;
		DELETE FROM habits WHERE id = $id AND owner = $owner;
		COMMIT;
	`, map[string]any{"habit": id, "id": rid, "owner": owner})
	if err != nil {
		return &RemoteError{Op: "delete habit", Err: err}
	}
	return nil
}

// ApplyCompletion folds one day's completion toggle into a habit's derived
// counters: read the current counters, advance them, write them back.
func (r *RemoteStore) ApplyCompletion(ctx context.Context, id string, completed bool) (*Habit, error) {
	habit, err := r.GetHabit(ctx, id)
	if err != nil {
		return nil, err
	}

	applyCompletion(habit, completed)
	return r.mergeHabit(ctx, "update streaks", id, map[string]any{
		"current_streak":      habit.CurrentStreak,
		"best_streak":         habit.BestStreak,
		"completed_this_week": habit.CompletedThisWeek,
		"total_completions":   habit.TotalCompletions,
	})
}

// ListProgress returns every progress record owned by the session identity.
func (r *RemoteStore) ListProgress(ctx context.Context) ([]ProgressRecord, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}

	rows, err := queryRows[remoteProgress](ctx, r, "list progress",
		`SELECT * FROM progress WHERE owner = $owner`,
		map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}

	progress := make([]ProgressRecord, 0, len(rows))
	for i := range rows {
		progress = append(progress, rows[i].toProgress())
	}
	return progress, nil
}

// UpsertProgress records one habit's completion state for one date, then
// feeds the completed value through the streak recomputation.
func (r *RemoteStore) UpsertProgress(ctx context.Context, habitID, date string, completed bool, note string) (*ProgressRecord, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if _, err := r.GetHabit(ctx, habitID); err != nil {
		return nil, err
	}

	now := models.CustomDateTime{Time: time.Now().UTC()}
	rows, err := queryRows[remoteProgress](ctx, r, "upsert progress", `
		SELECT * FROM progress
		WHERE habit_id = $habit AND completion_date = $date AND owner = $owner
	`, map[string]any{"habit": habitID, "date": date, "owner": owner})
	if err != nil {
		return nil, err
	}

	var entry remoteProgress
	if len(rows) > 0 {
		updated, err := queryRows[remoteProgress](ctx, r, "upsert progress", `
			UPDATE $id MERGE { completed: $completed, note: $note, updated_at: $now } RETURN AFTER
		`, map[string]any{
			"id":        *rows[0].ID,
			"completed": completed,
			"note":      note,
			"now":       now,
		})
		if err != nil {
			return nil, err
		}
		if len(updated) == 0 {
			return nil, ErrNotFound
		}
		entry = updated[0]
	} else {
		created, err := surrealdb.Create[remoteProgress](ctx, r.db, remoteProgressTable, remoteProgress{
			HabitID:        habitID,
			CompletionDate: date,
			Completed:      completed,
			Note:           note,
			Owner:          owner,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return nil, &RemoteError{Op: "upsert progress", Err: err}
		}
		entry = *created
	}

	if _, err := r.ApplyCompletion(ctx, habitID, completed); err != nil {
		return nil, err
	}
	p := entry.toProgress()
	return &p, nil
}

// ProgressInRange returns one habit's records within [start, end],
// inclusive, keyed by completion date.
func (r *RemoteStore) ProgressInRange(ctx context.Context, habitID, start, end string) (map[string]ProgressRecord, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}

	rows, err := queryRows[remoteProgress](ctx, r, "progress range", `
		SELECT * FROM progress
		WHERE habit_id = $habit AND owner = $owner
		  AND completion_date >= $start AND completion_date <= $end
	`, map[string]any{"habit": habitID, "owner": owner, "start": start, "end": end})
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]ProgressRecord, len(rows))
	for i := range rows {
		p := rows[i].toProgress()
		byDate[p.CompletionDate] = p
	}
	return byDate, nil
}

// DayProgress joins every habit owned by the session identity with its
// completion state for one date.
func (r *RemoteStore) DayProgress(ctx context.Context, date string) ([]DayProgress, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}

	progressRows, err := queryRows[remoteProgress](ctx, r, "day progress",
		`SELECT * FROM progress WHERE completion_date = $date AND owner = $owner`,
		map[string]any{"date": date, "owner": owner})
	if err != nil {
		return nil, err
	}
	habitRows, err := queryRows[remoteHabit](ctx, r, "day progress",
		`SELECT * FROM habits WHERE owner = $owner`,
		map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}

	byHabit := make(map[string]remoteProgress, len(progressRows))
	for _, p := range progressRows {
		byHabit[p.HabitID] = p
	}

	result := make([]DayProgress, 0, len(habitRows))
	for i := range habitRows {
		h := habitRows[i].toHabit()
		day := DayProgress{
			HabitID: h.ID,
			Name:    h.Name,
			Icon:    h.Icon,
			Streak:  h.CurrentStreak,
		}
		if p, ok := byHabit[h.ID]; ok {
			day.Completed = p.Completed
			day.Note = p.Note
		}
		result = append(result, day)
	}
	return result, nil
}

// MonthData builds the calendar grid for one month from the owner's
// completed records. month is 1-based.
func (r *RemoteStore) MonthData(ctx context.Context, year, month int) (*MonthData, error) {
	owner, err := r.owner()
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(year, month)
	rows, err := queryRows[remoteProgress](ctx, r, "month data", `
		SELECT * FROM progress
		WHERE owner = $owner AND completed = true
		  AND completion_date >= $start AND completion_date <= $end
	`, map[string]any{"owner": owner, "start": start, "end": end})
	if err != nil {
		return nil, err
	}

	completions := make(map[string]int)
	for _, p := range rows {
		completions[p.CompletionDate]++
	}
	return buildMonthCalendar(year, month, completions, time.Now()), nil
}
