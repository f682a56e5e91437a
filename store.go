package tally

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperengineering/tally/internal/store/migrations"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// LocalStore is the on-device persistence layer for habits and progress
// records. Records live in ordered collections keyed by the Collection*
// constants; each collection is serialized as one JSON document, so reads
// return insertion order and writes replace the whole collection. All
// records carry the LocalUserID sentinel owner.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewLocalStore opens or creates a local habits database.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &LocalStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

func (s *LocalStore) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, schemaVersion)
	return err
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path.
func (s *LocalStore) Path() string {
	return s.path
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// readCollection loads a collection document into dest. A missing key is
// not an error; dest is left untouched (callers start from empty slices).
func (s *LocalStore) readCollection(key string, dest any) error {
	var raw []byte
	err := s.db.QueryRow(`SELECT value FROM collections WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return &StorageError{Op: "read " + key, Err: err}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &StorageError{Op: "decode " + key, Err: err}
	}
	return nil
}

// writeCollection replaces a collection document.
func (s *LocalStore) writeCollection(e execer, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: "encode " + key, Err: err}
	}
	_, err = e.Exec(`
		INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, raw, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &StorageError{Op: "write " + key, Err: err}
	}
	return nil
}

func (s *LocalStore) loadHabits() ([]Habit, error) {
	habits := []Habit{}
	if err := s.readCollection(CollectionHabits, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *LocalStore) loadProgress() ([]ProgressRecord, error) {
	progress := []ProgressRecord{}
	if err := s.readCollection(CollectionProgress, &progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// ListHabits returns all habits in insertion order.
func (s *LocalStore) ListHabits() ([]Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.loadHabits()
}

// GetHabit returns one habit by id.
func (s *LocalStore) GetHabit(id string) (*Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	for i := range habits {
		if habits[i].ID == id {
			h := habits[i]
			return &h, nil
		}
	}
	return nil, ErrNotFound
}

// CreateHabit persists a new habit with zeroed counters and a fresh id.
// IDs are ULIDs: millisecond timestamp plus random suffix, collision
// resistant across rapid successive calls.
func (s *LocalStore) CreateHabit(draft HabitDraft) (*Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if draft.Name == "" {
		return nil, ErrEmptyName
	}

	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	habit := Habit{
		ID:        ulid.Make().String(),
		Name:      draft.Name,
		Icon:      draft.Icon,
		Category:  draft.Category,
		UserID:    LocalUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if habit.Icon == "" {
		habit.Icon = DefaultIcon
	}
	if habit.Category == "" {
		habit.Category = DefaultCategory
	}

	habits = append(habits, habit)
	if err := s.writeCollection(s.db, CollectionHabits, habits); err != nil {
		return nil, err
	}
	return &habit, nil
}

// UpdateHabit merges a patch into an existing habit.
func (s *LocalStore) UpdateHabit(id string, patch HabitPatch) (*Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	idx := habitIndex(habits, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	h := &habits[idx]
	if patch.Name != nil {
		h.Name = *patch.Name
	}
	if patch.Icon != nil {
		h.Icon = *patch.Icon
	}
	if patch.Category != nil {
		h.Category = *patch.Category
	}
	h.UpdatedAt = time.Now().UTC()

	if err := s.writeCollection(s.db, CollectionHabits, habits); err != nil {
		return nil, err
	}
	updated := habits[idx]
	return &updated, nil
}

// DeleteHabit removes a habit and cascades to every progress record that
// references it. The cascade and the habit removal commit together so no
// orphaned progress records can survive.
func (s *LocalStore) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	habits, err := s.loadHabits()
	if err != nil {
		return err
	}
	idx := habitIndex(habits, id)
	if idx < 0 {
		return ErrNotFound
	}
	habits = append(habits[:idx], habits[idx+1:]...)

	progress, err := s.loadProgress()
	if err != nil {
		return err
	}
	kept := progress[:0]
	for _, p := range progress {
		if p.HabitID != id {
			kept = append(kept, p)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "delete habit", Err: err}
	}
	defer tx.Rollback() // no-op if committed

	if err := s.writeCollection(tx, CollectionHabits, habits); err != nil {
		return err
	}
	if err := s.writeCollection(tx, CollectionProgress, kept); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "delete habit", Err: err}
	}
	return nil
}

// ApplyCompletion folds one day's completion toggle into a habit's derived
// counters and persists the result.
func (s *LocalStore) ApplyCompletion(id string, completed bool) (*Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.applyCompletionLocked(s.db, id, completed)
}

func (s *LocalStore) applyCompletionLocked(e execer, id string, completed bool) (*Habit, error) {
	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	idx := habitIndex(habits, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	applyCompletion(&habits[idx], completed)
	habits[idx].UpdatedAt = time.Now().UTC()

	if err := s.writeCollection(e, CollectionHabits, habits); err != nil {
		return nil, err
	}
	updated := habits[idx]
	return &updated, nil
}

// ListProgress returns every progress record, unfiltered.
func (s *LocalStore) ListProgress() ([]ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.loadProgress()
}

// UpsertProgress records one habit's completion state for one date. If a
// record for (habitID, date) exists it is mutated in place, otherwise a new
// record is inserted. Every upsert, including note-only edits, feeds the
// given completed value back through the streak recomputation.
func (s *LocalStore) UpsertProgress(habitID, date string, completed bool, note string) (*ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}

	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	if habitIndex(habits, habitID) < 0 {
		return nil, ErrNotFound
	}

	progress, err := s.loadProgress()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	idx := -1
	for i := range progress {
		if progress[i].HabitID == habitID && progress[i].CompletionDate == date {
			idx = i
			break
		}
	}

	var entry ProgressRecord
	if idx >= 0 {
		progress[idx].Completed = completed
		progress[idx].Note = note
		progress[idx].UpdatedAt = now
		entry = progress[idx]
	} else {
		entry = ProgressRecord{
			ID:             ulid.Make().String(),
			HabitID:        habitID,
			CompletionDate: date,
			Completed:      completed,
			Note:           note,
			UserID:         LocalUserID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		progress = append(progress, entry)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, &StorageError{Op: "upsert progress", Err: err}
	}
	defer tx.Rollback()

	if err := s.writeCollection(tx, CollectionProgress, progress); err != nil {
		return nil, err
	}
	if _, err := s.applyCompletionLocked(tx, habitID, completed); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Op: "upsert progress", Err: err}
	}
	return &entry, nil
}

// ProgressInRange returns one habit's records within [start, end],
// inclusive, keyed by completion date.
func (s *LocalStore) ProgressInRange(habitID, start, end string) (map[string]ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	progress, err := s.loadProgress()
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]ProgressRecord)
	for _, p := range progress {
		if p.HabitID == habitID && p.CompletionDate >= start && p.CompletionDate <= end {
			byDate[p.CompletionDate] = p
		}
	}
	return byDate, nil
}

// DayProgress joins every habit with its completion state for one date.
func (s *LocalStore) DayProgress(date string) ([]DayProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	habits, err := s.loadHabits()
	if err != nil {
		return nil, err
	}
	progress, err := s.loadProgress()
	if err != nil {
		return nil, err
	}

	byHabit := make(map[string]ProgressRecord)
	for _, p := range progress {
		if p.CompletionDate == date {
			byHabit[p.HabitID] = p
		}
	}

	result := make([]DayProgress, 0, len(habits))
	for _, h := range habits {
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

// MonthData builds the calendar grid for one month, counting completed
// records per day across all habits. month is 1-based.
func (s *LocalStore) MonthData(year, month int) (*MonthData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	progress, err := s.loadProgress()
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(year, month)
	completions := make(map[string]int)
	for _, p := range progress {
		if p.Completed && p.CompletionDate >= start && p.CompletionDate <= end {
			completions[p.CompletionDate]++
		}
	}
	return buildMonthCalendar(year, month, completions, time.Now()), nil
}

func habitIndex(habits []Habit, id string) int {
	for i := range habits {
		if habits[i].ID == id {
			return i
		}
	}
	return -1
}
