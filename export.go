package tally

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportFormat is the top-level structure for JSON exports of the local
// store. The export is a snapshot of the habit and progress collections; it
// does not include user preferences.
type ExportFormat struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Habits     []Habit          `json:"habits"`
	Progress   []ProgressRecord `json:"progress"`
}

// Export writes a JSON snapshot of the local collections to w.
func (s *LocalStore) Export(w io.Writer) error {
	habits, err := s.ListHabits()
	if err != nil {
		return err
	}
	progress, err := s.ListProgress()
	if err != nil {
		return err
	}

	snapshot := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Habits:     habits,
		Progress:   progress,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Import replaces the local collections with the contents of a snapshot
// previously produced by Export. Collections missing from the snapshot are
// left untouched.
func (s *LocalStore) Import(rd io.Reader) error {
	var snapshot ExportFormat
	if err := json.NewDecoder(rd).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode import: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if snapshot.Habits != nil {
		if err := s.writeCollection(s.db, CollectionHabits, snapshot.Habits); err != nil {
			return err
		}
	}
	if snapshot.Progress != nil {
		if err := s.writeCollection(s.db, CollectionProgress, snapshot.Progress); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll removes every local collection, including user preferences.
func (s *LocalStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	for _, key := range []string{CollectionHabits, CollectionProgress, CollectionPreferences} {
		if _, err := s.db.Exec(`DELETE FROM collections WHERE key = ?`, key); err != nil {
			return &StorageError{Op: "clear " + key, Err: err}
		}
	}
	return nil
}
