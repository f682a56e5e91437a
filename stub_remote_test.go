package tally

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// failingRemote fails every operation with a *RemoteError. Used to exercise
// the facade's fallback path.
type failingRemote struct{}

func (failingRemote) fail(op string) error {
	return &RemoteError{Op: op, Err: fmt.Errorf("connection refused")}
}

func (f failingRemote) ListHabits(context.Context) ([]Habit, error) {
	return nil, f.fail("list habits")
}

func (f failingRemote) GetHabit(context.Context, string) (*Habit, error) {
	return nil, f.fail("get habit")
}

func (f failingRemote) CreateHabit(context.Context, HabitDraft) (*Habit, error) {
	return nil, f.fail("create habit")
}

func (f failingRemote) UpdateHabit(context.Context, string, HabitPatch) (*Habit, error) {
	return nil, f.fail("update habit")
}

func (f failingRemote) DeleteHabit(context.Context, string) error {
	return f.fail("delete habit")
}

func (f failingRemote) ApplyCompletion(context.Context, string, bool) (*Habit, error) {
	return nil, f.fail("update streaks")
}

func (f failingRemote) ListProgress(context.Context) ([]ProgressRecord, error) {
	return nil, f.fail("list progress")
}

func (f failingRemote) UpsertProgress(context.Context, string, string, bool, string) (*ProgressRecord, error) {
	return nil, f.fail("upsert progress")
}

func (f failingRemote) ProgressInRange(context.Context, string, string, string) (map[string]ProgressRecord, error) {
	return nil, f.fail("progress range")
}

func (f failingRemote) DayProgress(context.Context, string) ([]DayProgress, error) {
	return nil, f.fail("day progress")
}

func (f failingRemote) MonthData(context.Context, int, int) (*MonthData, error) {
	return nil, f.fail("month data")
}

func (f failingRemote) Close(context.Context) error { return nil }

// memRemote is an in-memory RemoteAPI with the same upsert-triggers-recompute
// coupling as the real adapter. failCreate lists habit names whose creation
// should fail, for continue-on-error tests.
type memRemote struct {
	mu         sync.Mutex
	nextID     int
	owner      string
	habits     []Habit
	progress   []ProgressRecord
	failCreate map[string]bool
	calls      []string
}

func newMemRemote(owner string) *memRemote {
	return &memRemote{owner: owner, failCreate: map[string]bool{}}
}

func (m *memRemote) record(op string) {
	m.calls = append(m.calls, op)
}

func (m *memRemote) find(id string) int {
	for i := range m.habits {
		if m.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *memRemote) ListHabits(context.Context) ([]Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list habits")
	out := make([]Habit, len(m.habits))
	copy(out, m.habits)
	return out, nil
}

func (m *memRemote) GetHabit(_ context.Context, id string) (*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("get habit")
	if i := m.find(id); i >= 0 {
		h := m.habits[i]
		return &h, nil
	}
	return nil, ErrNotFound
}

func (m *memRemote) CreateHabit(_ context.Context, draft HabitDraft) (*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("create habit")
	if m.failCreate[draft.Name] {
		return nil, &RemoteError{Op: "create habit", Err: fmt.Errorf("backend unavailable")}
	}
	m.nextID++
	now := time.Now().UTC()
	h := Habit{
		ID:        fmt.Sprintf("habits:r%d", m.nextID),
		Name:      draft.Name,
		Icon:      draft.Icon,
		Category:  draft.Category,
		UserID:    m.owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.habits = append(m.habits, h)
	return &h, nil
}

func (m *memRemote) UpdateHabit(_ context.Context, id string, patch HabitPatch) (*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("update habit")
	i := m.find(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		m.habits[i].Name = *patch.Name
	}
	if patch.Icon != nil {
		m.habits[i].Icon = *patch.Icon
	}
	if patch.Category != nil {
		m.habits[i].Category = *patch.Category
	}
	h := m.habits[i]
	return &h, nil
}

func (m *memRemote) DeleteHabit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete habit")
	i := m.find(id)
	if i < 0 {
		return ErrNotFound
	}
	m.habits = append(m.habits[:i], m.habits[i+1:]...)
	kept := m.progress[:0]
	for _, p := range m.progress {
		if p.HabitID != id {
			kept = append(kept, p)
		}
	}
	m.progress = kept
	return nil
}

func (m *memRemote) ApplyCompletion(_ context.Context, id string, completed bool) (*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("update streaks")
	i := m.find(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	applyCompletion(&m.habits[i], completed)
	h := m.habits[i]
	return &h, nil
}

func (m *memRemote) ListProgress(context.Context) ([]ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list progress")
	out := make([]ProgressRecord, len(m.progress))
	copy(out, m.progress)
	return out, nil
}

func (m *memRemote) UpsertProgress(_ context.Context, habitID, date string, completed bool, note string) (*ProgressRecord, error) {
	m.mu.Lock()
	m.record("upsert progress")
	if m.find(habitID) < 0 {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	var entry ProgressRecord
	found := false
	for i := range m.progress {
		if m.progress[i].HabitID == habitID && m.progress[i].CompletionDate == date {
			m.progress[i].Completed = completed
			m.progress[i].Note = note
			entry = m.progress[i]
			found = true
			break
		}
	}
	if !found {
		entry = ProgressRecord{
			ID:             fmt.Sprintf("progress:r%d", len(m.progress)+1),
			HabitID:        habitID,
			CompletionDate: date,
			Completed:      completed,
			Note:           note,
			UserID:         m.owner,
		}
		m.progress = append(m.progress, entry)
	}
	m.mu.Unlock()

	if _, err := m.ApplyCompletion(context.Background(), habitID, completed); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *memRemote) ProgressInRange(_ context.Context, habitID, start, end string) (map[string]ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("progress range")
	byDate := make(map[string]ProgressRecord)
	for _, p := range m.progress {
		if p.HabitID == habitID && p.CompletionDate >= start && p.CompletionDate <= end {
			byDate[p.CompletionDate] = p
		}
	}
	return byDate, nil
}

func (m *memRemote) DayProgress(_ context.Context, date string) ([]DayProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("day progress")
	result := make([]DayProgress, 0, len(m.habits))
	for _, h := range m.habits {
		day := DayProgress{HabitID: h.ID, Name: h.Name, Icon: h.Icon, Streak: h.CurrentStreak}
		for _, p := range m.progress {
			if p.HabitID == h.ID && p.CompletionDate == date {
				day.Completed = p.Completed
				day.Note = p.Note
			}
		}
		result = append(result, day)
	}
	return result, nil
}

func (m *memRemote) MonthData(_ context.Context, year, month int) (*MonthData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("month data")
	start, end := monthBounds(year, month)
	completions := make(map[string]int)
	for _, p := range m.progress {
		if p.Completed && p.CompletionDate >= start && p.CompletionDate <= end {
			completions[p.CompletionDate]++
		}
	}
	return buildMonthCalendar(year, month, completions, time.Now()), nil
}

func (m *memRemote) Close(context.Context) error { return nil }
