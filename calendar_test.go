package tally

import (
	"errors"
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2024, 1, 31},
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, c := range cases {
		if got := daysInMonth(c.year, c.month); got != c.want {
			t.Errorf("daysInMonth(%d, %d) = %d, want %d", c.year, c.month, got, c.want)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := monthBounds(2024, 2)
	if start != "2024-02-01" || end != "2024-02-29" {
		t.Errorf("monthBounds(2024, 2) = %q, %q", start, end)
	}
}

// TestBuildMonthCalendar_LeadingOffset verifies the Sunday-aligned grid: May
// 2024 starts on a Wednesday, so the grid leads with three nil placeholders.
func TestBuildMonthCalendar_LeadingOffset(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	data := buildMonthCalendar(2024, 5, nil, now)

	if want := 3 + 31; len(data.Cells) != want {
		t.Fatalf("expected %d cells, got %d", want, len(data.Cells))
	}
	for i := 0; i < 3; i++ {
		if data.Cells[i] != nil {
			t.Errorf("expected leading cell %d to be nil, got %+v", i, data.Cells[i])
		}
	}
	if data.Cells[3] == nil || data.Cells[3].Day != 1 {
		t.Errorf("expected first real cell to be day 1, got %+v", data.Cells[3])
	}
	last := data.Cells[len(data.Cells)-1]
	if last == nil || last.Day != 31 {
		t.Errorf("expected final cell to be day 31 with no trailing padding, got %+v", last)
	}
}

// TestBuildMonthCalendar_SundayStartHasNoOffset covers a month whose 1st is
// a Sunday.
func TestBuildMonthCalendar_SundayStartHasNoOffset(t *testing.T) {
	now := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	data := buildMonthCalendar(2024, 9, nil, now)

	if len(data.Cells) != 30 {
		t.Fatalf("expected 30 cells for September 2024, got %d", len(data.Cells))
	}
	if data.Cells[0] == nil || data.Cells[0].Day != 1 {
		t.Errorf("expected day 1 at index 0, got %+v", data.Cells[0])
	}
}

func TestBuildMonthCalendar_MarksToday(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	data := buildMonthCalendar(2024, 5, nil, now)

	for _, cell := range data.Cells {
		if cell == nil {
			continue
		}
		want := cell.Day == 15
		if cell.IsToday != want {
			t.Errorf("day %d: IsToday = %v, want %v", cell.Day, cell.IsToday, want)
		}
	}

	other := buildMonthCalendar(2024, 6, nil, now)
	for _, cell := range other.Cells {
		if cell != nil && cell.IsToday {
			t.Errorf("day %d in a different month marked as today", cell.Day)
		}
	}
}

func TestBuildMonthCalendar_CountsAndStats(t *testing.T) {
	completions := map[string]int{
		"2024-05-01": 2,
		"2024-05-15": 1,
		"2024-04-30": 7, // outside the month, ignored
	}
	now := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	data := buildMonthCalendar(2024, 5, completions, now)

	if got := data.Cells[3].Completions; got != 2 {
		t.Errorf("day 1 completions = %d, want 2", got)
	}
	if got := data.Cells[3+14].Completions; got != 1 {
		t.Errorf("day 15 completions = %d, want 1", got)
	}
	if data.Stats.TotalCompletions != 3 {
		t.Errorf("total completions = %d, want 3", data.Stats.TotalCompletions)
	}
	// Active days mirrors the completion total, counting each record rather
	// than each distinct day.
	if data.Stats.ActiveDays != 3 {
		t.Errorf("active days = %d, want 3", data.Stats.ActiveDays)
	}
}

func TestValidateDate(t *testing.T) {
	if err := validateDate("2024-03-01"); err != nil {
		t.Errorf("expected valid date, got %v", err)
	}
	for _, bad := range []string{"03/01/2024", "2024-3-1", "2024-13-01", "yesterday", ""} {
		if err := validateDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("validateDate(%q): expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestStoreMonthData(t *testing.T) {
	s := newTestStore(t)

	water, err := s.CreateHabit(HabitDraft{Name: "Water"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	read, err := s.CreateHabit(HabitDraft{Name: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}

	if _, err := s.UpsertProgress(water.ID, "2024-05-01", true, ""); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}
	if _, err := s.UpsertProgress(read.ID, "2024-05-01", true, ""); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}
	// Un-completed records do not count toward the grid.
	if _, err := s.UpsertProgress(water.ID, "2024-05-02", false, ""); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}

	data, err := s.MonthData(2024, 5)
	if err != nil {
		t.Fatalf("MonthData failed: %v", err)
	}
	if got := data.Cells[3].Completions; got != 2 {
		t.Errorf("day 1 completions = %d, want 2", got)
	}
	if got := data.Cells[4].Completions; got != 0 {
		t.Errorf("day 2 completions = %d, want 0", got)
	}
	if data.Stats.TotalCompletions != 2 {
		t.Errorf("total completions = %d, want 2", data.Stats.TotalCompletions)
	}
}
