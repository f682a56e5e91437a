package tally

import (
	"fmt"
	"time"
)

// monthBounds returns the first and last date strings of a month.
// month is 1-based.
func monthBounds(year, month int) (string, string) {
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	end := fmt.Sprintf("%04d-%02d-%02d", year, month, daysInMonth(year, month))
	return start, end
}

func daysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// buildMonthCalendar assembles the month grid from per-date completion
// counts. completions maps a date string to the number of completed records
// on that date across all habits.
//
// The grid aligns to a 7-column week starting on Sunday: one nil placeholder
// per weekday before the 1st, then one cell per day. Trailing days are not
// padded, so len(Cells) == offset + days in month.
func buildMonthCalendar(year, month int, completions map[string]int, now time.Time) *MonthData {
	days := daysInMonth(year, month)
	offset := int(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday())

	cells := make([]*CalendarCell, 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, nil)
	}

	total := 0
	active := 0
	for day := 1; day <= days; day++ {
		date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		count := completions[date]
		total += count
		active += count
		isToday := day == now.Day() && month == int(now.Month()) && year == now.Year()
		cells = append(cells, &CalendarCell{
			Day:         day,
			Completions: count,
			IsToday:     isToday,
		})
	}

	return &MonthData{
		Cells: cells,
		Stats: MonthStats{ActiveDays: active, TotalCompletions: total},
	}
}

// validateDate checks a date string against DateFormat.
func validateDate(date string) error {
	if _, err := time.Parse(DateFormat, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// Today returns the current date in DateFormat.
func Today() string {
	return time.Now().Format(DateFormat)
}
