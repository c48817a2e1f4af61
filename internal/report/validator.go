package report

import (
	"fmt"
	"time"
)

// Window is the inclusive date range within which report writes are allowed.
type Window struct {
	Min time.Time
	Max time.Time
}

// CurrentWindow returns the editable window for the given moment: from the
// first day of the month containing now up to now itself. Reports can be
// neither backdated before the month start nor postdated into the future.
func CurrentWindow(now time.Time) Window {
	today := Day(now)
	return Window{
		Min: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC),
		Max: today,
	}
}

// Contains reports whether the date (normalized to a day) falls inside the
// window, bounds inclusive.
func (w Window) Contains(date time.Time) bool {
	d := Day(date)
	return !d.Before(w.Min) && !d.After(w.Max)
}

// ValidateDate rejects a report date outside the current editable window.
// Once the month rolls over, rows from the closed period become immutable;
// the same window's lower bound also constrains which stored rows an update
// may target (see Store.UpdateReport).
func ValidateDate(now, date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if !CurrentWindow(now).Contains(date) {
		return fmt.Errorf("%w: %s", ErrDateOutOfRange, Day(date).Format(time.DateOnly))
	}
	return nil
}
