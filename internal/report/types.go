// Package report implements the revenue reporting core: the authorization
// scope applied to every report query, the current-month editable window, and
// the calendar/summary aggregations the dashboard is built from.
package report

import (
	"errors"
	"time"

	"svodka.org/internal/auth"
	"svodka.org/internal/money"
)

// Report is a single revenue entry submitted by a manager: one address, one
// calendar date, revenue in minor units. Exactly one user owns it.
type Report struct {
	ID      string      `json:"id"`
	UserID  string      `json:"user_id"`
	Date    time.Time   `json:"date"`
	Address string      `json:"address"`
	Revenue money.Money `json:"revenue"`
}

// ReportWithUser carries an owner snapshot for list and summary views.
type ReportWithUser struct {
	Report
	User auth.User `json:"user"`
}

var (
	ErrNotFound       = errors.New("report: not found")
	ErrForbidden      = errors.New("report: forbidden")
	ErrInvalidInput   = errors.New("report: invalid input")
	ErrDateOutOfRange = errors.New("report: date out of allowed range")
)

// Day normalizes a timestamp to its calendar date in UTC. Reports are stored
// at day granularity; all window arithmetic happens on normalized values.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the inclusive [first, last] day of the given month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
