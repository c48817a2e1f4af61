package report

import (
	"context"
	"time"

	"svodka.org/internal/money"
)

// Store describes the persistence operations the report core needs. The core
// never issues queries itself; it only decides filter parameters and
// validation outcomes. An empty owner means "no owner constraint".
type Store interface {
	// ListReports returns reports with owner snapshots, filtered to the
	// owner and the inclusive [from, to] date range, ordered by date
	// ascending.
	ListReports(ctx context.Context, owner string, from, to time.Time) ([]*ReportWithUser, error)
	// GetReport fetches one report, constrained to the owner when set.
	// A row filtered out by the constraint is ErrNotFound,
	// indistinguishable from a missing id.
	GetReport(ctx context.Context, id, owner string) (*Report, error)
	// InsertReport stores a new report and assigns its id.
	InsertReport(ctx context.Context, r *Report) error
	// UpdateReport mutates address and revenue of the row matching id and
	// owner whose stored date is on or after minDate. Zero matched rows is
	// ErrNotFound: a report from a closed month is immutable even to its
	// owner.
	UpdateReport(ctx context.Context, id, owner string, minDate time.Time, upd ReportUpdate) (*Report, error)
	// ListDates returns all report dates for the owner (or everyone when
	// unset), ascending.
	ListDates(ctx context.Context, owner string) ([]time.Time, error)
}

// ReportUpdate carries the mutable report fields.
type ReportUpdate struct {
	Address string
	Revenue money.Money
}
