package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"svodka.org/internal/auth"
	"svodka.org/internal/money"
)

// Service wires the access policy and the editable-window validator to a
// store. The clock is injected so the window is testable.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("report: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns one month of reports visible to the caller, date ascending.
func (s *Service) List(ctx context.Context, caller auth.Principal, year int, month time.Month, requestedOwner string) ([]*ReportWithUser, error) {
	if year < 1 || month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: bad year/month", ErrInvalidInput)
	}
	owner, err := ResolveOwnerFilter(caller, requestedOwner)
	if err != nil {
		return nil, err
	}
	from, to := MonthRange(year, month)
	return s.store.ListReports(ctx, owner, from, to)
}

// Get fetches a single report. Rows outside the caller's read scope surface
// as ErrNotFound so existence of other users' reports does not leak.
func (s *Service) Get(ctx context.Context, caller auth.Principal, id string) (*Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	owner, err := ResolveReadScope(caller)
	if err != nil {
		return nil, err
	}
	return s.store.GetReport(ctx, id, owner)
}

// NewReportInput carries fields for report creation. A zero Date means
// "today".
type NewReportInput struct {
	Date    time.Time
	Address string
	Revenue money.Money
}

// Create stores a new report owned by the caller. Requires edit_owned; the
// date must fall inside the current editable window.
func (s *Service) Create(ctx context.Context, caller auth.Principal, in NewReportInput) (*Report, error) {
	if err := RequireEdit(caller); err != nil {
		return nil, err
	}
	in.Address = strings.TrimSpace(in.Address)
	if in.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if in.Revenue.IsNegative() {
		return nil, fmt.Errorf("%w: revenue must not be negative", ErrInvalidInput)
	}
	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = Day(now)
	}
	if err := ValidateDate(now, date); err != nil {
		return nil, err
	}

	r := &Report{
		UserID:  caller.UserID(),
		Date:    Day(date),
		Address: in.Address,
		Revenue: in.Revenue,
	}
	if err := s.store.InsertReport(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReportInput carries fields for report update. The submitted date is
// validated against the editable window but the stored date itself does not
// change.
type UpdateReportInput struct {
	Date    time.Time
	Address string
	Revenue money.Money
}

// Update mutates a report the caller owns. On top of the window check on the
// submitted date, the store query is constrained to rows dated on or after
// the first day of the current month, so a report from a closed month fails
// as ErrNotFound even for its owner.
func (s *Service) Update(ctx context.Context, caller auth.Principal, id string, in UpdateReportInput) (*Report, error) {
	if err := RequireEdit(caller); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	in.Address = strings.TrimSpace(in.Address)
	if in.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if in.Revenue.IsNegative() {
		return nil, fmt.Errorf("%w: revenue must not be negative", ErrInvalidInput)
	}
	now := s.now()
	if err := ValidateDate(now, in.Date); err != nil {
		return nil, err
	}

	minDate := CurrentWindow(now).Min
	return s.store.UpdateReport(ctx, id, caller.UserID(), minDate, ReportUpdate{
		Address: in.Address,
		Revenue: in.Revenue,
	})
}

// Dates returns the year-to-months calendar index for the resolved owner.
func (s *Service) Dates(ctx context.Context, caller auth.Principal, requestedOwner string) ([]YearMonths, error) {
	owner, err := ResolveOwnerFilter(caller, requestedOwner)
	if err != nil {
		return nil, err
	}
	dates, err := s.store.ListDates(ctx, owner)
	if err != nil {
		return nil, err
	}
	return GroupDates(dates), nil
}

// Summary is the dashboard aggregate for one month: per-user revenue rows
// plus the tile totals.
type Summary struct {
	ByUser []UserRevenue `json:"by_user"`
	Totals Totals        `json:"totals"`
}

// MonthSummary aggregates one month of visible reports.
func (s *Service) MonthSummary(ctx context.Context, caller auth.Principal, year int, month time.Month, requestedOwner string) (*Summary, error) {
	rows, err := s.List(ctx, caller, year, month, requestedOwner)
	if err != nil {
		return nil, err
	}
	return &Summary{
		ByUser: Summarize(rows),
		Totals: ComputeTotals(rows),
	}, nil
}
