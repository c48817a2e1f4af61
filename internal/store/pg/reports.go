package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"svodka.org/internal/ids"
	"svodka.org/internal/report"
)

var _ report.Store = (*Store)(nil)

func (s *Store) ListReports(ctx context.Context, owner string, from, to time.Time) ([]*report.ReportWithUser, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select e.id, e.user_id, e.date, e.address, e.revenue,
		       u.id, u.username, u.family_name, u.given_name, coalesce(u.patronymic, ''), u.created_at, u.updated_at
		from entries e
		join users u on u.id = e.user_id
		where ($1 = '' or e.user_id = $1)
		  and e.date >= $2 and e.date <= $3
		order by e.date, e.id
	`, owner, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*report.ReportWithUser
	for rows.Next() {
		var r report.ReportWithUser
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Date, &r.Address, &r.Revenue.Cents,
			&r.User.ID, &r.User.Username, &r.User.FamilyName, &r.User.GivenName, &r.User.Patronymic,
			&r.User.CreatedAt, &r.User.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetReport(ctx context.Context, id, owner string) (*report.Report, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var r report.Report
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, date, address, revenue
		from entries
		where id = $1 and ($2 = '' or user_id = $2)
	`, id, owner).Scan(&r.ID, &r.UserID, &r.Date, &r.Address, &r.Revenue.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) InsertReport(ctx context.Context, r *report.Report) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	id := ids.New()
	err := s.db.QueryRowContext(ctx, `
		insert into entries (id, user_id, date, address, revenue)
		values ($1, $2, $3, $4, $5)
		returning id
	`, id, r.UserID, r.Date, r.Address, r.Revenue.Cents).Scan(&r.ID)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return report.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) UpdateReport(ctx context.Context, id, owner string, minDate time.Time, upd report.ReportUpdate) (*report.Report, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var r report.Report
	// The date predicate keeps rows from closed months out of reach; a miss
	// is indistinguishable from an unknown id.
	err := s.db.QueryRowContext(ctx, `
		update entries
		set address = $4, revenue = $5
		where id = $1 and ($2 = '' or user_id = $2) and date >= $3
		returning id, user_id, date, address, revenue
	`, id, owner, minDate, upd.Address, upd.Revenue.Cents).Scan(&r.ID, &r.UserID, &r.Date, &r.Address, &r.Revenue.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListDates(ctx context.Context, owner string) ([]time.Time, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select distinct date
		from entries
		where ($1 = '' or user_id = $1)
		order by date
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}
