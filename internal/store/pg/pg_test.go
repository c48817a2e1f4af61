package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"svodka.org/internal/auth"
	"svodka.org/internal/money"
	"svodka.org/internal/report"
)

var uniqueViolation = pgconn.PgError{Code: pgErrUniqueViolation}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func userRows(id, username, family string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "username", "family_name", "given_name", "patronymic", "password_hash", "created_at", "updated_at",
	}).AddRow(id, username, family, "Ivan", "", "$2a$10$hash", now, now)
}

func TestCreateUserStoresRowAndPermissions(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "petrov", "Petrov", "Ivan", "", "$2a$10$hash").
		WillReturnRows(userRows("u1", "petrov", "Petrov"))
	mock.ExpectExec("delete from user_permissions").WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into user_permissions").WithArgs("u1", "edit_owned").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into user_permissions").WithArgs("u1", "view_owned").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	u := &auth.User{
		Username:     "petrov",
		FamilyName:   "Petrov",
		GivenName:    "Ivan",
		PasswordHash: "$2a$10$hash",
		Permissions:  auth.NewPermissionSet(auth.ManagerPermissions...),
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != "u1" {
		t.Fatalf("expected assigned id, got %q", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into users").
		WillReturnError(&uniqueViolation)
	mock.ExpectRollback()

	err := store.CreateUser(context.Background(), &auth.User{Username: "petrov"})
	if !errors.Is(err, auth.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserLoadsPermissions(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from users where id").WithArgs("u1").
		WillReturnRows(userRows("u1", "petrov", "Petrov"))
	mock.ExpectQuery("select token from user_permissions").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("view_owned").AddRow("edit_owned"))

	u, err := store.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !u.Permissions.Has(auth.PermViewOwned) || !u.Permissions.Has(auth.PermEditOwned) {
		t.Fatalf("permissions not loaded: %v", u.Permissions.Strings())
	}
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from users where id").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersExcludesCaller(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from users").WithArgs("me").
		WillReturnRows(userRows("u2", "sidorova", "Sidorova"))
	mock.ExpectQuery("select token from user_permissions").WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("view_owned"))

	users, err := store.ListUsers(context.Background(), "me")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != "u2" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestUpdateUserPartialSet(t *testing.T) {
	store, mock := newMockStore(t)

	family := "Smirnov"
	mock.ExpectExec("update users set family_name").
		WithArgs("Smirnov", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select (.+) from users where id").WithArgs("u1").
		WillReturnRows(userRows("u1", "petrov", "Smirnov"))
	mock.ExpectQuery("select token from user_permissions").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"token"}))

	u, err := store.UpdateUser(context.Background(), "u1", auth.UserUpdate{FamilyName: &family})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.FamilyName != "Smirnov" {
		t.Fatalf("unexpected family name %q", u.FamilyName)
	}
}

func TestUpdateUserMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	name := "x"
	mock.ExpectExec("update users set username").
		WithArgs("x", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateUser(context.Background(), "missing", auth.UserUpdate{Username: &name})
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPermissionsReplacesTokens(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from users").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("delete from user_permissions").WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("insert into user_permissions").WithArgs("u1", "view_all").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.SetPermissions(context.Background(), "u1", []auth.Permission{auth.PermViewAll})
	if err != nil {
		t.Fatalf("SetPermissions: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func entryRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "user_id", "date", "address", "revenue",
		"id", "username", "family_name", "given_name", "patronymic", "created_at", "updated_at",
	}).AddRow(
		"r1", "u1", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "Tverskaya 1", int64(250000),
		"u1", "petrov", "Petrov", "Ivan", "", now, now,
	)
}

func TestListReportsFiltersOwnerAndRange(t *testing.T) {
	store, mock := newMockStore(t)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("select (.+) from entries e").
		WithArgs("u1", from, to).
		WillReturnRows(entryRows())

	got, err := store.ListReports(context.Background(), "u1", from, to)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(got) != 1 || got[0].Revenue.Cents != 250000 || got[0].User.FamilyName != "Petrov" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestGetReportScopedMissIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from entries").
		WithArgs("r1", "other").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetReport(context.Background(), "r1", "other")
	if !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertReportAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into entries").
		WithArgs(sqlmock.AnyArg(), "u1", sqlmock.AnyArg(), "Tverskaya 1", int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r9"))

	r := &report.Report{
		UserID:  "u1",
		Date:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Address: "Tverskaya 1",
		Revenue: money.FromCents(1000),
	}
	if err := store.InsertReport(context.Background(), r); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if r.ID != "r9" {
		t.Fatalf("expected assigned id, got %q", r.ID)
	}
}

func TestUpdateReportHonorsMinDate(t *testing.T) {
	store, mock := newMockStore(t)

	minDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("update entries").
		WithArgs("r1", "u1", minDate, "Arbat 12", int64(5000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "date", "address", "revenue"}).
			AddRow("r1", "u1", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "Arbat 12", int64(5000)))

	r, err := store.UpdateReport(context.Background(), "r1", "u1", minDate, report.ReportUpdate{
		Address: "Arbat 12",
		Revenue: money.FromCents(5000),
	})
	if err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}
	if r.Address != "Arbat 12" || r.Revenue.Cents != 5000 {
		t.Fatalf("unexpected row: %+v", r)
	}
}

func TestUpdateReportClosedMonthIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("update entries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.UpdateReport(context.Background(), "r-feb", "u1",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), report.ReportUpdate{Address: "x"})
	if !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select distinct date").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"date"}).
			AddRow(time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)).
			AddRow(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))

	dates, err := store.ListDates(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListDates: %v", err)
	}
	if len(dates) != 2 || dates[0].Year() != 2023 {
		t.Fatalf("unexpected dates: %v", dates)
	}
}
