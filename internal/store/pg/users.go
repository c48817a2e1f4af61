package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"svodka.org/internal/auth"
	"svodka.org/internal/ids"
)

var _ auth.Store = (*Store)(nil)

const userColumns = `id, username, family_name, given_name, coalesce(patronymic, ''), password_hash, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	id := ids.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into users (id, username, family_name, given_name, patronymic, password_hash)
		values ($1, $2, $3, $4, nullif($5, ''), $6)
		returning `+userColumns+`
	`, id, u.Username, u.FamilyName, u.GivenName, u.Patronymic, u.PasswordHash)
	if err := scanUser(row, u); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrAlreadyExists
		}
		return err
	}
	if err := replacePermissions(ctx, tx, u.ID, u.Permissions.List()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetUser(ctx context.Context, id string) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	return s.readUser(ctx, row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where username = $1`, username)
	return s.readUser(ctx, row)
}

func (s *Store) ListUsers(ctx context.Context, excludeID string) ([]*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+`
		from users
		where id <> $1
		order by family_name, given_name
	`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		var u auth.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, u := range users {
		perms, err := s.userPermissions(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.Permissions = perms
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Username != nil {
		sets = append(sets, fmt.Sprintf("username = $%d", idx))
		args = append(args, *upd.Username)
		idx++
	}
	if upd.FamilyName != nil {
		sets = append(sets, fmt.Sprintf("family_name = $%d", idx))
		args = append(args, *upd.FamilyName)
		idx++
	}
	if upd.GivenName != nil {
		sets = append(sets, fmt.Sprintf("given_name = $%d", idx))
		args = append(args, *upd.GivenName)
		idx++
	}
	if upd.Patronymic != nil {
		sets = append(sets, fmt.Sprintf("patronymic = nullif($%d, '')", idx))
		args = append(args, *upd.Patronymic)
		idx++
	}
	if upd.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.PasswordHash)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, auth.ErrAlreadyExists
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, auth.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) SetPermissions(ctx context.Context, userID string, perms []auth.Permission) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `select 1 from users where id = $1`, userID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrNotFound
		}
		return err
	}
	if err := replacePermissions(ctx, tx, userID, perms); err != nil {
		return err
	}
	return tx.Commit()
}

func replacePermissions(ctx context.Context, tx *sql.Tx, userID string, perms []auth.Permission) error {
	if _, err := tx.ExecContext(ctx, `delete from user_permissions where user_id = $1`, userID); err != nil {
		return err
	}
	for _, p := range perms {
		if _, err := tx.ExecContext(ctx, `
			insert into user_permissions (user_id, token)
			values ($1, $2)
		`, userID, string(p)); err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return auth.ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (s *Store) userPermissions(ctx context.Context, userID string) (auth.PermissionSet, error) {
	rows, err := s.db.QueryContext(ctx, `select token from user_permissions where user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []auth.Permission
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		tokens = append(tokens, auth.Permission(tok))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return auth.NewPermissionSet(tokens...), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, u *auth.User) error {
	return row.Scan(&u.ID, &u.Username, &u.FamilyName, &u.GivenName, &u.Patronymic, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
}

func (s *Store) readUser(ctx context.Context, row *sql.Row) (*auth.User, error) {
	var u auth.User
	err := scanUser(row, &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	perms, err := s.userPermissions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Permissions = perms
	return &u, nil
}
