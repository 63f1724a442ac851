// Package sqlxrepos implements the domain repositories with sqlx.
// Queries are written with "?" placeholders and rebound for the driver in use.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/smartclassroom/backend/core"
)

const pgUniqueViolation = "23505"

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) get(ctx context.Context, exec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	exe := repo.getExec(exec)
	return sqlx.GetContext(ctx, exe, dest, exe.Rebind(query), args...)
}

func (repo repository) selectAll(ctx context.Context, exec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	exe := repo.getExec(exec)
	return sqlx.SelectContext(ctx, exe, dest, exe.Rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id query and returns the new id.
func (repo repository) insert(ctx context.Context, exec []core.DBExecutor, query string, args ...interface{}) (int, error) {
	exe := repo.getExec(exec)
	var id int
	err := exe.QueryRowxContext(ctx, exe.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

func (repo repository) execute(ctx context.Context, exec []core.DBExecutor, query string, args ...interface{}) (int64, error) {
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// trapNoRowsErr maps the "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err is a unique constraint violation on any supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}

// timestamps are stored as unix seconds

func toUnix(t time.Time) int64 { return t.UTC().Unix() }

func fromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func nullUnix(t *time.Time) null.Int64 {
	if t == nil || t.IsZero() {
		return null.Int64{}
	}
	return null.Int64From(t.UTC().Unix())
}

func nullUnixPtr(sec null.Int64) *time.Time {
	if !sec.Valid {
		return nil
	}
	t := fromUnix(sec.Int64)
	return &t
}
