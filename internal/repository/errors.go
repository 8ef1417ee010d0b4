package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

// Postgres SQLSTATE codes we classify.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver errors onto the application taxonomy: unique and
// foreign-key violations become ConflictError, everything else StorageError.
// Errors that are already classified pass through unchanged.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if k := common.KindOf(err); k != common.KindInternal {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch constraintOf(err) {
	case "unique":
		return common.NewConflictError(op+": already exists", err)
	case "foreign_key":
		return common.NewConflictError(op+": still referenced or missing reference", err)
	}
	return common.NewStorageError(op, err)
}

func constraintOf(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return "unique"
		case pgForeignKeyViolation:
			return "foreign_key"
		}
		return ""
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return "unique"
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return "foreign_key"
		}
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return constraintFromMessage(se.Error())
		}
		return ""
	}
	return ""
}

func constraintFromMessage(msg string) string {
	m := strings.ToUpper(msg)
	switch {
	case strings.Contains(m, "UNIQUE CONSTRAINT"):
		return "unique"
	case strings.Contains(m, "FOREIGN KEY CONSTRAINT"):
		return "foreign_key"
	}
	return ""
}

// notFound turns sql.ErrNoRows into a NotFoundError for resource/id.
func notFound(err error, resource string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.NewNotFoundError(resource, id)
	}
	return translate(err, "get "+resource)
}
