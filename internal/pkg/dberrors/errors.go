package dberrors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation from either
// PostgreSQL or SQLite.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}

// DuplicateColumn returns the column whose unique constraint was violated, or "" if
// err is not a unique violation or the column cannot be determined.
// PostgreSQL constraints are expected to follow the default <table>_<column>_key naming.
func DuplicateColumn(err error) string {
	if !IsUniqueViolation(err) {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		name := strings.TrimSuffix(pgErr.ConstraintName, "_key")
		if pgErr.TableName != "" {
			name = strings.TrimPrefix(name, pgErr.TableName+"_")
		}
		return name
	}

	// "UNIQUE constraint failed: students.email"
	msg := err.Error()
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	target := msg[i+len(marker):]
	if end := strings.IndexAny(target, " ,("); end >= 0 {
		target = target[:end]
	}
	if dot := strings.LastIndex(target, "."); dot >= 0 {
		target = target[dot+1:]
	}
	return target
}
