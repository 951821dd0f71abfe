package db

import (
	"strings"

	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraintName is set the failure must reference that constraint or index.
// SQLite messages are matched textually for the test database.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.Postgres(err); ok {
		return pg.Code == pgUniqueViolation && (constraintName == "" || pg.Constraint == constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

// IsForeignKeyViolation reports whether err is a foreign key constraint failure.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.Postgres(err); ok {
		return pg.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
