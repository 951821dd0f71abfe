package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
)

// DefaultDir holds the SQL migrations shipped with the service.
const DefaultDir = "pkg/migrate/migrations"

const dialect = "postgres"

// Runner applies the goose migrations found in one directory.
type Runner struct {
	db  *sql.DB
	dir string
}

// NewRunner binds goose to db and dir.
func NewRunner(db *sql.DB, dir string) (*Runner, error) {
	switch {
	case db == nil:
		return nil, errors.New("migrate: db is required")
	case strings.TrimSpace(dir) == "":
		return nil, errors.New("migrate: dir is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Runner{db: db, dir: dir}, nil
}

// Exec runs a goose command such as up, down, redo or status.
func (r *Runner) Exec(ctx context.Context, command string, args ...string) error {
	if err := goose.RunContext(ctx, command, r.db, r.dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// To moves the schema up or down until it sits at version.
func (r *Runner) To(ctx context.Context, version string) error {
	target, err := ParseVersion(version)
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersion(r.db)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}

	switch {
	case target > current:
		err = goose.UpToContext(ctx, r.db, r.dir, target)
	case target < current:
		err = goose.DownToContext(ctx, r.db, r.dir, target)
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

// ParseVersion accepts the timestamp prefix used in migration file names.
func ParseVersion(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse(versionLayout, raw); err != nil {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	return strconv.ParseInt(raw, 10, 64)
}
