package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNameRe     = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql. When another file
// already holds the current second the version is bumped until it is free.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	taken, err := versionsIn(dir)
	if err != nil {
		return "", err
	}
	at := time.Now().UTC()
	for taken[at.Format(versionLayout)] != "" {
		at = at.Add(time.Second)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", at.Format(versionLayout), safe))
	if err := os.WriteFile(path, []byte(fmt.Sprintf(migrationTemplate, safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

// ValidateDir checks file names, unique versions and the goose annotations of every
// .sql file in dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	seen, err := versionsIn(dir)
	if err != nil {
		return err
	}
	if len(seen) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	for _, name := range seen {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkAnnotations(name, string(body)); err != nil {
			return err
		}
	}
	return nil
}

// versionsIn maps version to file name for the .sql files in dir.
func versionsIn(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name
	}
	return seen, nil
}

func checkAnnotations(name, body string) error {
	up := strings.Index(body, "-- +goose Up")
	down := strings.Index(body, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q declares Down before Up", name)
	}
	if strings.Count(body, "-- +goose StatementBegin") != strings.Count(body, "-- +goose StatementEnd") {
		return fmt.Errorf("migration %q has unbalanced StatementBegin/StatementEnd", name)
	}
	return nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}
