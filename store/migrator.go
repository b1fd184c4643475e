package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/alfred/internal/version"
)

// Migration layout:
//
//	migration/{driver}/LATEST.sql                 full schema for fresh databases
//	migration/{driver}/{minor}/NN__desc.sql        incremental upgrades, version "{minor}.NN"
//
// The applied schema version is kept in system_setting under schemaVersionKey.

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit separates the patch number from the description, e.g. "00__init.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is applied to fresh installations.
	LatestSchemaFileName = "LATEST.sql"

	defaultSchemaVersion = "0.0.0"
	schemaVersionKey     = "schema_version"
)

func getSchemaVersionOrDefault(schemaVersion string) string {
	if schemaVersion == "" {
		return defaultSchemaVersion
	}
	return schemaVersion
}

// shouldApplyMigration reports whether fileVersion lies in (current, target].
func shouldApplyMigration(fileVersion, currentDBVersion, targetVersion string) bool {
	return version.IsVersionGreaterThan(fileVersion, getSchemaVersionOrDefault(currentDBVersion)) &&
		version.IsVersionGreaterOrEqualThan(targetVersion, fileVersion)
}

func validateMigrationFileName(filename string) error {
	if !strings.Contains(filename, MigrateFileNameSplit) {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	parts := strings.Split(filename, MigrateFileNameSplit)
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate brings the database schema up to the latest embedded version.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	target, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}

	if !initialized {
		filePath := filepath.Join(s.getMigrationBasePath(), LatestSchemaFileName)
		slog.Info("initializing new database with latest schema", slog.String("file", filePath))
		if err := s.applyFiles(ctx, []string{filePath}); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		return s.updateSchemaVersion(ctx, target)
	}

	current := s.getRecordedSchemaVersion(ctx)
	if version.IsVersionGreaterThan(current, target) {
		slog.Error("cannot downgrade schema version",
			slog.String("databaseVersion", current),
			slog.String("currentVersion", target),
		)
		return errors.Errorf("cannot downgrade schema version from %s to %s", current, target)
	}
	if !version.IsVersionGreaterThan(target, current) {
		return nil
	}

	files, err := s.pendingMigrationFiles(current, target)
	if err != nil {
		return err
	}
	slog.Info("start migration",
		slog.String("currentSchemaVersion", current),
		slog.String("targetSchemaVersion", target),
		slog.Int("files", len(files)))
	if err := s.applyFiles(ctx, files); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return s.updateSchemaVersion(ctx, target)
}

func (s *Store) pendingMigrationFiles(current, target string) ([]string, error) {
	all, err := fs.Glob(migrationFS, filepath.Join(s.getMigrationBasePath(), "*", "*.sql"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}
	pending := []string{}
	for _, filePath := range all {
		v, err := s.getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return nil, err
		}
		if shouldApplyMigration(v, current, target) {
			pending = append(pending, filePath)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		vi, _ := s.getSchemaVersionOfMigrateScript(pending[i])
		vj, _ := s.getSchemaVersionOfMigrateScript(pending[j])
		return version.IsVersionGreaterThan(vj, vi)
	})
	return pending, nil
}

func (s *Store) applyFiles(ctx context.Context, files []string) error {
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	for _, filePath := range files {
		buf, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		slog.Info("applying migration", slog.String("file", filePath))
		if err := s.execute(ctx, tx, string(buf)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit migration transaction")
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s", s.driver.Type())
}

// GetCurrentSchemaVersion returns the highest version among the embedded migration scripts.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	files, err := fs.Glob(migrationFS, filepath.Join(s.getMigrationBasePath(), "*", "*.sql"))
	if err != nil {
		return "", errors.Wrap(err, "failed to read migration files")
	}
	versions := []string{defaultSchemaVersion}
	for _, filePath := range files {
		v, err := s.getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return "", err
		}
		versions = append(versions, v)
	}
	sort.Sort(version.SortVersion(versions))
	return versions[len(versions)-1], nil
}

// getSchemaVersionOfMigrateScript maps "migration/sqlite/0.2/01__x.sql" to "0.2.1".
func (s *Store) getSchemaVersionOfMigrateScript(filePath string) (string, error) {
	filename := filepath.Base(filePath)
	if err := validateMigrationFileName(filename); err != nil {
		return "", err
	}
	minor := filepath.Base(filepath.Dir(filePath))
	rawPatch := strings.Split(filename, MigrateFileNameSplit)[0]
	patch, err := strconv.Atoi(rawPatch)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert patch version to int: %s", rawPatch)
	}
	return fmt.Sprintf("%s.%d", minor, patch), nil
}

func (s *Store) getRecordedSchemaVersion(ctx context.Context) string {
	var value string
	stmt := "SELECT value FROM system_setting WHERE name = " + s.bindVar(1)
	if err := s.driver.GetDB().QueryRowContext(ctx, stmt, schemaVersionKey).Scan(&value); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("schema version unavailable, treating as default", slog.String("error", err.Error()))
		}
		return defaultSchemaVersion
	}
	return getSchemaVersionOrDefault(value)
}

func (s *Store) updateSchemaVersion(ctx context.Context, schemaVersion string) error {
	stmt := "INSERT INTO system_setting (name, value) VALUES (" + s.bindVar(1) + ", " + s.bindVar(2) + ") " +
		"ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value"
	if _, err := s.driver.GetDB().ExecContext(ctx, stmt, schemaVersionKey, schemaVersion); err != nil {
		return errors.Wrap(err, "failed to update current schema version")
	}
	slog.Info("schema version recorded", slog.String("schemaVersion", schemaVersion))
	return nil
}

func (s *Store) bindVar(n int) string {
	if s.driver.Type() == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// execute runs a multi-statement SQL script inside tx.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement: %s", stmt)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	lines := []string{}
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	stmts := []string{}
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
