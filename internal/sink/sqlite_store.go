package sink

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"probeword/internal/logger"
)

const responsesTable = "responses"

// SQLiteStore appends responses to a local SQLite database with one column
// per canonical header field. Reconciliation compares the table's columns to
// the header: missing columns are added, and an empty mismatched table is
// rebuilt so the column order matches exactly.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Init(header []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to create store directory: %w", err)}
	}
	if err := s.open(); err != nil {
		return &PersistenceError{Op: "init", Err: err}
	}
	if err := s.reconcile(header); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("store not initialized, run 'probeword init' first")
	}
	if err := s.open(); err != nil {
		return err
	}
	var result int
	if err := s.db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) tableColumns() ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(responsesTable)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (s *SQLiteStore) createTable(header []string) error {
	defs := make([]string, len(header))
	for i, col := range header {
		defs[i] = quoteSQLite(col) + " TEXT"
	}
	_, err := s.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteSQLite(responsesTable), strings.Join(defs, ", ")))
	return err
}

func (s *SQLiteStore) reconcile(header []string) error {
	cols, err := s.tableColumns()
	if err != nil {
		return &PersistenceError{Op: "reconcile", Err: err}
	}

	if len(cols) == 0 {
		if err := s.createTable(header); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
		return nil
	}
	if headerEqual(cols, header) {
		return nil
	}

	var count int
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteSQLite(responsesTable))).Scan(&count); err != nil {
		return &PersistenceError{Op: "reconcile", Err: err}
	}

	if count == 0 {
		// No data yet: rebuild so the column order is canonical.
		logger.Warn("Rebuilding empty responses table with canonical columns", "store", s.path)
		if _, err := s.db.Exec(fmt.Sprintf("DROP TABLE %s", quoteSQLite(responsesTable))); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
		if err := s.createTable(header); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
		return nil
	}

	// Historical rows exist: add whatever canonical columns are missing.
	existing := make(map[string]bool, len(cols))
	for _, c := range cols {
		existing[c] = true
	}
	for _, col := range header {
		if existing[col] {
			continue
		}
		logger.Warn("Adding missing response column", "store", s.path, "column", col)
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quoteSQLite(responsesTable), quoteSQLite(col))
		if _, err := s.db.Exec(stmt); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
	}
	return nil
}

func (s *SQLiteStore) Append(header, row []string) error {
	if len(header) != len(row) {
		return &PersistenceError{Op: "append", Err: fmt.Errorf("row has %d fields, header has %d", len(row), len(header))}
	}
	if err := s.open(); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	if err := s.reconcile(header); err != nil {
		return err
	}

	cols := make([]string, len(header))
	placeholders := make([]string, len(header))
	args := make([]interface{}, len(row))
	for i, col := range header {
		cols[i] = quoteSQLite(col)
		placeholders[i] = "?"
		args[i] = row[i]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteSQLite(responsesTable), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.Exec(stmt, args...); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	logger.Info("Appended response row", "store", s.path)
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) Describe() string {
	return s.path
}

// GetDB returns the underlying database connection for diagnostics.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
