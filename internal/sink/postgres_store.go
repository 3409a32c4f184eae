package sink

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"probeword/internal/constants"
	"probeword/internal/logger"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// PostgresStore appends responses to a table in a remote PostgreSQL database,
// the remote counterpart of the local stores. Header reconciliation maps to
// column reconciliation: missing canonical columns are added before the
// append, and an empty mismatched table is rebuilt.
type PostgresStore struct {
	connStr string
	db      *sql.DB
}

func NewPostgresStore(connStr string) *PostgresStore {
	s := &PostgresStore{connStr: connStr}
	s.ensureSearchPath()
	return s
}

func (s *PostgresStore) ensureSearchPath() {
	if strings.HasPrefix(s.connStr, "postgres://") || strings.HasPrefix(s.connStr, "postgresql://") {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
	} else {
		if !hasDSNParam(s.connStr, "search_path") {
			s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
		}
	}
}

// hasDSNParam reports whether a DSN-style connection string contains the
// given parameter key (case-insensitive).
func hasDSNParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasDSNParam(connStr, "sslmode")
}

// HasEmbeddedCredentials reports whether a connection string carries a
// password. Credentials belong in the OS keyring, environment, or .pgpass,
// never on the command line.
func HasEmbeddedCredentials(connStr string) bool {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if u, err := url.Parse(connStr); err == nil && u.User != nil {
			_, isSet := u.User.Password()
			return isSet
		}
		return false
	}
	return hasDSNParam(connStr, "password")
}

// ValidateConnString checks that a connection string is a well-formed
// PostgreSQL URI or DSN and that it does not embed a password.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if HasEmbeddedCredentials(connStr) {
		return false, ErrEmbeddedCredentials
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
	}

	return true, nil
}

func (s *PostgresStore) open() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	s.db = db

	if err := s.db.Ping(); err != nil {
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func (s *PostgresStore) Init(header []string) error {
	if err := s.open(); err != nil {
		return &PersistenceError{Op: "init", Err: err}
	}
	if _, err := s.db.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(constants.AppName)); err != nil {
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to create schema: %w", err)}
	}
	return s.reconcile(header)
}

func (s *PostgresStore) Load() error {
	return s.open()
}

func (s *PostgresStore) tableColumns() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, constants.AppName, responsesTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (s *PostgresStore) qualifiedTable() string {
	return pq.QuoteIdentifier(constants.AppName) + "." + pq.QuoteIdentifier(responsesTable)
}

func (s *PostgresStore) createTable(header []string) error {
	defs := make([]string, len(header))
	for i, col := range header {
		defs[i] = pq.QuoteIdentifier(col) + " TEXT"
	}
	_, err := s.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", s.qualifiedTable(), strings.Join(defs, ", ")))
	return err
}

func (s *PostgresStore) reconcile(header []string) error {
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
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", s.qualifiedTable())).Scan(&count); err != nil {
		return &PersistenceError{Op: "reconcile", Err: err}
	}

	if count == 0 {
		logger.Warn("Rebuilding empty responses table with canonical columns")
		if _, err := s.db.Exec(fmt.Sprintf("DROP TABLE %s", s.qualifiedTable())); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
		if err := s.createTable(header); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
		return nil
	}

	existing := make(map[string]bool, len(cols))
	for _, c := range cols {
		existing[c] = true
	}
	for _, col := range header {
		if existing[col] {
			continue
		}
		logger.Warn("Adding missing response column", "column", col)
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", s.qualifiedTable(), pq.QuoteIdentifier(col))
		if _, err := s.db.Exec(stmt); err != nil {
			return &PersistenceError{Op: "reconcile", Err: err}
		}
	}
	return nil
}

func (s *PostgresStore) Append(header, row []string) error {
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
		cols[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[i]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.qualifiedTable(), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.Exec(stmt, args...); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	logger.Info("Appended response row", "store", "postgresql")
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *PostgresStore) Describe() string {
	// Never expose the connection string.
	return "postgresql"
}
