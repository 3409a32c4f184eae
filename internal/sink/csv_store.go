package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"probeword/internal/logger"
)

// CSVStore appends responses to a flat local CSV file. The pack offers no
// third-party CSV codec anywhere, so this leans on encoding/csv directly.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Init(header []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to create store directory: %w", err)}
	}

	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		// Existing data: reconcile the header row, write no data row.
		if err := s.reconcile(header); err != nil {
			return err
		}
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to create store: %w", err)}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return &PersistenceError{Op: "init", Err: fmt.Errorf("failed to write header: %w", err)}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Op: "init", Err: err}
	}
	return nil
}

func (s *CSVStore) Load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("store not initialized, run 'probeword init' first")
	} else if err != nil {
		return fmt.Errorf("failed to access store: %w", err)
	}
	return nil
}

// reconcile replaces a mismatched first row with the canonical header,
// keeping every data row. The check is field-presence driven, not versioned:
// appending under a drifted header would silently shift columns.
func (s *CSVStore) reconcile(header []string) error {
	f, err := os.Open(s.path)
	if err != nil {
		return &PersistenceError{Op: "reconcile", Err: err}
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	f.Close()
	if err != nil {
		return &PersistenceError{Op: "reconcile", Err: fmt.Errorf("failed to parse store: %w", err)}
	}

	if len(records) > 0 && headerEqual(records[0], header) {
		return nil
	}

	if len(records) == 0 {
		records = [][]string{header}
	} else {
		logger.Warn("Rewriting mismatched header row", "store", s.path, "columns", len(header))
		records[0] = header
	}

	out, err := os.OpenFile(s.path, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return &PersistenceError{Op: "reconcile", Err: err}
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.WriteAll(records); err != nil {
		return &PersistenceError{Op: "reconcile", Err: err}
	}
	return nil
}

func (s *CSVStore) Append(header, row []string) error {
	if len(header) != len(row) {
		return &PersistenceError{Op: "append", Err: fmt.Errorf("row has %d fields, header has %d", len(row), len(header))}
	}

	info, err := os.Stat(s.path)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		// First write on an empty store: header first, then the row.
		if err := s.Init(header); err != nil {
			return err
		}
	} else if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	} else {
		if err := s.reconcile(header); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	logger.Info("Appended response row", "store", s.path)
	return nil
}

func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) Describe() string {
	return s.path
}
