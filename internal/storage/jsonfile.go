package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/core"
)

// record is the on-disk shape of one expense. Amounts are stored as
// integer cents so the file round-trips without floating point drift.
type record struct {
	ID          int64  `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// JSONFile persists the snapshot as a pretty-printed JSON array. Saves
// go through a temp file in the same directory followed by a rename, so
// a crash mid-write never leaves a half-written snapshot behind.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load reads the snapshot. A missing file is a fresh start, not an
// error; anything else unreadable is reported to the caller.
func (s *JSONFile) Load(_ context.Context) ([]core.Expense, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	expenses := make([]core.Expense, 0, len(records))
	for _, r := range records {
		e, err := r.toExpense()
		if err != nil {
			return nil, fmt.Errorf("decode %s: record id %d: %w", s.path, r.ID, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// Save overwrites the snapshot atomically.
func (s *JSONFile) Save(_ context.Context, expenses []core.Expense) error {
	records := make([]record, len(expenses))
	for i, e := range expenses {
		records[i] = toRecord(e)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func toRecord(e core.Expense) record {
	r := record{
		ID:          e.ID,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Description: e.Description,
	}
	if !e.CreatedAt.IsZero() {
		r.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return r
}

func (r record) toExpense() (core.Expense, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:          r.ID,
		Amount:      core.Money{Cents: r.AmountCents},
		Category:    core.Category(r.Category),
		Date:        date,
		Description: r.Description,
	}
	if r.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse created_at: %w", err)
		}
		e.CreatedAt = createdAt
	}
	return e, nil
}
