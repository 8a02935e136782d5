// Package export renders the ledger to files other tools can read.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"expenses/internal/core"
)

// CSV writes expense collections as CSV files into a directory.
type CSV struct {
	dir string
	now func() time.Time
}

// NewCSV creates an exporter writing into dir. The directory is created on
// first use.
func NewCSV(dir string) *CSV {
	return &CSV{
		dir: dir,
		now: time.Now,
	}
}

// Write emits the expenses, in the order given, to a uniquely named CSV file
// and returns its path. The first row is a header; amounts are decimal
// strings so spreadsheets read them as numbers.
func (c *CSV) Write(ctx context.Context, expenses []core.Expense) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, path, err := c.createFile()
	if err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "date", "category", "amount", "description"}); err != nil {
		f.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			string(e.Category),
			e.Amount.String(),
			e.Description,
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return "", fmt.Errorf("write expense %d: %w", e.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	slog.InfoContext(ctx, "exported expenses",
		"component", "export",
		"path", path,
		"count", len(expenses))

	return path, nil
}

// createFile opens a timestamped file that did not exist before. A sequence
// suffix keeps names unique when two exports land in the same second.
func (c *CSV) createFile() (*os.File, string, error) {
	stamp := c.now().Format("20060102_150405")
	for i := 0; ; i++ {
		name := fmt.Sprintf("expenses_export_%s.csv", stamp)
		if i > 0 {
			name = fmt.Sprintf("expenses_export_%s_%d.csv", stamp, i)
		}
		path := filepath.Join(c.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create export file: %w", err)
		}
	}
}
