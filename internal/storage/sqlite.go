package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/core"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// SQLite persists the snapshot in a single expenses table. Save rewrites
// the whole table inside one transaction; an explicit position column
// keeps insertion order independent of how the driver returns rows.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

//go:embed migrations/*.sql
var schemaFS embed.FS

// migrateSchema applies any pending migrations to the database at dbPath.
// The migrator takes ownership of the connection it wraps and closes it,
// so the schema work runs over its own handle rather than the store's.
func migrateSchema(dbPath string) error {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}

	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		db.Close()
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount_cents, category, date, description, created_at
		FROM expenses
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			category  string
			date      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &category, &date, &e.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		e.Category = core.Category(category)
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("expense id %d: %w", e.ID, err)
		}
		e.Date = d
		if createdAt != "" {
			t, err := time.Parse(time.RFC3339, createdAt)
			if err != nil {
				return nil, fmt.Errorf("expense id %d: parse created_at: %w", e.ID, err)
			}
			e.CreatedAt = t
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	return expenses, nil
}

func (s *SQLite) Save(ctx context.Context, expenses []core.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (id, position, amount_cents, category, date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range expenses {
		createdAt := ""
		if !e.CreatedAt.IsZero() {
			createdAt = e.CreatedAt.Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, i, e.Amount.Cents, string(e.Category), e.Date.String(), e.Description, createdAt); err != nil {
			return fmt.Errorf("insert expense id %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
