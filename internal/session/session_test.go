package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/ledger"
)

type stubStore struct {
	loaded  []core.Expense
	loadErr error
	saveErr error
}

func (s *stubStore) Load(context.Context) ([]core.Expense, error) { return s.loaded, s.loadErr }
func (s *stubStore) Save(context.Context, []core.Expense) error   { return s.saveErr }

type stubExporter struct {
	path string
	err  error
	got  []core.Expense
}

func (e *stubExporter) Write(_ context.Context, expenses []core.Expense) (string, error) {
	e.got = expenses
	if e.err != nil {
		return "", e.err
	}
	return e.path, nil
}

// runScript feeds the lines to a session over the given store and returns
// the rendered output. The clock is pinned to 2025-06-15.
func runScript(t *testing.T, store *stubStore, exporter *stubExporter, lines ...string) (string, *ledger.Ledger) {
	t.Helper()
	if exporter == nil {
		exporter = &stubExporter{path: "expenses_export_test.csv"}
	}
	lg := ledger.New(store, nil)
	var out bytes.Buffer
	s := New(lg, exporter, strings.NewReader(strings.Join(lines, "\n")), &out, Options{WindowDays: 7, DetailLimit: 5})
	s.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out.String(), lg
}

func seedExpenses() []core.Expense {
	return []core.Expense{
		{ID: 1, Amount: core.Money{Cents: 1000}, Category: core.CategoryFood, Date: core.NewDate(2025, 6, 14), Description: "groceries"},
		{ID: 2, Amount: core.Money{Cents: 3000}, Category: core.CategoryTransport, Date: core.NewDate(2025, 6, 12), Description: "train ticket"},
	}
}

func TestRunAddAndList(t *testing.T) {
	out, lg := runScript(t, &stubStore{}, nil,
		"1",          // add
		"12.50",      // amount
		"1",          // Food
		"2025-06-10", // date
		"team lunch", // description
		"",           // continue
		"2",          // list
		"",           // continue
		"8",          // exit
	)

	for _, want := range []string{
		"No existing expense data found. Starting fresh!",
		"Expense added successfully!",
		"Amount: 12.50",
		"Category: Food",
		"Date: 2025-06-10",
		"Description: team lunch",
		"--- All Expenses ---",
		"Thank you for using Personal Expense Tracker!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if lg.Len() != 1 {
		t.Fatalf("ledger has %d expenses, want 1", lg.Len())
	}
}

func TestRunRepromptsOnInvalidInput(t *testing.T) {
	out, lg := runScript(t, &stubStore{}, nil,
		"1",
		"abc",        // not a number
		"-5",         // not positive
		"0",          // not positive
		"12,50",      // ok, comma separator
		"99",         // category number out of range
		"Snacks",     // unknown category name
		"food",       // ok, case-insensitive
		"2025/06/10", // wrong date format
		"",           // ok, defaults to today
		"",           // no description
		"",           // continue
		"8",
	)

	for _, want := range []string{
		"Please enter a valid number.",
		"Amount must be positive. Please try again.",
		"Invalid choice. Please try again.",
		"Invalid category. Please try again.",
		"Invalid date format. Please use YYYY-MM-DD.",
		"Date: 2025-06-15",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	added, err := lg.Get(1)
	if err != nil {
		t.Fatalf("expense not stored: %v", err)
	}
	if added.Amount.Cents != 1250 || added.Category != core.CategoryFood {
		t.Errorf("stored %s/%s, want 12.50/Food", added.Amount, added.Category)
	}
}

func TestRunSummaryView(t *testing.T) {
	out, _ := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"3",
		"",
		"8",
	)

	for _, want := range []string{
		"Loaded 2 expenses",
		"--- Expense Summary ---",
		"Total Overall Spending: 40.00",
		"Spending by Category:",
		"75.0%",
		"25.0%",
		"Last 7 Days Spending: 40.00",
		"Average Daily Spending: 5.71",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Largest share renders first.
	if strings.Index(out, "Transport") > strings.Index(out, "Food") {
		t.Error("category rows not ordered by share descending")
	}
}

func TestRunCategorySummaryView(t *testing.T) {
	out, _ := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"4",
		"Food",
		"",
		"4",
		"Education", // valid category, no records
		"",
		"8",
	)

	for _, want := range []string{
		"--- Food Summary ---",
		"Total Expenses: 1",
		"Total Amount: 10.00",
		"Average per expense: 10.00",
		"Recent expenses in this category:",
		"2025-06-14: 10.00 - groceries",
		"No expenses found for this category.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Only categories with records are offered, sorted by name.
	if !strings.Contains(out, "1. Food\n2. Transport") {
		t.Error("output missing data-derived category list")
	}
	if strings.Contains(out, "Entertainment") {
		t.Error("category list offered categories without records")
	}
}

func TestRunCategorySummaryByNumber(t *testing.T) {
	// Present list is [Food, Transport]; "2" must pick Transport even
	// though Transport is not second in the full category set.
	out, _ := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"4",
		"2",
		"",
		"8",
	)

	if !strings.Contains(out, "--- Transport Summary ---") {
		t.Error("numbered selection did not resolve against the offered list")
	}
}

func TestRunEditKeepsOriginalOnInvalidFields(t *testing.T) {
	out, lg := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"5",
		"1",        // id
		"-9",       // invalid amount, keep 10.00
		"",         // keep category
		"bad-date", // invalid date, keep 2025-06-14
		"new note", // new description
		"",
		"8",
	)

	for _, want := range []string{
		"Editing expense: 10.00 - Food on 2025-06-14",
		"Invalid amount, keeping original.",
		"Invalid date format, keeping original.",
		"Expense updated successfully!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	edited, err := lg.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if edited.Amount.Cents != 1000 {
		t.Errorf("amount changed to %s, want 10.00 kept", edited.Amount)
	}
	if edited.Date.String() != "2025-06-14" {
		t.Errorf("date changed to %s, want 2025-06-14 kept", edited.Date)
	}
	if edited.Description != "new note" {
		t.Errorf("description = %q, want %q", edited.Description, "new note")
	}
}

func TestRunEditUnknownID(t *testing.T) {
	out, _ := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"5",
		"42",
		"",
		"8",
	)

	if !strings.Contains(out, "Expense not found.") {
		t.Error("output missing not-found notice")
	}
}

func TestRunDeleteFlow(t *testing.T) {
	out, lg := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"6",
		"42", // unknown id
		"",
		"6",
		"abc", // not a number, reprompts
		"1",
		"",
		"8",
	)

	for _, want := range []string{
		"Expense not found.",
		"Please enter a valid ID number.",
		"Deleted expense: 10.00 - Food on 2025-06-14",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if lg.Len() != 1 {
		t.Fatalf("ledger has %d expenses, want 1", lg.Len())
	}
}

func TestRunExport(t *testing.T) {
	exporter := &stubExporter{path: "exports/expenses_export_20250615_120000.csv"}
	out, _ := runScript(t, &stubStore{loaded: seedExpenses()}, exporter,
		"7",
		"",
		"8",
	)

	if !strings.Contains(out, "Expenses exported to exports/expenses_export_20250615_120000.csv") {
		t.Error("output missing export confirmation")
	}
	if len(exporter.got) != 2 {
		t.Fatalf("exporter received %d expenses, want 2", len(exporter.got))
	}
}

func TestRunExportEmptyAndFailing(t *testing.T) {
	exporter := &stubExporter{err: errors.New("disk full")}
	out, _ := runScript(t, &stubStore{}, exporter,
		"7", // empty ledger, no export attempt
		"",
		"8",
	)
	if !strings.Contains(out, "No expenses to export.") {
		t.Error("output missing empty-ledger notice")
	}
	if exporter.got != nil {
		t.Error("exporter invoked for empty ledger")
	}

	out, _ = runScript(t, &stubStore{loaded: seedExpenses()}, exporter,
		"7",
		"",
		"8",
	)
	if !strings.Contains(out, "Error exporting to CSV: disk full") {
		t.Error("output missing export failure notice")
	}
}

func TestRunSaveFailureKeepsChange(t *testing.T) {
	out, lg := runScript(t, &stubStore{saveErr: errors.New("disk full")}, nil,
		"1",
		"5.00",
		"2",
		"2025-06-10",
		"",
		"",
		"8",
	)

	for _, want := range []string{
		"Error saving expenses: disk full",
		"The change is kept for this session.",
		"Expense added successfully!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if lg.Len() != 1 {
		t.Fatalf("ledger has %d expenses, want 1 despite save failure", lg.Len())
	}
}

func TestRunLoadFailureStartsFresh(t *testing.T) {
	out, lg := runScript(t, &stubStore{loadErr: errors.New("corrupt file")}, nil,
		"8",
	)

	if !strings.Contains(out, "Error loading expenses: corrupt file") {
		t.Error("output missing load failure notice")
	}
	if !strings.Contains(out, "Starting fresh!") {
		t.Error("output missing fresh start notice")
	}
	if lg.Len() != 0 {
		t.Fatalf("ledger has %d expenses, want 0", lg.Len())
	}
}

func TestRunInvalidMenuChoice(t *testing.T) {
	out, _ := runScript(t, &stubStore{}, nil,
		"9",
		"",
		"8",
	)

	if !strings.Contains(out, "Invalid choice. Please select 1-8.") {
		t.Error("output missing invalid choice notice")
	}
}

func TestRunCommandWords(t *testing.T) {
	out, _ := runScript(t, &stubStore{loaded: seedExpenses()}, nil,
		"list",
		"",
		"summary",
		"",
		"quit",
	)

	for _, want := range []string{
		"--- All Expenses ---",
		"--- Expense Summary ---",
		"Thank you for using Personal Expense Tracker!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRunEndsCleanlyOnEOF(t *testing.T) {
	out, _ := runScript(t, &stubStore{}, nil,
		"2", // listing, then input runs out at the pause
	)

	if !strings.Contains(out, "No expenses recorded yet.") {
		t.Error("output missing listing")
	}
}

func TestRunTruncatesLongDescriptions(t *testing.T) {
	long := strings.Repeat("x", 30)
	store := &stubStore{loaded: []core.Expense{
		{ID: 1, Amount: core.Money{Cents: 100}, Category: core.CategoryOther, Date: core.NewDate(2025, 6, 1), Description: long},
	}}
	out, _ := runScript(t, store, nil,
		"2",
		"",
		"8",
	)

	if strings.Contains(out, long) {
		t.Error("long description rendered untruncated")
	}
	if !strings.Contains(out, strings.Repeat("x", 18)+"...") {
		t.Error("output missing truncated description")
	}
}
