// Package session implements the interactive surface: a fixed menu of
// ledger operations driven by a line-oriented prompt loop. Every input
// field validates locally and reprompts, so bad input never reaches the
// ledger, and save failures are reported without discarding the change.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/ledger"
)

// Exporter writes the full collection to an external artifact and returns
// a reference to it.
type Exporter interface {
	Write(ctx context.Context, expenses []core.Expense) (string, error)
}

// Options tune the aggregate views.
type Options struct {
	WindowDays  int // recent-spending window for the summary view
	DetailLimit int // how many recent records the category view shows
}

// Session drives one interactive run over a ledger.
type Session struct {
	ledger   *ledger.Ledger
	exporter Exporter
	in       *bufio.Scanner
	out      io.Writer
	opts     Options
	now      func() time.Time
}

// New creates a session reading commands from in and rendering to out.
func New(lg *ledger.Ledger, exporter Exporter, in io.Reader, out io.Writer, opts Options) *Session {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 7
	}
	if opts.DetailLimit <= 0 {
		opts.DetailLimit = 5
	}
	return &Session{
		ledger:   lg,
		exporter: exporter,
		in:       bufio.NewScanner(in),
		out:      out,
		opts:     opts,
		now:      time.Now,
	}
}

// Run loads the ledger and serves the menu until the user exits or input
// ends. A panic in an action is reported and followed by a best-effort
// save, so a rendering bug never loses recorded data.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(s.out, "\nAn unexpected error occurred: %v\n", r)
			if flushErr := s.ledger.Flush(ctx); flushErr != nil {
				fmt.Fprintf(s.out, "Error saving expenses: %v\n", flushErr)
			} else {
				fmt.Fprintln(s.out, "Your expenses have been saved.")
			}
			err = fmt.Errorf("session aborted: %v", r)
		}
	}()

	fmt.Fprintln(s.out, "Welcome to Personal Expense Tracker!")
	count, loadErr := s.ledger.Load(ctx)
	switch {
	case loadErr != nil:
		fmt.Fprintf(s.out, "Error loading expenses: %v\n", loadErr)
		fmt.Fprintln(s.out, "Starting fresh!")
	case count > 0:
		fmt.Fprintf(s.out, "Loaded %d expenses\n", count)
	default:
		fmt.Fprintln(s.out, "No existing expense data found. Starting fresh!")
	}

	for {
		s.printMenu()
		choice, ok := s.readLine("\nSelect an option (1-8): ")
		if !ok {
			return nil
		}

		if s.dispatch(ctx, choice) {
			fmt.Fprintln(s.out, "\nThank you for using Personal Expense Tracker!")
			if flushErr := s.ledger.Flush(ctx); flushErr != nil {
				fmt.Fprintf(s.out, "Error saving expenses: %v\n", flushErr)
			} else {
				fmt.Fprintln(s.out, "Your expenses have been saved.")
			}
			return nil
		}

		if !s.pause() {
			return nil
		}
	}
}

// dispatch runs the selected action and reports whether the session is over.
// Every action is reachable by menu number or by name.
func (s *Session) dispatch(ctx context.Context, choice string) (done bool) {
	switch strings.ToLower(choice) {
	case "1", "add":
		s.addExpense(ctx)
	case "2", "list":
		s.viewExpenses()
	case "3", "summary":
		s.viewSummary()
	case "4", "category":
		s.viewCategorySummary()
	case "5", "edit":
		s.editExpense(ctx)
	case "6", "delete":
		s.deleteExpense(ctx)
	case "7", "export":
		s.exportCSV(ctx)
	case "8", "exit", "quit":
		return true
	default:
		fmt.Fprintln(s.out, "\nInvalid choice. Please select 1-8.")
	}
	return false
}

func (s *Session) printMenu() {
	line := strings.Repeat("=", 50)
	fmt.Fprintln(s.out, "\n"+line)
	fmt.Fprintln(s.out, "      PERSONAL EXPENSE TRACKER")
	fmt.Fprintln(s.out, line)
	fmt.Fprintln(s.out, "1. Add Expense")
	fmt.Fprintln(s.out, "2. View All Expenses")
	fmt.Fprintln(s.out, "3. View Summary")
	fmt.Fprintln(s.out, "4. View Category Summary")
	fmt.Fprintln(s.out, "5. Edit Expense")
	fmt.Fprintln(s.out, "6. Delete Expense")
	fmt.Fprintln(s.out, "7. Export to CSV")
	fmt.Fprintln(s.out, "8. Exit")
	fmt.Fprintln(s.out, line)
}

// readLine prompts and returns the next input line, trimmed. ok is false
// once input is exhausted.
func (s *Session) readLine(prompt string) (line string, ok bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) pause() bool {
	_, ok := s.readLine("\nPress Enter to continue...")
	return ok
}

// promptAmount reprompts until it gets a positive decimal amount.
func (s *Session) promptAmount(prompt string) (core.Money, bool) {
	for {
		line, ok := s.readLine(prompt)
		if !ok {
			return core.Money{}, false
		}
		amount, err := core.ParseMoney(line)
		if err == nil {
			return amount, true
		}
		if f, ferr := strconv.ParseFloat(strings.ReplaceAll(line, ",", "."), 64); ferr == nil && f <= 0 {
			fmt.Fprintln(s.out, "Amount must be positive. Please try again.")
			continue
		}
		fmt.Fprintln(s.out, "Please enter a valid number.")
	}
}

func (s *Session) printCategories() {
	fmt.Fprintln(s.out, "\nAvailable categories:")
	for i, category := range core.Categories() {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, category)
	}
}

// promptCategory lists the category set and reprompts until the input
// resolves to one of them, by number or by name.
func (s *Session) promptCategory() (core.Category, bool) {
	s.printCategories()
	for {
		line, ok := s.readLine("\nSelect category (number or name): ")
		if !ok {
			return "", false
		}
		category, err := core.ParseCategory(line)
		if err == nil {
			return category, true
		}
		if _, numErr := strconv.Atoi(line); numErr == nil {
			fmt.Fprintln(s.out, "Invalid choice. Please try again.")
		} else {
			fmt.Fprintln(s.out, "Invalid category. Please try again.")
		}
	}
}

// promptDate reprompts until it gets an ISO date; empty input means today.
func (s *Session) promptDate() (core.Date, bool) {
	for {
		line, ok := s.readLine("Enter date (YYYY-MM-DD) or press Enter for today: ")
		if !ok {
			return core.Date{}, false
		}
		if line == "" {
			return core.DateOf(s.now()), true
		}
		date, err := core.ParseDate(line)
		if err == nil {
			return date, true
		}
		fmt.Fprintln(s.out, "Invalid date format. Please use YYYY-MM-DD.")
	}
}

// promptID reprompts until it gets an integer id.
func (s *Session) promptID(prompt string) (int64, bool) {
	for {
		line, ok := s.readLine(prompt)
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err == nil {
			return id, true
		}
		fmt.Fprintln(s.out, "Please enter a valid ID number.")
	}
}

// persistWarning reports save failures that left the in-memory change
// applied. It returns true when err was such a failure; the session keeps
// running with memory as the source of truth.
func (s *Session) persistWarning(err error) bool {
	var perr *ledger.PersistError
	if !errors.As(err, &perr) {
		return false
	}
	fmt.Fprintf(s.out, "Error saving expenses: %v\n", perr.Err)
	fmt.Fprintln(s.out, "The change is kept for this session.")
	return true
}

// truncate shortens text beyond max runes, ending in an ellipsis.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-2]) + "..."
}
