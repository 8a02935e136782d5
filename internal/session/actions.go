package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/report"
)

func (s *Session) addExpense(ctx context.Context) {
	fmt.Fprintln(s.out, "\n--- Add New Expense ---")

	amount, ok := s.promptAmount("Enter amount: ")
	if !ok {
		return
	}
	category, ok := s.promptCategory()
	if !ok {
		return
	}
	date, ok := s.promptDate()
	if !ok {
		return
	}
	description, ok := s.readLine("Enter description (optional): ")
	if !ok {
		return
	}

	expense, err := s.ledger.Add(ctx, core.Expense{
		Amount:      amount,
		Category:    category,
		Date:        date,
		Description: description,
	})
	if err != nil && !s.persistWarning(err) {
		fmt.Fprintf(s.out, "\nCould not add expense: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "\nExpense added successfully!")
	fmt.Fprintf(s.out, "Amount: %s\n", expense.Amount)
	fmt.Fprintf(s.out, "Category: %s\n", expense.Category)
	fmt.Fprintf(s.out, "Date: %s\n", expense.Date)
	if expense.Description != "" {
		fmt.Fprintf(s.out, "Description: %s\n", expense.Description)
	}
}

func (s *Session) viewExpenses() {
	expenses := s.ledger.List()
	if len(expenses) == 0 {
		fmt.Fprintln(s.out, "\nNo expenses recorded yet.")
		return
	}

	fmt.Fprintln(s.out, "\n--- All Expenses ---")
	fmt.Fprintf(s.out, "%-4s %-12s %-15s %-10s %-20s\n", "ID", "Date", "Category", "Amount", "Description")
	fmt.Fprintln(s.out, strings.Repeat("-", 65))
	for _, e := range expenses {
		fmt.Fprintf(s.out, "%-4d %-12s %-15s %-9s %-20s\n",
			e.ID, e.Date, e.Category, e.Amount, truncate(e.Description, 20))
	}
}

func (s *Session) viewSummary() {
	expenses := s.ledger.List()
	if len(expenses) == 0 {
		fmt.Fprintln(s.out, "\nNo expenses to summarize.")
		return
	}

	fmt.Fprintln(s.out, "\n--- Expense Summary ---")
	fmt.Fprintf(s.out, "Total Overall Spending: %s\n", report.Total(expenses))

	fmt.Fprintln(s.out, "\nSpending by Category:")
	fmt.Fprintf(s.out, "%-15s %-10s %-10s\n", "Category", "Amount", "Percentage")
	fmt.Fprintln(s.out, strings.Repeat("-", 35))
	for _, row := range report.ByCategory(expenses) {
		fmt.Fprintf(s.out, "%-15s %-9s %.1f%%\n", row.Category, row.Subtotal, row.Percent)
	}

	recent := report.Recent(expenses, core.DateOf(s.now()), s.opts.WindowDays)
	fmt.Fprintf(s.out, "\nLast %d Days Spending: %s\n", s.opts.WindowDays, recent.Subtotal)
	fmt.Fprintf(s.out, "Average Daily Spending: %s\n", recent.AverageDaily)
}

func (s *Session) viewCategorySummary() {
	expenses := s.ledger.List()
	if len(expenses) == 0 {
		fmt.Fprintln(s.out, "\nNo expenses recorded yet.")
		return
	}

	// Only categories that actually hold records are offered here, unlike
	// the add flow, which always shows the whole set.
	cats := presentCategories(expenses)
	fmt.Fprintln(s.out, "\nAvailable categories:")
	for i, c := range cats {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, c)
	}

	line, ok := s.readLine("\nEnter category name: ")
	if !ok {
		return
	}
	category, err := resolveCategory(line, cats)
	if err != nil {
		fmt.Fprintln(s.out, "No expenses found for this category.")
		return
	}
	stats, ok := report.CategoryDetail(expenses, category, s.opts.DetailLimit)
	if !ok {
		fmt.Fprintln(s.out, "No expenses found for this category.")
		return
	}

	fmt.Fprintf(s.out, "\n--- %s Summary ---\n", stats.Category)
	fmt.Fprintf(s.out, "Total Expenses: %d\n", stats.Count)
	fmt.Fprintf(s.out, "Total Amount: %s\n", stats.Total)
	fmt.Fprintf(s.out, "Average per expense: %s\n", stats.Average)

	fmt.Fprintln(s.out, "\nRecent expenses in this category:")
	for _, e := range stats.MostRecent {
		description := e.Description
		if description == "" {
			description = "No description"
		}
		fmt.Fprintf(s.out, "  %s: %s - %s\n", e.Date, e.Amount, description)
	}
}

func (s *Session) editExpense(ctx context.Context) {
	if s.ledger.Len() == 0 {
		fmt.Fprintln(s.out, "\nNo expenses to edit.")
		return
	}
	s.viewExpenses()

	id, ok := s.promptID("\nEnter the ID of the expense to edit: ")
	if !ok {
		return
	}
	current, err := s.ledger.Get(id)
	if err != nil {
		fmt.Fprintln(s.out, "Expense not found.")
		return
	}

	fmt.Fprintf(s.out, "\nEditing expense: %s - %s on %s\n", current.Amount, current.Category, current.Date)

	// Empty input keeps the current value; an invalid field is dropped with
	// a notice while the remaining fields still apply.
	var update ledger.Update

	line, ok := s.readLine(fmt.Sprintf("New amount (current: %s): ", current.Amount))
	if !ok {
		return
	}
	if line != "" {
		if amount, err := core.ParseMoney(line); err == nil {
			update.Amount = &amount
		} else {
			fmt.Fprintln(s.out, "Invalid amount, keeping original.")
		}
	}

	s.printCategories()
	line, ok = s.readLine(fmt.Sprintf("New category (current: %s): ", current.Category))
	if !ok {
		return
	}
	if line != "" {
		if category, err := core.ParseCategory(line); err == nil {
			update.Category = &category
		} else {
			fmt.Fprintln(s.out, "Invalid category, keeping original.")
		}
	}

	line, ok = s.readLine(fmt.Sprintf("New date (current: %s): ", current.Date))
	if !ok {
		return
	}
	if line != "" {
		if date, err := core.ParseDate(line); err == nil {
			update.Date = &date
		} else {
			fmt.Fprintln(s.out, "Invalid date format, keeping original.")
		}
	}

	currentDescription := current.Description
	if currentDescription == "" {
		currentDescription = "None"
	}
	line, ok = s.readLine(fmt.Sprintf("New description (current: %s): ", currentDescription))
	if !ok {
		return
	}
	if line != "" {
		update.Description = &line
	}

	_, rejected, err := s.ledger.Update(ctx, id, update)
	if err != nil && !s.persistWarning(err) {
		fmt.Fprintf(s.out, "Could not update expense: %v\n", err)
		return
	}
	for _, fieldErr := range rejected {
		fmt.Fprintf(s.out, "Could not change %s: %v\n", fieldErr.Field, fieldErr.Err)
	}

	fmt.Fprintln(s.out, "\nExpense updated successfully!")
}

func (s *Session) deleteExpense(ctx context.Context) {
	if s.ledger.Len() == 0 {
		fmt.Fprintln(s.out, "\nNo expenses to delete.")
		return
	}
	s.viewExpenses()

	id, ok := s.promptID("\nEnter the ID of the expense to delete: ")
	if !ok {
		return
	}

	removed, err := s.ledger.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			fmt.Fprintln(s.out, "Expense not found.")
			return
		}
		if !s.persistWarning(err) {
			fmt.Fprintf(s.out, "Could not delete expense: %v\n", err)
			return
		}
	}

	fmt.Fprintf(s.out, "\nDeleted expense: %s - %s on %s\n", removed.Amount, removed.Category, removed.Date)
}

func (s *Session) exportCSV(ctx context.Context) {
	expenses := s.ledger.List()
	if len(expenses) == 0 {
		fmt.Fprintln(s.out, "\nNo expenses to export.")
		return
	}

	path, err := s.exporter.Write(ctx, expenses)
	if err != nil {
		fmt.Fprintf(s.out, "Error exporting to CSV: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "\nExpenses exported to %s\n", path)
}

// presentCategories returns the categories that hold at least one record,
// sorted by name.
func presentCategories(expenses []core.Expense) []core.Category {
	seen := make(map[core.Category]bool)
	var cats []core.Category
	for _, e := range expenses {
		if !seen[e.Category] {
			seen[e.Category] = true
			cats = append(cats, e.Category)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// resolveCategory matches input against the offered list: a 1-based index
// into it, or any category name.
func resolveCategory(line string, offered []core.Category) (core.Category, error) {
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(offered) {
			return "", core.ErrUnknownCategory
		}
		return offered[n-1], nil
	}
	return core.ParseCategory(line)
}
