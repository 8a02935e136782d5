package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenses/internal/core"
)

type fakeStore struct {
	loadResult []core.Expense
	loadErr    error
	saveErr    error
	saves      [][]core.Expense
}

func (s *fakeStore) Load(ctx context.Context) ([]core.Expense, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]core.Expense(nil), s.loadResult...), nil
}

func (s *fakeStore) Save(ctx context.Context, expenses []core.Expense) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, append([]core.Expense(nil), expenses...))
	return nil
}

type event struct {
	kind string
	id   int64
}

type fakeNotifier struct {
	events []event
	err    error
}

func (n *fakeNotifier) ExpenseAdded(ctx context.Context, e core.Expense) error {
	n.events = append(n.events, event{"added", e.ID})
	return n.err
}

func (n *fakeNotifier) ExpenseUpdated(ctx context.Context, e core.Expense) error {
	n.events = append(n.events, event{"updated", e.ID})
	return n.err
}

func (n *fakeNotifier) ExpenseDeleted(ctx context.Context, e core.Expense) error {
	n.events = append(n.events, event{"deleted", e.ID})
	return n.err
}

func testExpense(cents int64, cat core.Category, day int) core.Expense {
	return core.Expense{
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Date:        core.NewDate(2025, 1, day),
		Description: "test",
	}
}

func mustAdd(t *testing.T, l *Ledger, e core.Expense) core.Expense {
	t.Helper()
	stored, err := l.Add(context.Background(), e)
	if err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}
	return stored
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	store := &fakeStore{}
	l := New(store, nil)

	first := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	second := mustAdd(t, l, testExpense(200, core.CategoryTransport, 2))
	third := mustAdd(t, l, testExpense(300, core.CategoryOther, 3))

	if first.ID != 1 || second.ID != 2 || third.ID != 3 {
		t.Fatalf("ids = %d, %d, %d, want 1, 2, 3", first.ID, second.ID, third.ID)
	}
	if len(store.saves) != 3 {
		t.Fatalf("expected 3 snapshot writes, got %d", len(store.saves))
	}
	if got := len(store.saves[2]); got != 3 {
		t.Fatalf("last snapshot holds %d expenses, want 3", got)
	}
}

func TestAddSetsCreatedAt(t *testing.T) {
	l := New(&fakeStore{}, nil)
	fixed := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	if !stored.CreatedAt.Equal(fixed) {
		t.Fatalf("CreatedAt = %v, want %v", stored.CreatedAt, fixed)
	}
}

func TestAddRejectsInvalidWithoutMutation(t *testing.T) {
	store := &fakeStore{}
	l := New(store, nil)

	cases := []core.Expense{
		{Amount: core.Money{Cents: 0}, Category: core.CategoryFood, Date: core.NewDate(2025, 1, 1)},
		{Amount: core.Money{Cents: 100}, Category: "Snacks", Date: core.NewDate(2025, 1, 1)},
		{Amount: core.Money{Cents: 100}, Category: core.CategoryFood},
	}
	for i, e := range cases {
		if _, err := l.Add(context.Background(), e); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("collection mutated by rejected adds: len = %d", l.Len())
	}
	if len(store.saves) != 0 {
		t.Fatalf("rejected adds must not persist, got %d saves", len(store.saves))
	}
}

func TestAddReusesIDAfterDeletingHighest(t *testing.T) {
	l := New(&fakeStore{}, nil)
	mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	mustAdd(t, l, testExpense(200, core.CategoryFood, 2))
	third := mustAdd(t, l, testExpense(300, core.CategoryFood, 3))

	if _, err := l.Delete(context.Background(), third.ID); err != nil {
		t.Fatalf("Delete unexpected error: %v", err)
	}
	replacement := mustAdd(t, l, testExpense(400, core.CategoryFood, 4))
	if replacement.ID != 3 {
		t.Fatalf("id after deleting highest = %d, want 3", replacement.ID)
	}

	// Deleting from the middle must not cause reuse.
	if _, err := l.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete unexpected error: %v", err)
	}
	next := mustAdd(t, l, testExpense(500, core.CategoryFood, 5))
	if next.ID != 4 {
		t.Fatalf("id after deleting from middle = %d, want 4", next.ID)
	}
}

func TestGet(t *testing.T) {
	l := New(&fakeStore{}, nil)
	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))

	got, err := l.Get(stored.ID)
	if err != nil {
		t.Fatalf("Get unexpected error: %v", err)
	}
	if got.ID != stored.ID || got.Amount.Cents != 100 {
		t.Fatalf("Get returned %+v, want stored expense", got)
	}

	if _, err := l.Get(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(99) error = %v, want ErrNotFound", err)
	}
}

func TestListReturnsCopyInInsertionOrder(t *testing.T) {
	l := New(&fakeStore{}, nil)
	mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	mustAdd(t, l, testExpense(200, core.CategoryTransport, 2))

	list := l.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("List() = %+v, want ids 1, 2 in order", list)
	}

	// Without a mutation in between, a second call yields the same sequence.
	again := l.List()
	if len(again) != len(list) {
		t.Fatalf("second List() has %d entries, want %d", len(again), len(list))
	}
	for i := range list {
		if again[i] != list[i] {
			t.Fatalf("List() not idempotent at %d: %+v vs %+v", i, again[i], list[i])
		}
	}

	list[0].Description = "tampered"
	if got, _ := l.Get(1); got.Description == "tampered" {
		t.Fatal("List() exposed internal state")
	}
}

func TestUpdatePartialFields(t *testing.T) {
	l := New(&fakeStore{}, nil)
	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))

	newAmount := core.Money{Cents: 2500}
	updated, rejected, err := l.Update(context.Background(), stored.ID, Update{Amount: &newAmount})
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("expected no rejected fields, got %v", rejected)
	}
	if updated.Amount.Cents != 2500 {
		t.Fatalf("amount = %d, want 2500", updated.Amount.Cents)
	}
	if updated.Category != core.CategoryFood || updated.Date.String() != "2025-01-01" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatal("CreatedAt must never change on update")
	}
}

func TestUpdateRejectsInvalidFieldsKeepsValidOnes(t *testing.T) {
	store := &fakeStore{}
	l := New(store, nil)
	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))

	badAmount := core.Money{Cents: -5}
	newCategory := core.CategoryTransport
	updated, rejected, err := l.Update(context.Background(), stored.ID, Update{
		Amount:   &badAmount,
		Category: &newCategory,
	})
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if len(rejected) != 1 || rejected[0].Field != "amount" {
		t.Fatalf("rejected = %v, want single amount rejection", rejected)
	}
	if !errors.Is(rejected[0].Err, core.ErrInvalidAmount) {
		t.Fatalf("rejected error = %v, want ErrInvalidAmount", rejected[0].Err)
	}
	if updated.Amount.Cents != 100 {
		t.Fatalf("invalid amount applied: %d", updated.Amount.Cents)
	}
	if updated.Category != core.CategoryTransport {
		t.Fatalf("valid category not applied: %s", updated.Category)
	}
}

func TestUpdateAllFieldsRejectedSkipsSave(t *testing.T) {
	store := &fakeStore{}
	l := New(store, nil)
	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	savesAfterAdd := len(store.saves)

	badCategory := core.Category("Snacks")
	_, rejected, err := l.Update(context.Background(), stored.ID, Update{Category: &badCategory})
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if len(rejected) != 1 {
		t.Fatalf("rejected = %v, want one entry", rejected)
	}
	if len(store.saves) != savesAfterAdd {
		t.Fatal("no-op update must not persist")
	}
}

func TestUpdateNotFound(t *testing.T) {
	l := New(&fakeStore{}, nil)
	if _, _, err := l.Update(context.Background(), 42, Update{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDeletePreservesOrder(t *testing.T) {
	l := New(&fakeStore{}, nil)
	mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	second := mustAdd(t, l, testExpense(200, core.CategoryTransport, 2))
	mustAdd(t, l, testExpense(300, core.CategoryOther, 3))

	removed, err := l.Delete(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("Delete unexpected error: %v", err)
	}
	if removed.ID != 2 {
		t.Fatalf("removed id = %d, want 2", removed.ID)
	}
	list := l.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 3 {
		t.Fatalf("order after delete = %+v, want ids 1, 3", list)
	}

	if _, err := l.Delete(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete(99) error = %v, want ErrNotFound", err)
	}
}

func TestMutationStandsWhenSaveFails(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	l := New(store, nil)

	_, err := l.Add(context.Background(), testExpense(100, core.CategoryFood, 1))
	var perr *PersistError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PersistError", err)
	}
	if l.Len() != 1 {
		t.Fatalf("expense lost after failed save: len = %d", l.Len())
	}

	// Once the store recovers, Flush writes the pending snapshot.
	store.saveErr = nil
	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("Flush unexpected error: %v", err)
	}
	if len(store.saves) != 1 || len(store.saves[0]) != 1 {
		t.Fatalf("Flush did not write pending snapshot: %+v", store.saves)
	}
}

func TestNotifierReceivesEvents(t *testing.T) {
	notifier := &fakeNotifier{}
	l := New(&fakeStore{}, notifier)

	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	desc := "updated"
	if _, _, err := l.Update(context.Background(), stored.ID, Update{Description: &desc}); err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if _, err := l.Delete(context.Background(), stored.ID); err != nil {
		t.Fatalf("Delete unexpected error: %v", err)
	}

	want := []event{{"added", 1}, {"updated", 1}, {"deleted", 1}}
	if len(notifier.events) != len(want) {
		t.Fatalf("events = %v, want %v", notifier.events, want)
	}
	for i := range want {
		if notifier.events[i] != want[i] {
			t.Fatalf("events[%d] = %v, want %v", i, notifier.events[i], want[i])
		}
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("broker down")}
	l := New(&fakeStore{}, notifier)

	if _, err := l.Add(context.Background(), testExpense(100, core.CategoryFood, 1)); err != nil {
		t.Fatalf("Add must succeed despite notifier failure, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	seed := []core.Expense{
		{ID: 1, Amount: core.Money{Cents: 100}, Category: core.CategoryFood, Date: core.NewDate(2025, 1, 1)},
		{ID: 5, Amount: core.Money{Cents: 200}, Category: core.CategoryOther, Date: core.NewDate(2025, 1, 2)},
	}
	store := &fakeStore{loadResult: seed}
	l := New(store, nil)

	n, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load unexpected error: %v", err)
	}
	if n != 2 || l.Len() != 2 {
		t.Fatalf("loaded %d expenses, want 2", n)
	}

	// Next id continues from the loaded maximum.
	next := mustAdd(t, l, testExpense(300, core.CategoryFood, 3))
	if next.ID != 6 {
		t.Fatalf("id after load = %d, want 6", next.ID)
	}
}

func TestLoadFailureLeavesEmptyCollection(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("corrupt file")}
	l := New(store, nil)

	n, err := l.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 || l.Len() != 0 {
		t.Fatalf("collection not empty after failed load: %d", l.Len())
	}

	// A fresh ledger still works.
	stored := mustAdd(t, l, testExpense(100, core.CategoryFood, 1))
	if stored.ID != 1 {
		t.Fatalf("id = %d, want 1", stored.ID)
	}
}

func TestFlushWritesCurrentSnapshot(t *testing.T) {
	store := &fakeStore{}
	l := New(store, nil)
	mustAdd(t, l, testExpense(100, core.CategoryFood, 1))

	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("Flush unexpected error: %v", err)
	}
	if len(store.saves) != 2 {
		t.Fatalf("expected add save plus flush save, got %d", len(store.saves))
	}
}
