package storage

import (
	"context"
	"sync"

	"expenses/internal/core"
)

// Memory keeps the snapshot in process memory. It backs tests and
// throwaway sessions where nothing should touch the disk.
type Memory struct {
	mu    sync.Mutex
	items []core.Expense
}

func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Load(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

func (s *Memory) Save(_ context.Context, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Expense(nil), expenses...)
	return nil
}
