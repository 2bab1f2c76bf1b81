package numbering

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCounter keeps counters in process memory. Used by tests and the CLI;
// values do not survive a restart.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[uuid.UUID]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[uuid.UUID]int64)}
}

func (c *MemoryCounter) Next(_ context.Context, companyID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[companyID]++
	return c.values[companyID], nil
}
