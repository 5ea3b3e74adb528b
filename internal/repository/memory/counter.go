package memory

import (
	"context"
	"sync"

	"github.com/helpdesk-io/helpdesk/internal/repository"
)

// Counters is a mutex-guarded named sequence store.
type Counters struct {
	mu     sync.Mutex
	values map[string]int64
}

var _ repository.CounterRepository = (*Counters)(nil)

// NewCounters returns an empty counter store.
func NewCounters() *Counters {
	return &Counters{values: map[string]int64{}}
}

func (c *Counters) Next(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name]++
	return c.values[name], nil
}
