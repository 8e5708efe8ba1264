package service

import "sync"

// TicketLocks serializes mutating operations per ticket id. Operations on
// different tickets proceed fully in parallel; there is no global write lock.
type TicketLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTicketLocks creates an empty lock table.
func NewTicketLocks() *TicketLocks {
	return &TicketLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given ticket id, creating it on first use.
// The returned func releases it.
func (t *TicketLocks) Lock(ticketID string) func() {
	t.mu.Lock()
	lock, ok := t.locks[ticketID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[ticketID] = lock
	}
	t.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
