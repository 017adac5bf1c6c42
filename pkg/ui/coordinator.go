package ui

import (
	"sync"
)

// Coordinator serializes access to the terminal so that a notification
// printed from a finished refresh never lands in the middle of a prompt.
type Coordinator struct {
	mu sync.Mutex
}

// NewCoordinator creates a new terminal coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Lock acquires the terminal. The returned function releases it and must be
// called exactly once. A nil Coordinator never blocks.
func (c *Coordinator) Lock() func() {
	if c == nil {
		return func() {}
	}
	c.mu.Lock()
	return c.mu.Unlock
}
