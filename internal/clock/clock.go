// Package clock provides the process-wide "current time" cell shared by all
// request handlers. By default it reports the wall clock in UTC; an override
// can be installed to pin time for tests or replays.
package clock

import (
	"sync"
	"time"
)

// Clock is safe for concurrent use. The zero value reads the wall clock.
type Clock struct {
	mu       sync.RWMutex
	override *time.Time
}

// New returns a Clock with no override.
func New() *Clock { return &Clock{} }

// Now returns the override when set, else time.Now, always in UTC.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override != nil {
		return *c.override
	}
	return time.Now().UTC()
}

// Set pins Now to t.
func (c *Clock) Set(t time.Time) {
	t = t.UTC()
	c.mu.Lock()
	c.override = &t
	c.mu.Unlock()
}

// Reset removes any override.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.override = nil
	c.mu.Unlock()
}

// Overridden reports whether an override is installed.
func (c *Clock) Overridden() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.override != nil
}
