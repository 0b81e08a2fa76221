// Package render tracks how many times each named view re-executed.
//
// Multiple counter instances may exist at once: an ambient counter for
// interactive use and a run-scoped counter owned by a benchmark session.
// Callers pick one counter per logical session and thread it explicitly;
// mixing attribution across counters corrupts comparability.
package render

import "sync"

// Counter is a named re-execution counter. Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Increment adds one to the named count, creating the entry if absent.
func (c *Counter) Increment(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

// Snapshot returns a point-in-time copy of all counts. Mutating the
// returned map never affects the counter.
func (c *Counter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for name, n := range c.counts {
		out[name] = n
	}
	return out
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Reset clears all entries.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
}
