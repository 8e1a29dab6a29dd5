// Package attribute keeps the per-edge quote snapshots of a topology fresh.
//
// The cache is an arena of independently locked cells indexed by edge id.
// No operation ever holds two cells' locks, and the cache offers no
// point-in-time view across edges: a reader running during a refresh pass
// can see some edges refreshed and others not.
package attribute

import (
	"sync"
	"time"

	"github.com/jonasrmichel/solana-cycles/pkg/quote"
)

// Entry is a copy of one cell's state.
type Entry struct {
	Snapshot  *quote.Snapshot // nil until the first successful refresh
	Amount    uint64          // Input amount the snapshot was quoted for
	UpdatedAt time.Time       // Completion time of the last successful refresh
}

// Fresh reports whether the entry holds a snapshot for amount no older than maxAge.
func (e Entry) Fresh(now time.Time, amount uint64, maxAge time.Duration) bool {
	return e.Snapshot != nil && e.Amount == amount && now.Sub(e.UpdatedAt) <= maxAge
}

// Cell is the mutable attribute slot of a single edge.
type Cell struct {
	mu        sync.RWMutex
	snapshot  *quote.Snapshot
	amount    uint64
	updatedAt time.Time
}

// Load returns the cell's state under its read lock.
func (c *Cell) Load() Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Entry{Snapshot: c.snapshot, Amount: c.amount, UpdatedAt: c.updatedAt}
}

// UpdatedAt returns the last refresh time under the read lock.
func (c *Cell) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Store replaces the snapshot under the write lock. The timestamp never
// moves backwards; a store stamped earlier than the current value is
// ignored and Store returns false.
func (c *Cell) Store(snap *quote.Snapshot, amount uint64, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if at.Before(c.updatedAt) {
		return false
	}
	c.snapshot = snap
	c.amount = amount
	c.updatedAt = at
	return true
}

// Cache holds one cell per edge.
type Cache struct {
	cells []*Cell
}

// NewCache allocates edgeCount cells. Every cell starts with the zero
// timestamp so the first refresh pass selects it unconditionally.
func NewCache(edgeCount int) *Cache {
	cells := make([]*Cell, edgeCount)
	for i := range cells {
		cells[i] = &Cell{}
	}
	return &Cache{cells: cells}
}

// Len returns the number of cells.
func (c *Cache) Len() int {
	return len(c.cells)
}

// Cell returns the cell of edge e.
func (c *Cache) Cell(e int) *Cell {
	return c.cells[e]
}

// Load returns a copy of edge e's state.
func (c *Cache) Load(e int) Entry {
	return c.cells[e].Load()
}

// Lookup returns edge e's snapshot if it is fresh for amount.
func (c *Cache) Lookup(e int, now time.Time, amount uint64, maxAge time.Duration) (*quote.Snapshot, bool) {
	entry := c.cells[e].Load()
	if !entry.Fresh(now, amount, maxAge) {
		return nil, false
	}
	return entry.Snapshot, true
}

// Entries copies every cell, one lock at a time.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, len(c.cells))
	for i, cell := range c.cells {
		out[i] = cell.Load()
	}
	return out
}
