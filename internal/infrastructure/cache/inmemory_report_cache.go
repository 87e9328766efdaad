package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
)

type statementEntry struct {
	statement *finance.IncomeStatement
	expiresAt time.Time
}

// InMemoryReportCache keeps income statements in process memory.
// Suitable for single-instance deployments and the CLI.
type InMemoryReportCache struct {
	mu      sync.RWMutex
	entries map[string]statementEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryReportCache creates an empty cache; ttl <= 0 keeps entries
// until the next invalidation.
func NewInMemoryReportCache(ttl time.Duration) *InMemoryReportCache {
	return &InMemoryReportCache{
		entries: make(map[string]statementEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func statementKey(start, end string) string {
	return start + ":" + end
}

// Get returns the cached statement for [start, end]
func (c *InMemoryReportCache) Get(_ context.Context, start, end string) (*finance.IncomeStatement, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[statementKey(start, end)]
	if !ok || (!e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)) {
		return nil, false, nil
	}
	return e.statement, true, nil
}

// Set stores the statement
func (c *InMemoryReportCache) Set(_ context.Context, start, end string, stmt *finance.IncomeStatement) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := statementEntry{statement: stmt}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[statementKey(start, end)] = e
	return nil
}

// Invalidate drops every entry
func (c *InMemoryReportCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]statementEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *InMemoryReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ finance.IncomeStatementCache = (*InMemoryReportCache)(nil)
