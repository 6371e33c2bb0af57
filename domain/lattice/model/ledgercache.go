package model

import "sync/atomic"

// LedgerCache holds in-memory ledger counters. It is loaded once at startup
// and kept current by the processes that mutate the ledger.
type LedgerCache struct {
	blockCount    atomic.Uint64
	cementedCount atomic.Uint64
	accountCount  atomic.Uint64
}

// NewLedgerCache returns a LedgerCache with the given initial counters
func NewLedgerCache(blockCount, cementedCount, accountCount uint64) *LedgerCache {
	cache := &LedgerCache{}
	cache.blockCount.Store(blockCount)
	cache.cementedCount.Store(cementedCount)
	cache.accountCount.Store(accountCount)
	return cache
}

// BlockCount returns the number of blocks in the ledger
func (c *LedgerCache) BlockCount() uint64 { return c.blockCount.Load() }

// CementedCount returns the number of cemented blocks in the ledger
func (c *LedgerCache) CementedCount() uint64 { return c.cementedCount.Load() }

// AccountCount returns the number of opened accounts
func (c *LedgerCache) AccountCount() uint64 { return c.accountCount.Load() }

// UncementedCount returns the number of blocks above the cementing boundary
func (c *LedgerCache) UncementedCount() uint64 {
	blocks := c.BlockCount()
	cemented := c.CementedCount()
	if cemented > blocks {
		return 0
	}
	return blocks - cemented
}

// AddBlocks adjusts the block counter by delta
func (c *LedgerCache) AddBlocks(delta int64) { add(&c.blockCount, delta) }

// AddCemented adjusts the cemented counter by delta
func (c *LedgerCache) AddCemented(delta int64) { add(&c.cementedCount, delta) }

// AddAccounts adjusts the account counter by delta
func (c *LedgerCache) AddAccounts(delta int64) { add(&c.accountCount, delta) }

func add(counter *atomic.Uint64, delta int64) {
	if delta >= 0 {
		counter.Add(uint64(delta))
		return
	}
	counter.Add(^uint64(-delta - 1))
}
