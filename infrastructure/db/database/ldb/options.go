package ldb

import (
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// bloomFilterBitsPerKey sizes the per-table filter used for point lookups of
// blocks, pending entries and unchecked dependencies by hash
const bloomFilterBitsPerKey = 10

// Options returns the leveldb options the ledger database is opened with.
// It's defined as a variable for the sake of testing.
var Options = func() *opt.Options {
	return &opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     256 * opt.MiB,
		WriteBuffer:            64 * opt.MiB,
		OpenFilesCacheCapacity: 512,
		Filter:                 filter.NewBloomFilter(bloomFilterBitsPerKey),
		DisableSeeksCompaction: true,
	}
}
