package disk

import (
	"github.com/dgraph-io/ristretto/v2"

	"pagestore/page"
	"pagestore/pageid"
)

// BlockCache is an optional, non-authoritative cache of raw page bytes
// sitting in front of a Manager, backed by ristretto (SPEC_FULL.md,
// DOMAIN STACK). It plays the same role as Badger/Dgraph's own block
// cache: a miss just costs a re-read from the wrapped Manager, so losing
// an entry to ristretto's probabilistic eviction never violates the
// buffer pool's residency or dirty-before-reuse invariants — those are
// owned entirely by buffer.Pool's page table, not by this cache.
type BlockCache struct {
	inner Manager
	cache *ristretto.Cache[int64, []byte]
}

// NewBlockCache wraps inner with a ristretto cache sized maxBytes.
func NewBlockCache(inner Manager, maxBytes int64) (*BlockCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters: maxBytes / page.Size * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &BlockCache{inner: inner, cache: cache}, nil
}

// ReadPage serves from cache on hit; on miss it reads through inner and
// admits the result.
func (b *BlockCache) ReadPage(id pageid.PageID, buf []byte) error {
	if cached, ok := b.cache.Get(int64(id)); ok {
		copy(buf, cached)
		return nil
	}

	if err := b.inner.ReadPage(id, buf); err != nil {
		return err
	}

	cp := make([]byte, len(buf))
	copy(cp, buf)
	b.cache.Set(int64(id), cp, page.Size)
	return nil
}

// WritePage writes through to inner and refreshes the cached copy.
func (b *BlockCache) WritePage(id pageid.PageID, buf []byte) error {
	if err := b.inner.WritePage(id, buf); err != nil {
		return err
	}

	cp := make([]byte, len(buf))
	copy(cp, buf)
	b.cache.Set(int64(id), cp, page.Size)
	return nil
}

// AllocatePage delegates to inner; a freshly allocated page has no
// cached bytes worth keeping yet.
func (b *BlockCache) AllocatePage() (pageid.PageID, error) {
	return b.inner.AllocatePage()
}

// DeallocatePage invalidates the cached entry before delegating, so a
// reused page id can never serve stale bytes from the cache.
func (b *BlockCache) DeallocatePage(id pageid.PageID) error {
	b.cache.Del(int64(id))
	return b.inner.DeallocatePage(id)
}

// Close waits for pending cache writes, closes the cache, then the
// wrapped manager.
func (b *BlockCache) Close() error {
	b.cache.Close()
	return b.inner.Close()
}
