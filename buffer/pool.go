// Package buffer implements the buffer pool instance and the parallel
// (sharded) buffer pool manager that sits on top of it (spec.md §4.2,
// §4.3): a fixed array of page frames, a free list, a page table, and
// an LRU replacement policy, all mediating access to a disk.Manager.
package buffer

import (
	"errors"
	"fmt"
	"sync"

	"pagestore/bplog"
	"pagestore/disk"
	"pagestore/page"
	"pagestore/pageid"
	"pagestore/replacer"
)

// Sentinel errors, in the fredb/error.go one-per-package style.
var (
	// ErrNoFreeFrame is returned by FetchPage/NewPage when every frame is
	// pinned and the replacer has no victim to offer.
	ErrNoFreeFrame = errors.New("buffer pool: no free frame available")
	// ErrPagePinned names the case of a resident page with a positive
	// pin count. DeletePage does not return it: it reports that case by
	// returning false.
	ErrPagePinned = errors.New("buffer pool: page is pinned")
)

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithLogger attaches a structured logger for eviction, flush, and
// I/O-failure events. Default is bplog.Nop().
func WithLogger(l bplog.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// Pool is one buffer pool instance: spec.md §4.2. All public operations
// hold mu for their entire duration, including the disk I/O that some
// of them perform, matching the contract the teacher's
// storage_engine/bufferpool.BufferPool upholds (§4.2: "I/O under the
// latch is accepted").
type Pool struct {
	mu sync.Mutex

	frames    []*page.Frame
	pageTable map[pageid.PageID]pageid.FrameID
	freeList  []pageid.FrameID
	replacer  *replacer.LRU

	disk disk.Manager
	log  bplog.Logger

	instanceIndex int
	numInstances  int
	nextPageID    pageid.PageID
}

// NewPool creates a buffer pool instance of poolSize frames, backed by
// disk. instanceIndex/numInstances parameterize the page-id allocator
// (spec.md §4.2: "next_page_id, initialised to the instance's shard
// index, advancing by num_instances") — a single, unsharded pool is
// NewPool(size, 0, 1, disk).
func NewPool(poolSize int, instanceIndex, numInstances int, d disk.Manager, opts ...Option) *Pool {
	// Page id 0 is permanently reserved for the header page
	// (pageid.HeaderPageID), regardless of sharding. Shard 0 would
	// otherwise mint it as its very first allocation, so it skips
	// straight to its second slot instead; every other shard's
	// sequence is untouched.
	firstID := pageid.PageID(instanceIndex)
	if instanceIndex == 0 && numInstances > 1 {
		firstID = pageid.PageID(numInstances)
	}
	p := &Pool{
		frames:        make([]*page.Frame, poolSize),
		pageTable:     make(map[pageid.PageID]pageid.FrameID, poolSize),
		freeList:      make([]pageid.FrameID, poolSize),
		replacer:      replacer.NewLRU(poolSize),
		disk:          d,
		log:           bplog.Nop(),
		instanceIndex: instanceIndex,
		numInstances:  numInstances,
		nextPageID:    firstID,
	}
	for i := range p.frames {
		p.frames[i] = &page.Frame{PageID: pageid.INVALID}
		p.freeList[i] = pageid.FrameID(poolSize - 1 - i)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// victim picks a frame to reuse: free list first, then the replacer
// (spec.md §4.2, "Victim selection").
func (p *Pool) victim() (pageid.FrameID, bool) {
	if n := len(p.freeList); n > 0 {
		fid := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return fid, true
	}
	fid, ok := p.replacer.Victim()
	return pageid.FrameID(fid), ok
}

// evict prepares frame fid for reuse: flushing it if dirty and removing
// its old page-table entry. Caller must hold mu.
func (p *Pool) evict(fid pageid.FrameID) error {
	f := p.frames[fid]
	if f.PageID == pageid.INVALID {
		return nil
	}
	if f.IsDirty {
		if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
			return fmt.Errorf("buffer pool: flush victim page %d: %w", f.PageID, err)
		}
		p.log.Info("buffer pool flushed victim", "page_id", f.PageID, "frame_id", fid)
	}
	delete(p.pageTable, f.PageID)
	return nil
}

// FetchPage returns the frame holding pid, pinning it, reading it from
// disk if it is not already resident (spec.md §4.2). Callers must call
// UnpinPage exactly once per successful FetchPage.
func (p *Pool) FetchPage(pid pageid.PageID) (*page.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable[pid]; ok {
		f := p.frames[fid]
		f.PinCount++
		p.replacer.Pin(int32(fid))
		return f, nil
	}

	fid, ok := p.victim()
	if !ok {
		return nil, ErrNoFreeFrame
	}
	if err := p.evict(fid); err != nil {
		return nil, err
	}

	f := p.frames[fid]
	f.Reset()
	f.PageID = pid
	p.pageTable[pid] = fid
	if err := p.disk.ReadPage(pid, f.Data[:]); err != nil {
		// Reading failed: leave the frame unbound rather than stuck
		// claiming a page id whose bytes never arrived.
		delete(p.pageTable, pid)
		f.Reset()
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("buffer pool: read page %d: %w", pid, err)
	}
	f.PinCount = 1
	f.IsDirty = false
	p.replacer.Pin(int32(fid))
	return f, nil
}

// NewPage allocates a fresh page id on this instance's shard, binds it
// to a victim frame, and returns the pinned, zeroed frame (spec.md
// §4.2). The caller owns writing its initial contents.
func (p *Pool) NewPage() (*page.Frame, pageid.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.victim()
	if !ok {
		return nil, pageid.INVALID, ErrNoFreeFrame
	}
	if err := p.evict(fid); err != nil {
		return nil, pageid.INVALID, err
	}

	pid, err := p.allocatePageID()
	if err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, pageid.INVALID, err
	}

	f := p.frames[fid]
	f.Reset()
	f.PageID = pid
	f.PinCount = 1
	f.IsDirty = false
	p.pageTable[pid] = fid
	p.replacer.Pin(int32(fid))
	return f, pid, nil
}

// allocatePageID mints the next page id this instance owns. A
// standalone pool (numInstances == 1) simply delegates to the disk
// manager's own counter. A sharded instance is itself the allocator
// (spec.md §4.2: "next_page_id, initialised to the instance's shard
// index, advancing by num_instances") and materializes the page
// directly with a zeroed WritePage, since the shared disk manager's own
// counter knows nothing about per-shard numbering.
func (p *Pool) allocatePageID() (pageid.PageID, error) {
	if p.numInstances <= 1 {
		id, err := p.disk.AllocatePage()
		if err != nil {
			return pageid.INVALID, fmt.Errorf("buffer pool: allocate page: %w", err)
		}
		return id, nil
	}

	id := p.nextPageID
	p.nextPageID += pageid.PageID(p.numInstances)
	var zero [page.Size]byte
	if err := p.disk.WritePage(id, zero[:]); err != nil {
		return pageid.INVALID, fmt.Errorf("buffer pool: materialize page %d: %w", id, err)
	}
	return id, nil
}

// UnpinPage decrements pid's pin count, returning false if pid is not
// resident or is already unpinned (spec.md §4.2). dirty only ever sets
// the dirty bit; it is never cleared here.
func (p *Pool) UnpinPage(pid pageid.PageID, dirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pid]
	if !ok {
		return false
	}
	f := p.frames[fid]
	if f.PinCount == 0 {
		return false
	}
	f.PinCount--
	if dirty {
		f.IsDirty = true
	}
	if f.PinCount == 0 {
		p.replacer.Unpin(int32(fid))
	}
	return true
}

// FlushPage writes pid to disk unconditionally (ignoring the dirty bit,
// per the source behaviour spec.md §9(a) calls out) and clears it.
// Pin state is untouched.
func (p *Pool) FlushPage(pid pageid.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pid == pageid.INVALID {
		return false
	}
	fid, ok := p.pageTable[pid]
	if !ok {
		return false
	}
	f := p.frames[fid]
	if err := p.disk.WritePage(pid, f.Data[:]); err != nil {
		p.log.Error("buffer pool flush failed", "page_id", pid, "err", err)
		return false
	}
	f.IsDirty = false
	return true
}

// FlushAllPages writes every resident dirty page to disk and clears
// its dirty bit.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for pid, fid := range p.pageTable {
		f := p.frames[fid]
		if !f.IsDirty {
			continue
		}
		if err := p.disk.WritePage(pid, f.Data[:]); err != nil {
			return fmt.Errorf("buffer pool: flush all, page %d: %w", pid, err)
		}
		f.IsDirty = false
	}
	return nil
}

// DeletePage reclaims pid's frame: vacuously true if pid is not
// resident, false if it is pinned, otherwise it flushes the frame if
// dirty, deallocates pid on disk, resets the frame, and returns it to
// the free list (spec.md §4.2).
func (p *Pool) DeletePage(pid pageid.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pid]
	if !ok {
		return true
	}
	f := p.frames[fid]
	if f.PinCount > 0 {
		return false
	}

	if f.IsDirty {
		if err := p.disk.WritePage(pid, f.Data[:]); err != nil {
			p.log.Error("buffer pool delete page flush failed", "page_id", pid, "err", err)
			return false
		}
	}

	if err := p.disk.DeallocatePage(pid); err != nil {
		p.log.Error("buffer pool delete page failed", "page_id", pid, "err", err)
		return false
	}
	p.replacer.Pin(int32(fid)) // no-op if absent, defensive
	delete(p.pageTable, pid)
	f.Reset()
	p.freeList = append(p.freeList, fid)
	return true
}

// InstanceIndex reports this pool's shard index within its parallel
// buffer pool, or 0 for a standalone pool.
func (p *Pool) InstanceIndex() int { return p.instanceIndex }

// OwnsShard reports whether pid belongs to this instance's shard under
// a numInstances-way id%numInstances partition (spec.md §4.3).
func (p *Pool) OwnsShard(pid pageid.PageID) bool {
	if p.numInstances <= 1 {
		return true
	}
	return int(pid)%p.numInstances == p.instanceIndex
}
