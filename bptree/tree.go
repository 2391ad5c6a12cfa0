// Package bptree implements the latch-crabbing B+ tree index of
// spec.md §4.4: internal pages route on fixed-width keys, leaf pages
// hold sorted (key, rid) pairs in a forward-linked list, and
// find/insert/remove descend while holding only the minimal set of
// page latches the is_safe predicate allows.
//
// Grounded file-for-file on the teacher's bplustree package, with one
// structural change: the teacher fuses its pager and node cache into a
// single BufferPool keyed by decoded *Node; this package instead
// overlays typed internalNode[K]/leafNode[K] views on raw
// *page.Frame.Data from a tree-agnostic buffer.Pool, and adds the
// per-page reader/writer latch spec.md §4.4/§5 require and the
// teacher's coarse tree-wide mutex does not provide.
package bptree

import (
	"fmt"
	"sync"

	"pagestore/bplog"
	"pagestore/disk"
	"pagestore/page"
	"pagestore/pageid"
)

// Pool is the subset of buffer.Pool / buffer.Parallel the tree needs.
// Both concrete types satisfy it; a Tree never knows which it has.
type Pool interface {
	FetchPage(pageid.PageID) (*page.Frame, error)
	NewPage() (*page.Frame, pageid.PageID, error)
	UnpinPage(pageid.PageID, bool) bool
	DeletePage(pageid.PageID) bool
}

const defaultMaxSize = 64

// Option configures a Tree at construction time.
type Option[K any] func(*Tree[K])

// WithLeafMaxSize sets the number of (key, rid) pairs a leaf holds
// before an insert forces a split (spec.md §3, "max_size").
func WithLeafMaxSize[K any](n int) Option[K] {
	return func(t *Tree[K]) { t.leafMaxSize = n }
}

// WithInternalMaxSize sets the number of children an internal node
// holds before an insert forces a split.
func WithInternalMaxSize[K any](n int) Option[K] {
	return func(t *Tree[K]) { t.internalMaxSize = n }
}

// WithLogger attaches a structured logger to the tree. Default is
// bplog.Nop(). The tree's split, merge and redistribute paths do not
// emit log events.
func WithLogger[K any](l bplog.Logger) Option[K] {
	return func(t *Tree[K]) { t.log = l }
}

// Tree is a named B+ tree index keyed by K, backed by a Pool and
// persisted root identity in a disk.HeaderPage (spec.md §4.4, §6).
type Tree[K any] struct {
	name  string
	pool  Pool
	codec KeyCodec[K]

	header *disk.HeaderPage
	disk   disk.Manager

	leafMaxSize     int
	internalMaxSize int

	rootLatch sync.Mutex
	rootPID   pageid.PageID

	log bplog.Logger
}

// NewTree opens (or creates, on first Insert) the named index. header
// must already be loaded via disk.LoadHeaderPage against the same
// disk.Manager backing pool.
func NewTree[K any](name string, pool Pool, header *disk.HeaderPage, d disk.Manager, codec KeyCodec[K], opts ...Option[K]) (*Tree[K], error) {
	t := &Tree[K]{
		name:            name,
		pool:            pool,
		codec:           codec,
		header:          header,
		disk:            d,
		leafMaxSize:     defaultMaxSize,
		internalMaxSize: defaultMaxSize,
		rootPID:         header.RootPageID(name),
		log:             bplog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.leafMaxSize > maxEntries(codec.Size()+pageid.RIDSize) || t.leafMaxSize < 3 {
		return nil, fmt.Errorf("%w: leaf max size %d", ErrMaxSizeTooSmall, t.leafMaxSize)
	}
	if t.internalMaxSize > maxEntries(codec.Size()+8) || t.internalMaxSize < 3 {
		return nil, fmt.Errorf("%w: internal max size %d", ErrMaxSizeTooSmall, t.internalMaxSize)
	}
	return t, nil
}

// IsEmpty reports whether the tree currently has no root, guarded only
// by root_latch — the original's IsEmpty() fast path restored by
// SPEC_FULL.md's "GetRootPageId/empty-tree fast path" supplement.
func (t *Tree[K]) IsEmpty() bool {
	t.rootLatch.Lock()
	defer t.rootLatch.Unlock()
	return t.rootPID == pageid.INVALID
}

// RootPageID returns the current root page id, or pageid.INVALID for
// an empty tree.
func (t *Tree[K]) RootPageID() pageid.PageID {
	t.rootLatch.Lock()
	defer t.rootLatch.Unlock()
	return t.rootPID
}

// latchFetch fetches and latches pid: a write latch for INSERT/DELETE,
// a read latch for FIND.
func (t *Tree[K]) latchFetch(pid pageid.PageID, write bool) (*latchedFrame, error) {
	f, err := t.pool.FetchPage(pid)
	if err != nil {
		return nil, err
	}
	if write {
		f.Latch.Lock()
	} else {
		f.Latch.RLock()
	}
	return &latchedFrame{frame: f, pid: pid, write: write}, nil
}

// release unlatches and unpins lf, propagating whatever dirty state
// accumulated on it.
func (t *Tree[K]) release(lf *latchedFrame) {
	if lf.write {
		lf.frame.Latch.Unlock()
	} else {
		lf.frame.Latch.RUnlock()
	}
	t.pool.UnpinPage(lf.pid, lf.dirty)
}

// releaseTxn releases every frame still held in tx's page set, in
// order, then empties it.
func (t *Tree[K]) releaseTxn(tx *txn) {
	for _, lf := range tx.pageSet {
		t.release(lf)
	}
	tx.pageSet = tx.pageSet[:0]
}

// drainDeleted reclaims every page tx marked for deletion. Called only
// after every latch for the operation has already been released
// (spec.md §4.4.3 step 4; SPEC_FULL.md's "Draining the deleted-page
// set" supplement mirrors the original's ordering exactly).
func (t *Tree[K]) drainDeleted(tx *txn) {
	for _, pid := range tx.deletedPageSet {
		t.pool.DeletePage(pid)
	}
	tx.deletedPageSet = nil
}

// isSafe implements the table in spec.md §4.4: a node is safe for the
// current operation mode if it cannot trigger a structural change.
func (t *Tree[K]) isSafe(lf *latchedFrame, mode Mode) bool {
	buf := lf.frame.Data[:]
	size := sizeOf(buf)
	maxSize := maxSizeOf(buf)

	switch mode {
	case ModeInsert:
		return size < maxSize-1
	case ModeDelete:
		if isRoot(buf) {
			return size > 2
		}
		minSize := maxSize / 2 // matches the split point splitLeaf/splitInternal actually produce
		return size > minSize
	default:
		return true
	}
}

// persistRoot writes the tree's current root identity through to the
// header page, inserting a fresh directory record on first creation
// and updating it on every later change (spec.md §6). Caller must hold
// rootLatch.
func (t *Tree[K]) persistRoot() error {
	if t.header.HasRecord(t.name) {
		if err := t.header.UpdateRecord(t.name, t.rootPID); err != nil {
			return err
		}
	} else {
		if err := t.header.InsertRecord(t.name, t.rootPID); err != nil {
			return err
		}
	}
	return t.header.Persist(t.disk)
}

// GetValue looks up key, returning (rid, true) if present.
func (t *Tree[K]) GetValue(key K) (pageid.RID, bool, error) {
	leaf, tx, rootHeld, err := t.findLeaf(key, ModeFind, false, false)
	if err != nil {
		if err == errEmptyTree {
			return pageid.RID{}, false, nil
		}
		return pageid.RID{}, false, err
	}
	_ = tx
	_ = rootHeld

	ln := asLeaf(t.codec, leaf.frame.Data[:])
	i := ln.LowerBound(key)
	found := i < ln.Size() && t.codec.Compare(ln.Key(i), key) == 0
	var rid pageid.RID
	if found {
		rid = ln.RID(i)
	}
	t.release(leaf)
	return rid, found, nil
}
