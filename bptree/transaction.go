package bptree

import (
	"pagestore/page"
	"pagestore/pageid"
)

// Mode is the operation mode evaluated by the is_safe predicate that
// drives latch-crabbing (spec.md §4.4).
type Mode int

const (
	ModeFind Mode = iota
	ModeInsert
	ModeDelete
)

// latchedFrame pairs a fetched, pinned frame with the latch mode it was
// acquired under, so releasing it later is a single self-contained
// call. dirty accumulates across mutations to the frame until release.
type latchedFrame struct {
	frame *page.Frame
	pid   pageid.PageID
	write bool
	dirty bool
}

// txn is the transaction token threaded through one tree operation: the
// ordered set of ancestor frames still write-latched (spec.md §6,
// "page_set") and the set of page ids to reclaim once every latch in
// the operation has been released (spec.md §6, "deleted_page_set").
// Grounded on the original's Transaction object, narrowed to the two
// fields the tree itself consumes.
type txn struct {
	pageSet        []*latchedFrame
	deletedPageSet []pageid.PageID
}

func newTxn() *txn { return &txn{} }

func (t *txn) push(lf *latchedFrame) { t.pageSet = append(t.pageSet, lf) }

func (t *txn) markDeleted(pid pageid.PageID) { t.deletedPageSet = append(t.deletedPageSet, pid) }
