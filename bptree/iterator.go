package bptree

import "pagestore/pageid"

// Iterator walks a tree's leaves in key order over the forward-linked
// list described in spec.md §4.4.4. It holds a read latch on exactly
// one leaf at a time; callers must call Close if they stop iterating
// before IsEnd.
type Iterator[K any] struct {
	tree *Tree[K]
	leaf *latchedFrame
	idx  int
	done bool
}

// Begin returns an iterator positioned at the tree's first entry.
func (t *Tree[K]) Begin() (*Iterator[K], error) {
	var zero K
	leaf, tx, rootHeld, err := t.findLeaf(zero, ModeFind, true, false)
	t.releaseTxn(tx)
	if rootHeld {
		t.rootLatch.Unlock()
	}
	if err != nil {
		if err == errEmptyTree {
			return &Iterator[K]{tree: t, done: true}, nil
		}
		return nil, err
	}
	it := &Iterator[K]{tree: t, leaf: leaf, idx: 0}
	if err := it.skipToNextLeafIfExhausted(); err != nil {
		return nil, err
	}
	return it, nil
}

// BeginAt returns an iterator positioned at the first entry with key
// >= k.
func (t *Tree[K]) BeginAt(k K) (*Iterator[K], error) {
	leaf, tx, rootHeld, err := t.findLeaf(k, ModeFind, false, false)
	t.releaseTxn(tx)
	if rootHeld {
		t.rootLatch.Unlock()
	}
	if err != nil {
		if err == errEmptyTree {
			return &Iterator[K]{tree: t, done: true}, nil
		}
		return nil, err
	}
	ln := asLeaf(t.codec, leaf.frame.Data[:])
	idx := ln.LowerBound(k)
	it := &Iterator[K]{tree: t, leaf: leaf, idx: idx}
	if err := it.skipToNextLeafIfExhausted(); err != nil {
		return nil, err
	}
	return it, nil
}

// IsEnd reports whether the iterator has exhausted the tree.
func (it *Iterator[K]) IsEnd() bool { return it.done }

// Key returns the current entry's key. Undefined at end.
func (it *Iterator[K]) Key() K {
	ln := asLeaf(it.tree.codec, it.leaf.frame.Data[:])
	return ln.Key(it.idx)
}

// RID returns the current entry's rid. Undefined at end.
func (it *Iterator[K]) RID() pageid.RID {
	ln := asLeaf(it.tree.codec, it.leaf.frame.Data[:])
	return ln.RID(it.idx)
}

// Next advances to the following entry, crossing leaf boundaries via
// next_page_id and releasing the exhausted leaf as it goes.
func (it *Iterator[K]) Next() error {
	if it.done {
		return nil
	}
	it.idx++
	return it.skipToNextLeafIfExhausted()
}

func (it *Iterator[K]) skipToNextLeafIfExhausted() error {
	for {
		ln := asLeaf(it.tree.codec, it.leaf.frame.Data[:])
		if it.idx < ln.Size() {
			return nil
		}
		nextPID := ln.NextPageID()
		it.tree.release(it.leaf)
		it.leaf = nil
		if nextPID == pageid.INVALID {
			it.done = true
			return nil
		}
		lf, err := it.tree.latchFetch(nextPID, false)
		if err != nil {
			it.done = true
			return err
		}
		it.leaf = lf
		it.idx = 0
	}
}

// Close releases the iterator's held leaf latch, if any. Safe to call
// more than once or after IsEnd.
func (it *Iterator[K]) Close() {
	if it.leaf != nil {
		it.tree.release(it.leaf)
		it.leaf = nil
	}
	it.done = true
}
