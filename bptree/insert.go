package bptree

import (
	"fmt"

	"pagestore/pageid"
)

// Insert adds (key, rid), returning false without changing state if
// key is already present (spec.md §4.4.2).
func (t *Tree[K]) Insert(key K, rid pageid.RID) (bool, error) {
	for {
		t.rootLatch.Lock()
		if t.rootPID == pageid.INVALID {
			err := t.startNewTreeLocked(key, rid)
			t.rootLatch.Unlock()
			if err != nil {
				return false, err
			}
			return true, nil
		}
		t.rootLatch.Unlock()

		ok, err := t.insertIntoLeaf(key, rid)
		if err == errEmptyTree {
			// Lost a race with a concurrent Remove that emptied the tree
			// between our check above and findLeaf's own root_latch
			// acquisition; retry as a fresh start_new_tree.
			continue
		}
		return ok, err
	}
}

// startNewTreeLocked creates a single-leaf tree. Caller holds
// root_latch for the duration (spec.md §4.4.2, "if the tree is empty").
func (t *Tree[K]) startNewTreeLocked(key K, rid pageid.RID) error {
	f, pid, err := t.pool.NewPage()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfFrames, err)
	}
	leaf := initLeaf(f.Data[:], t.codec, t.leafMaxSize, pid, pageid.INVALID)
	leaf.InsertAt(0, key, rid)
	t.pool.UnpinPage(pid, true)

	t.rootPID = pid
	return t.persistRoot()
}

// insertIntoLeaf implements spec.md §4.4.2's insert_into_leaf.
func (t *Tree[K]) insertIntoLeaf(key K, rid pageid.RID) (bool, error) {
	leaf, tx, rootHeld, err := t.findLeaf(key, ModeInsert, false, false)
	if err != nil {
		return false, err
	}

	ln := asLeaf(t.codec, leaf.frame.Data[:])
	i := ln.LowerBound(key)
	if i < ln.Size() && t.codec.Compare(ln.Key(i), key) == 0 {
		t.release(leaf)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return false, nil
	}

	ln.InsertAt(i, key, rid)
	leaf.dirty = true

	if ln.Size() < ln.MaxSize() {
		t.release(leaf)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return true, nil
	}

	if err := t.splitLeaf(leaf, ln, tx, rootHeld); err != nil {
		return false, err
	}
	return true, nil
}

// splitLeaf splits an overflowing leaf and propagates the new
// separator to the parent (spec.md §4.4.2). The left half keeps
// floor(size/2) entries, the right half gets the remainder — the same
// split point the original's MoveHalfTo uses (start index
// GetMinSize() == max/2), which is why min_size is defined as
// floor(max/2) rather than ceil(max/2) throughout this package: that
// is the bound a floor split can actually always satisfy on both
// sides, for any max size, odd or even.
func (t *Tree[K]) splitLeaf(oldLF *latchedFrame, old leafNode[K], tx *txn, rootHeld bool) error {
	newFrame, newPID, err := t.pool.NewPage()
	if err != nil {
		t.release(oldLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return fmt.Errorf("%w: %v", ErrOutOfFrames, err)
	}
	newFrame.Latch.Lock()
	newLeaf := initLeaf(newFrame.Data[:], t.codec, old.MaxSize(), newPID, old.ParentID())

	size := old.Size()
	splitPoint := size / 2
	newLeaf.AppendRange(old, splitPoint, size-splitPoint)
	old.Truncate(splitPoint)

	newLeaf.SetNextPageID(old.NextPageID())
	old.SetNextPageID(newPID)
	oldLF.dirty = true

	splitKey := newLeaf.Key(0)

	newFrame.Latch.Unlock()
	t.pool.UnpinPage(newPID, true)

	return t.insertIntoParent(oldLF, old.SelfID(), splitKey, newPID, tx, rootHeld)
}

// insertIntoParent inserts (sepKey, rightID) immediately after leftID
// in leftID's parent, splitting the parent and recursing upward if it
// overflows (spec.md §4.4.2). childLF is leftID's own frame, already
// updated by the caller; this call releases it along with every latch
// still retained for the operation.
func (t *Tree[K]) insertIntoParent(childLF *latchedFrame, leftID pageid.PageID, sepKey K, rightID pageid.PageID, tx *txn, rootHeld bool) error {
	parentPID := parentIDOf(childLF.frame.Data[:])

	if parentPID == pageid.INVALID {
		newFrame, newRootPID, err := t.pool.NewPage()
		if err != nil {
			t.release(childLF)
			t.releaseTxn(tx)
			if rootHeld {
				t.rootLatch.Unlock()
			}
			return fmt.Errorf("%w: %v", ErrOutOfFrames, err)
		}
		newFrame.Latch.Lock()
		root := initInternal(newFrame.Data[:], t.codec, t.internalMaxSize, newRootPID, pageid.INVALID)
		root.setSize(2)
		root.SetChild(0, leftID)
		root.SetKey(1, sepKey)
		root.SetChild(1, rightID)
		newFrame.Latch.Unlock()
		t.pool.UnpinPage(newRootPID, true)

		setParentIDOf(childLF.frame.Data[:], newRootPID)
		childLF.dirty = true
		if err := t.reparentPage(rightID, newRootPID); err != nil {
			t.release(childLF)
			t.releaseTxn(tx)
			if rootHeld {
				t.rootLatch.Unlock()
			}
			return err
		}

		t.rootPID = newRootPID
		if err := t.persistRoot(); err != nil {
			t.release(childLF)
			t.releaseTxn(tx)
			if rootHeld {
				t.rootLatch.Unlock()
			}
			return err
		}

		t.release(childLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	t.release(childLF)

	n := len(tx.pageSet)
	parentLF := tx.pageSet[n-1]
	tx.pageSet = tx.pageSet[:n-1]

	pn := asInternal(t.codec, parentLF.frame.Data[:])
	idx := pn.IndexOfChild(leftID)
	pn.InsertAt(idx+1, sepKey, rightID)
	parentLF.dirty = true

	if pn.Size() < pn.MaxSize() {
		t.release(parentLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	return t.splitInternal(parentLF, pn, tx, rootHeld)
}

// splitInternal splits an overflowing internal node and recurses into
// insertIntoParent with the promoted separator (spec.md §4.4.2,
// "Numerical conventions").
func (t *Tree[K]) splitInternal(parentLF *latchedFrame, pn internalNode[K], tx *txn, rootHeld bool) error {
	newFrame, newPID, err := t.pool.NewPage()
	if err != nil {
		t.release(parentLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return fmt.Errorf("%w: %v", ErrOutOfFrames, err)
	}
	newFrame.Latch.Lock()
	right := initInternal(newFrame.Data[:], t.codec, pn.MaxSize(), newPID, pn.ParentID())

	size := pn.Size()
	mid := size / 2
	promote := pn.Key(mid)

	right.AppendRange(pn, mid, size-mid)
	pn.Truncate(mid)
	parentLF.dirty = true

	for i := 0; i < right.Size(); i++ {
		if err := t.reparentPage(right.Child(i), newPID); err != nil {
			newFrame.Latch.Unlock()
			t.pool.UnpinPage(newPID, true)
			t.release(parentLF)
			t.releaseTxn(tx)
			if rootHeld {
				t.rootLatch.Unlock()
			}
			return err
		}
	}

	newFrame.Latch.Unlock()
	t.pool.UnpinPage(newPID, true)

	return t.insertIntoParent(parentLF, pn.SelfID(), promote, newPID, tx, rootHeld)
}

// reparentPage fetches pid outside the current crabbing chain just to
// update its parent pointer — used when a split moves a child from one
// internal node to another (spec.md §4.4.2, "reparents the moved
// child").
func (t *Tree[K]) reparentPage(pid pageid.PageID, newParent pageid.PageID) error {
	f, err := t.pool.FetchPage(pid)
	if err != nil {
		return fmt.Errorf("bptree: reparent page %d: %w", pid, err)
	}
	f.Latch.Lock()
	setParentIDOf(f.Data[:], newParent)
	f.Latch.Unlock()
	t.pool.UnpinPage(pid, true)
	return nil
}
