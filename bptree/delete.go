package bptree

import "pagestore/pageid"

// Remove deletes key if present; a no-op (and no error) if it is
// absent (spec.md §4.4.3).
func (t *Tree[K]) Remove(key K) error {
	leaf, tx, rootHeld, err := t.findLeaf(key, ModeDelete, false, false)
	if err != nil {
		if err == errEmptyTree {
			return nil
		}
		return err
	}

	ln := asLeaf(t.codec, leaf.frame.Data[:])
	i := ln.LowerBound(key)
	if i >= ln.Size() || t.codec.Compare(ln.Key(i), key) != 0 {
		t.release(leaf)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	ln.RemoveAt(i)
	leaf.dirty = true

	if err := t.coalesceOrRedistribute(leaf, tx, rootHeld); err != nil {
		return err
	}
	// Deleted pages are only reclaimed once every latch for this
	// operation has been released (spec.md §4.4.3 step 4;
	// SPEC_FULL.md's "Draining the deleted-page set" supplement).
	t.drainDeleted(tx)
	return nil
}

// coalesceOrRedistribute implements spec.md §4.4.3 step 3. nodeLF is
// always released by the time this returns, directly or via recursion.
func (t *Tree[K]) coalesceOrRedistribute(nodeLF *latchedFrame, tx *txn, rootHeld bool) error {
	buf := nodeLF.frame.Data[:]

	if isRoot(buf) {
		return t.adjustRoot(nodeLF, tx, rootHeld)
	}

	maxSize := maxSizeOf(buf)
	minSize := maxSize / 2 // matches the split point splitLeaf/splitInternal actually produce
	if sizeOf(buf) >= minSize {
		t.release(nodeLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	n := len(tx.pageSet)
	parentLF := tx.pageSet[n-1]
	tx.pageSet = tx.pageSet[:n-1]

	pn := asInternal(t.codec, parentLF.frame.Data[:])
	nodeIdx := pn.IndexOfChild(nodeLF.pid)

	var siblingIdx int
	siblingIsLeft := nodeIdx != 0
	if siblingIsLeft {
		siblingIdx = nodeIdx - 1
	} else {
		siblingIdx = 1
	}
	siblingPID := pn.Child(siblingIdx)

	siblingLF, err := t.latchFetch(siblingPID, true)
	if err != nil {
		t.release(nodeLF)
		t.release(parentLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return err
	}

	combined := sizeOf(buf) + sizeOf(siblingLF.frame.Data[:])
	if combined >= maxSize {
		t.redistribute(nodeLF, siblingLF, parentLF, nodeIdx, siblingIdx, siblingIsLeft)
		nodeLF.dirty, siblingLF.dirty, parentLF.dirty = true, true, true
		t.release(nodeLF)
		t.release(siblingLF)
		t.release(parentLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	removedPID, err := t.coalesce(nodeLF, siblingLF, parentLF, nodeIdx, siblingIdx, siblingIsLeft)
	if err != nil {
		t.release(nodeLF)
		t.release(siblingLF)
		t.release(parentLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return err
	}
	tx.markDeleted(removedPID)
	t.release(nodeLF)
	t.release(siblingLF)

	return t.coalesceOrRedistribute(parentLF, tx, rootHeld)
}

// redistribute moves one entry across the parent separator between
// node and sibling (spec.md §4.4.3, "Redistribute").
func (t *Tree[K]) redistribute(nodeLF, siblingLF, parentLF *latchedFrame, nodeIdx, siblingIdx int, siblingIsLeft bool) {
	pn := asInternal(t.codec, parentLF.frame.Data[:])

	if kindOf(nodeLF.frame.Data[:]) == kindLeaf {
		node := asLeaf(t.codec, nodeLF.frame.Data[:])
		sib := asLeaf(t.codec, siblingLF.frame.Data[:])

		if !siblingIsLeft {
			k, r := sib.Key(0), sib.RID(0)
			node.InsertAt(node.Size(), k, r)
			sib.RemoveAt(0)
			pn.SetKey(siblingIdx, sib.Key(0))
		} else {
			last := sib.Size() - 1
			k, r := sib.Key(last), sib.RID(last)
			node.InsertAt(0, k, r)
			sib.RemoveAt(last)
			pn.SetKey(nodeIdx, node.Key(0))
		}
		return
	}

	node := asInternal(t.codec, nodeLF.frame.Data[:])
	sib := asInternal(t.codec, siblingLF.frame.Data[:])

	if !siblingIsLeft {
		movedChild := sib.Child(0)
		sepDown := pn.Key(siblingIdx)
		newSep := sib.Key(1)
		node.InsertAt(node.Size(), sepDown, movedChild)
		sib.RemoveAt(0)
		pn.SetKey(siblingIdx, newSep)
		_ = t.reparentPage(movedChild, node.SelfID())
	} else {
		last := sib.Size() - 1
		movedChild := sib.Child(last)
		sepDown := pn.Key(nodeIdx)
		newSep := sib.Key(last)
		var zero K
		node.InsertAt(0, zero, movedChild)
		node.SetKey(1, sepDown)
		sib.RemoveAt(last)
		pn.SetKey(nodeIdx, newSep)
		_ = t.reparentPage(movedChild, node.SelfID())
	}
}

// coalesce merges the right-hand participant of (node, sibling) into
// the left-hand one, pulling the parent separator down for internal
// nodes and fixing the leaf forward link for leaves (spec.md §4.4.3,
// "Coalesce"). It returns the emptied page id for the caller to mark
// deleted.
func (t *Tree[K]) coalesce(nodeLF, siblingLF, parentLF *latchedFrame, nodeIdx, siblingIdx int, siblingIsLeft bool) (pageid.PageID, error) {
	var leftLF, rightLF *latchedFrame
	var rightIdx int
	if siblingIsLeft {
		leftLF, rightLF = siblingLF, nodeLF
		rightIdx = nodeIdx
	} else {
		leftLF, rightLF = nodeLF, siblingLF
		rightIdx = siblingIdx
	}

	pn := asInternal(t.codec, parentLF.frame.Data[:])

	if kindOf(leftLF.frame.Data[:]) == kindLeaf {
		left := asLeaf(t.codec, leftLF.frame.Data[:])
		right := asLeaf(t.codec, rightLF.frame.Data[:])
		left.AppendRange(right, 0, right.Size())
		left.SetNextPageID(right.NextPageID())
	} else {
		left := asInternal(t.codec, leftLF.frame.Data[:])
		right := asInternal(t.codec, rightLF.frame.Data[:])
		sepDown := pn.Key(rightIdx)
		pos := left.Size()
		left.InsertAt(pos, sepDown, right.Child(0))
		left.AppendRange(right, 1, right.Size()-1)
		for i := pos; i < left.Size(); i++ {
			if err := t.reparentPage(left.Child(i), left.SelfID()); err != nil {
				return pageid.INVALID, err
			}
		}
	}

	pn.RemoveAt(rightIdx)
	leftLF.dirty = true
	parentLF.dirty = true

	return rightLF.pid, nil
}

// adjustRoot handles coalesce_or_redistribute's root case: an internal
// root with exactly one child is collapsed to that child; an empty leaf
// root clears the tree entirely (spec.md §4.4.3).
func (t *Tree[K]) adjustRoot(nodeLF *latchedFrame, tx *txn, rootHeld bool) error {
	buf := nodeLF.frame.Data[:]

	if kindOf(buf) == kindInternal {
		in := asInternal(t.codec, buf)
		if in.Size() == 1 {
			newRootPID := in.Child(0)
			if err := t.reparentPage(newRootPID, pageid.INVALID); err != nil {
				t.release(nodeLF)
				t.releaseTxn(tx)
				if rootHeld {
					t.rootLatch.Unlock()
				}
				return err
			}
			oldRootPID := nodeLF.pid
			t.rootPID = newRootPID
			if err := t.persistRoot(); err != nil {
				t.release(nodeLF)
				t.releaseTxn(tx)
				if rootHeld {
					t.rootLatch.Unlock()
				}
				return err
			}
			t.release(nodeLF)
			tx.markDeleted(oldRootPID)
			t.releaseTxn(tx)
			if rootHeld {
				t.rootLatch.Unlock()
			}
			return nil
		}
		t.release(nodeLF)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	ln := asLeaf(t.codec, buf)
	if ln.Size() == 0 {
		oldRootPID := nodeLF.pid
		t.rootPID = pageid.INVALID
		if err := t.persistRoot(); err != nil {
			t.release(nodeLF)
			t.releaseTxn(tx)
			if rootHeld {
				t.rootLatch.Unlock()
			}
			return err
		}
		t.release(nodeLF)
		tx.markDeleted(oldRootPID)
		t.releaseTxn(tx)
		if rootHeld {
			t.rootLatch.Unlock()
		}
		return nil
	}

	t.release(nodeLF)
	t.releaseTxn(tx)
	if rootHeld {
		t.rootLatch.Unlock()
	}
	return nil
}
