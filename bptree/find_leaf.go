package bptree

import "pagestore/pageid"

// findLeaf descends with latch-crabbing (spec.md §4.4.1). leftmost
// (used by Begin()) descends to the first leaf and rightmost to the last
// leaf instead of a key lookup; both false means "look up key".
//
// On success it returns the leaf frame (write-latched for
// INSERT/DELETE, read-latched for FIND), the txn holding whatever
// ancestor latches are still retained, and whether root_latch is still
// held by the caller. The caller owns releasing the leaf and, for
// INSERT/DELETE, the rest of tx.
func (t *Tree[K]) findLeaf(key K, mode Mode, leftmost, rightmost bool) (leaf *latchedFrame, tx *txn, rootHeld bool, err error) {
	tx = newTxn()

	t.rootLatch.Lock()
	if t.rootPID == pageid.INVALID {
		t.rootLatch.Unlock()
		return nil, tx, false, errEmptyTree
	}

	cur, err := t.latchFetch(t.rootPID, mode != ModeFind)
	if err != nil {
		t.rootLatch.Unlock()
		return nil, tx, false, err
	}

	rootHeld = true
	if mode == ModeFind || t.isSafe(cur, mode) {
		t.rootLatch.Unlock()
		rootHeld = false
	}

	for {
		if kindOf(cur.frame.Data[:]) == kindLeaf {
			return cur, tx, rootHeld, nil
		}

		in := asInternal(t.codec, cur.frame.Data[:])
		var childPID pageid.PageID
		switch {
		case leftmost:
			childPID = in.Child(0)
		case rightmost:
			childPID = in.Child(in.Size() - 1)
		default:
			childPID = in.Lookup(key)
		}

		child, cerr := t.latchFetch(childPID, mode != ModeFind)
		if cerr != nil {
			if rootHeld {
				t.rootLatch.Unlock()
			}
			t.release(cur)
			t.releaseTxn(tx)
			return nil, tx, false, cerr
		}

		if mode == ModeFind {
			t.release(cur)
		} else {
			tx.push(cur)
			if t.isSafe(child, mode) {
				if rootHeld {
					t.rootLatch.Unlock()
					rootHeld = false
				}
				t.releaseTxn(tx)
			}
		}
		cur = child
	}
}
