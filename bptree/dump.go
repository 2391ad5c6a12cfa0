package bptree

import (
	"fmt"
	"io"

	"pagestore/pageid"
)

// Dump writes a human-readable, level-by-level BFS traversal of the tree
// to w: node kind and size, child page ids for internal nodes, and
// key -> rid pairs for leaves.
// Grounded on the teacher's bplustree.InspectIndexFileTo, generalized
// from a one-shot file-opening tool into a method any Tree can call
// (debugging only; it takes no latches beyond a plain FetchPage/Unpin
// per visited page, so it is not safe to run concurrently with writers).
func (t *Tree[K]) Dump(w io.Writer) error {
	root := t.RootPageID()
	fmt.Fprintf(w, "index %q: root page id = %d\n", t.name, root)
	if root == pageid.INVALID {
		fmt.Fprintln(w, "  (empty tree)")
		return nil
	}

	queue := []pageid.PageID{root}
	level := 0
	for len(queue) > 0 {
		fmt.Fprintf(w, "level %d:\n", level)
		var next []pageid.PageID
		for _, pid := range queue {
			f, err := t.pool.FetchPage(pid)
			if err != nil {
				fmt.Fprintf(w, "  [page %d] read error: %v\n", pid, err)
				continue
			}
			buf := f.Data[:]

			if kindOf(buf) == kindLeaf {
				ln := asLeaf(t.codec, buf)
				fmt.Fprintf(w, "  [page %d] LEAF size=%d next=%d\n", pid, ln.Size(), ln.NextPageID())
				for i := 0; i < ln.Size(); i++ {
					fmt.Fprintf(w, "    %v -> %+v\n", ln.Key(i), ln.RID(i))
				}
			} else {
				in := asInternal(t.codec, buf)
				fmt.Fprintf(w, "  [page %d] INTERNAL size=%d children=", pid, in.Size())
				for i := 0; i < in.Size(); i++ {
					if i > 0 {
						fmt.Fprint(w, ",")
					}
					fmt.Fprintf(w, "%d", in.Child(i))
					next = append(next, in.Child(i))
				}
				fmt.Fprintln(w)
			}
			t.pool.UnpinPage(pid, false)
		}
		queue = next
		level++
	}
	return nil
}
