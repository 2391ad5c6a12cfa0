// bptreedemo exercises the buffer pool and B+ tree index end to end
// against a real file-backed disk manager: it creates (or reopens) an
// index file, inserts a batch of sample keys, looks a few up, scans
// the whole thing in order, deletes a handful, and dumps the final
// tree structure.
//
// Usage: go run ./cmd/bptreedemo <path-to-.idx>
//
// Grounded on cmd/seed's "create then inspect" shape and
// cmd/inspect_idx's argument handling, retargeted from the SQL-engine
// seed data at the spec's buffer pool + B+ tree core.
package main

import (
	"fmt"
	"os"

	"pagestore/bptree"
	"pagestore/buffer"
	"pagestore/disk"
	"pagestore/pageid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <path-to-.idx>\n", os.Args[0])
		os.Exit(1)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "bptreedemo:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	mgr, err := disk.NewFileManager(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer mgr.Close()

	header, err := disk.LoadHeaderPage(mgr)
	if err != nil {
		return fmt.Errorf("load header page: %w", err)
	}

	pool := buffer.NewPool(32, 0, 1, mgr)

	tree, err := bptree.NewTree[int64]("demo", pool, header, mgr, bptree.Int64Codec{},
		bptree.WithLeafMaxSize[int64](4),
		bptree.WithInternalMaxSize[int64](4),
	)
	if err != nil {
		return fmt.Errorf("open tree: %w", err)
	}

	fmt.Println("inserting sample keys...")
	for i := int64(1); i <= 20; i++ {
		rid := pageid.RID{PageID: pageid.PageID(1000 + i), SlotIndex: uint32(i % 8)}
		if _, err := tree.Insert(i, rid); err != nil {
			return fmt.Errorf("insert %d: %w", i, err)
		}
	}

	fmt.Println("\nlooking up a few keys:")
	for _, k := range []int64{1, 10, 20, 99} {
		rid, ok, err := tree.GetValue(k)
		if err != nil {
			return fmt.Errorf("get %d: %w", k, err)
		}
		fmt.Printf("  %d -> found=%v rid=%+v\n", k, ok, rid)
	}

	fmt.Println("\nscanning in order:")
	it, err := tree.Begin()
	if err != nil {
		return fmt.Errorf("begin scan: %w", err)
	}
	for !it.IsEnd() {
		fmt.Printf("  %d -> %+v\n", it.Key(), it.RID())
		if err := it.Next(); err != nil {
			it.Close()
			return fmt.Errorf("advance scan: %w", err)
		}
	}

	fmt.Println("\ndeleting keys 5, 6, 7, 15...")
	for _, k := range []int64{5, 6, 7, 15} {
		if err := tree.Remove(k); err != nil {
			return fmt.Errorf("remove %d: %w", k, err)
		}
	}

	fmt.Println("\nfinal tree structure:")
	if err := tree.Dump(os.Stdout); err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	return pool.FlushAllPages()
}
