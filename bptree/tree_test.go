package bptree

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"

	"pagestore/buffer"
	"pagestore/disk"
	"pagestore/pageid"
)

func newTestTree(t *testing.T, leafMax, internalMax int) *Tree[int64] {
	t.Helper()
	mgr := disk.NewMemManager()
	t.Cleanup(func() { mgr.Close() })

	header, err := disk.LoadHeaderPage(mgr)
	if err != nil {
		t.Fatalf("LoadHeaderPage: %v", err)
	}

	pool := buffer.NewPool(64, 0, 1, mgr)
	tree, err := NewTree[int64]("t", pool, header, mgr, Int64Codec{},
		WithLeafMaxSize[int64](leafMax),
		WithInternalMaxSize[int64](internalMax),
	)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func ridFor(k int64) pageid.RID {
	return pageid.RID{PageID: pageid.PageID(k), SlotIndex: uint32(k % 7)}
}

func TestTreeEmptyGetValue(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	if !tree.IsEmpty() {
		t.Fatal("IsEmpty on fresh tree = false")
	}
	if _, ok, err := tree.GetValue(42); err != nil || ok {
		t.Fatalf("GetValue on empty tree = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestTreeInsertGetValueSingle(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	ok, err := tree.Insert(1, ridFor(1))
	if err != nil || !ok {
		t.Fatalf("Insert(1) = (%v, %v), want (true, nil)", ok, err)
	}
	if tree.IsEmpty() {
		t.Fatal("IsEmpty after insert = true")
	}

	rid, found, err := tree.GetValue(1)
	if err != nil || !found {
		t.Fatalf("GetValue(1) = (_, %v, %v), want (_, true, nil)", found, err)
	}
	if rid != ridFor(1) {
		t.Fatalf("GetValue(1) rid = %+v, want %+v", rid, ridFor(1))
	}
}

func TestTreeDuplicateInsertRejected(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	if ok, err := tree.Insert(1, ridFor(1)); err != nil || !ok {
		t.Fatalf("first Insert(1) = (%v, %v)", ok, err)
	}
	ok, err := tree.Insert(1, ridFor(99))
	if err != nil {
		t.Fatalf("duplicate Insert(1): %v", err)
	}
	if ok {
		t.Fatal("duplicate Insert(1) = true, want false")
	}

	rid, _, _ := tree.GetValue(1)
	if rid != ridFor(1) {
		t.Fatalf("value after rejected duplicate insert = %+v, want original %+v", rid, ridFor(1))
	}
}

func TestTreeSplitsAndFindsAllKeys(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	const n = 200
	for i := int64(0); i < n; i++ {
		if ok, err := tree.Insert(i, ridFor(i)); err != nil || !ok {
			t.Fatalf("Insert(%d) = (%v, %v)", i, ok, err)
		}
	}

	for i := int64(0); i < n; i++ {
		rid, found, err := tree.GetValue(i)
		if err != nil || !found {
			t.Fatalf("GetValue(%d) = (_, %v, %v), want found", i, found, err)
		}
		if rid != ridFor(i) {
			t.Fatalf("GetValue(%d) = %+v, want %+v", i, rid, ridFor(i))
		}
	}

	if _, found, _ := tree.GetValue(n + 1); found {
		t.Fatal("GetValue(absent) = true")
	}
}

func TestTreeScanInOrder(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	keys := []int64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}
	for _, k := range keys {
		if _, err := tree.Insert(k, ridFor(k)); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	it, err := tree.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer it.Close()

	var got []int64
	for !it.IsEnd() {
		got = append(got, it.Key())
		if err := it.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	if len(got) != len(keys) {
		t.Fatalf("scanned %d keys, want %d", len(got), len(keys))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("scan not sorted at index %d: %v", i, got)
		}
	}
}

func TestTreeBeginAtSkipsToFirstGreaterOrEqual(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for i := int64(0); i < 20; i += 2 {
		if _, err := tree.Insert(i, ridFor(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	it, err := tree.BeginAt(7)
	if err != nil {
		t.Fatalf("BeginAt(7): %v", err)
	}
	defer it.Close()

	if it.IsEnd() {
		t.Fatal("BeginAt(7) landed at end")
	}
	if it.Key() != 8 {
		t.Fatalf("BeginAt(7).Key() = %d, want 8 (first even key >= 7)", it.Key())
	}
}

func TestTreeRemoveThenGetValueMisses(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for i := int64(0); i < 50; i++ {
		if _, err := tree.Insert(i, ridFor(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	for i := int64(0); i < 50; i += 3 {
		if err := tree.Remove(i); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
	}

	for i := int64(0); i < 50; i++ {
		rid, found, err := tree.GetValue(i)
		if err != nil {
			t.Fatalf("GetValue(%d): %v", i, err)
		}
		wantFound := i%3 != 0
		if found != wantFound {
			t.Fatalf("GetValue(%d) found = %v, want %v", i, found, wantFound)
		}
		if found && rid != ridFor(i) {
			t.Fatalf("GetValue(%d) = %+v, want %+v", i, rid, ridFor(i))
		}
	}
}

func TestTreeRemoveAbsentKeyIsNoop(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	if _, err := tree.Insert(1, ridFor(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Remove(999); err != nil {
		t.Fatalf("Remove(absent): %v", err)
	}
	if _, found, _ := tree.GetValue(1); !found {
		t.Fatal("Remove(absent) disturbed an unrelated key")
	}
}

func TestTreeRemoveAllKeysEmptiesTree(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	const n = 60
	for i := int64(0); i < n; i++ {
		if _, err := tree.Insert(i, ridFor(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	for i := int64(0); i < n; i++ {
		if err := tree.Remove(i); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
	}
	if !tree.IsEmpty() {
		t.Fatal("IsEmpty after removing every key = false")
	}
	if tree.RootPageID() != pageid.INVALID {
		t.Fatalf("RootPageID after emptying = %d, want INVALID", tree.RootPageID())
	}
}

func TestTreeReinsertAfterEmptyingPersistsRootAgain(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	if _, err := tree.Insert(1, ridFor(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !tree.IsEmpty() {
		t.Fatal("tree not empty after removing its only key")
	}

	// This exercises persistRoot's InsertRecord-vs-UpdateRecord branch:
	// the header already has a (now-stale) record for this index name.
	if _, err := tree.Insert(2, ridFor(2)); err != nil {
		t.Fatalf("re-insert after emptying: %v", err)
	}
	if rid, found, _ := tree.GetValue(2); !found || rid != ridFor(2) {
		t.Fatalf("GetValue(2) after re-insert = (%+v, %v), want (%+v, true)", rid, found, ridFor(2))
	}
}

// spec.md §8, supplemented "concurrent mixed workload" property: a
// stress test diffing the tree's final state against a sequential map
// oracle. Run with -race to exercise the crabbing protocol.
func TestTreeConcurrentMixedWorkload(t *testing.T) {
	tree := newTestTree(t, 8, 8)

	const (
		numWorkers = 8
		opsPerWorker = 200
		keySpace   = 500
	)

	var mu sync.Mutex
	oracle := make(map[int64]pageid.RID)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		seed := int64(w) + 1
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < opsPerWorker; i++ {
				key := int64(rng.Intn(keySpace))
				switch rng.Intn(3) {
				case 0, 1:
					rid := ridFor(key)
					if _, err := tree.Insert(key, rid); err != nil {
						t.Errorf("Insert(%d): %v", key, err)
						return
					}
					mu.Lock()
					if _, exists := oracle[key]; !exists {
						oracle[key] = rid
					}
					mu.Unlock()
				case 2:
					if err := tree.Remove(key); err != nil {
						t.Errorf("Remove(%d): %v", key, err)
						return
					}
					mu.Lock()
					delete(oracle, key)
					mu.Unlock()
				}
			}
		}(seed)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for k, want := range oracle {
		got, found, err := tree.GetValue(k)
		if err != nil {
			t.Fatalf("GetValue(%d): %v", k, err)
		}
		if !found {
			t.Fatalf("GetValue(%d) = not found, want %+v", k, want)
		}
		if got != want {
			t.Fatalf("GetValue(%d) = %+v, want %+v", k, got, want)
		}
	}
}

// Every non-root leaf/internal page must hold at least maxSize/2
// entries once quiescent (spec.md §8), even with an odd max size where
// a split can't give both halves ceil(max/2). Walk the tree after a
// heavy insert/delete mix and check every non-root page directly.
func TestTreeOddMaxSizeRespectsMinSizeFloor(t *testing.T) {
	tree := newTestTree(t, 5, 5)

	const n = 300
	for i := int64(0); i < n; i++ {
		if _, err := tree.Insert(i, ridFor(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	for i := int64(0); i < n; i += 2 {
		if err := tree.Remove(i); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
	}

	root := tree.RootPageID()
	if root == pageid.INVALID {
		t.Fatal("tree unexpectedly empty")
	}

	var walk func(pid pageid.PageID)
	walk = func(pid pageid.PageID) {
		f, err := tree.pool.FetchPage(pid)
		if err != nil {
			t.Fatalf("FetchPage(%d): %v", pid, err)
		}
		buf := f.Data[:]
		size := sizeOf(buf)
		maxSize := maxSizeOf(buf)
		if !isRoot(buf) {
			minSize := maxSize / 2
			if size < minSize {
				t.Errorf("page %d: size %d below min_size %d (max %d)", pid, size, minSize, maxSize)
			}
		}
		if kindOf(buf) == kindInternal {
			in := asInternal(tree.codec, buf)
			children := make([]pageid.PageID, in.Size())
			for i := 0; i < in.Size(); i++ {
				children[i] = in.Child(i)
			}
			tree.pool.UnpinPage(pid, false)
			for _, c := range children {
				walk(c)
			}
			return
		}
		tree.pool.UnpinPage(pid, false)
	}
	walk(root)
}

func TestTreeMaxSizeTooSmallRejected(t *testing.T) {
	mgr := disk.NewMemManager()
	defer mgr.Close()
	header, err := disk.LoadHeaderPage(mgr)
	if err != nil {
		t.Fatalf("LoadHeaderPage: %v", err)
	}
	pool := buffer.NewPool(8, 0, 1, mgr)

	_, err = NewTree[int64]("bad", pool, header, mgr, Int64Codec{}, WithLeafMaxSize[int64](2))
	if err == nil {
		t.Fatal("NewTree with leaf max size 2 = nil error, want ErrMaxSizeTooSmall")
	}
}

func TestTreeDumpDoesNotErrorOnPopulatedTree(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for i := int64(0); i < 30; i++ {
		if _, err := tree.Insert(i, ridFor(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("Dump wrote nothing")
	}
}
