package disk

import (
	"bytes"
	"testing"
	"time"

	"pagestore/page"
)

func TestBlockCacheReadThroughAndHit(t *testing.T) {
	inner := NewMemManager()
	defer inner.Close()

	bc, err := NewBlockCache(inner, 1<<20)
	if err != nil {
		t.Fatalf("NewBlockCache: %v", err)
	}
	defer bc.Close()

	pid, err := bc.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}

	buf := make([]byte, page.Size)
	copy(buf, "cached bytes")
	if err := bc.WritePage(pid, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	// Ristretto's admission is asynchronous; give it a moment to settle
	// before asserting on cache state.
	time.Sleep(10 * time.Millisecond)

	got := make([]byte, page.Size)
	if err := bc.ReadPage(pid, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(got[:12], []byte("cached bytes")) {
		t.Fatalf("ReadPage = %q, want prefix %q", got[:12], "cached bytes")
	}
}

func TestBlockCacheMissFallsThroughToInner(t *testing.T) {
	inner := NewMemManager()
	defer inner.Close()

	pid, err := inner.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	buf := make([]byte, page.Size)
	copy(buf, "written directly")
	if err := inner.WritePage(pid, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	bc, err := NewBlockCache(inner, 1<<20)
	if err != nil {
		t.Fatalf("NewBlockCache: %v", err)
	}
	defer bc.Close()

	got := make([]byte, page.Size)
	if err := bc.ReadPage(pid, got); err != nil {
		t.Fatalf("ReadPage (cold cache): %v", err)
	}
	if !bytes.Equal(got[:16], []byte("written directly")) {
		t.Fatalf("ReadPage = %q, want prefix %q", got[:16], "written directly")
	}
}

func TestBlockCacheInvalidatesOnDeallocate(t *testing.T) {
	inner := NewMemManager()
	defer inner.Close()

	bc, err := NewBlockCache(inner, 1<<20)
	if err != nil {
		t.Fatalf("NewBlockCache: %v", err)
	}
	defer bc.Close()

	pid, _ := bc.AllocatePage()
	buf := make([]byte, page.Size)
	copy(buf, "about to go")
	if err := bc.WritePage(pid, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := bc.DeallocatePage(pid); err != nil {
		t.Fatalf("DeallocatePage: %v", err)
	}

	got := make([]byte, page.Size)
	if err := bc.ReadPage(pid, got); err == nil {
		t.Fatal("ReadPage(deallocated) = nil error, want error")
	}
}
