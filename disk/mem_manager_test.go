package disk

import (
	"bytes"
	"testing"

	"pagestore/page"
	"pagestore/pageid"
)

func TestMemManagerAllocateReadWriteRoundTrip(t *testing.T) {
	m := NewMemManager()
	defer m.Close()

	pid, err := m.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}

	buf := make([]byte, page.Size)
	copy(buf, "hello, page")
	if err := m.WritePage(pid, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got := make([]byte, page.Size)
	if err := m.ReadPage(pid, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(got[:11], []byte("hello, page")) {
		t.Fatalf("ReadPage = %q, want prefix %q", got[:11], "hello, page")
	}
}

func TestMemManagerReadPageNotFound(t *testing.T) {
	m := NewMemManager()
	defer m.Close()

	buf := make([]byte, page.Size)
	if err := m.ReadPage(pageid.PageID(999), buf); err == nil {
		t.Fatal("ReadPage(unallocated) = nil error, want ErrPageNotFound")
	}
}

func TestMemManagerDeallocateThenReadFails(t *testing.T) {
	m := NewMemManager()
	defer m.Close()

	pid, _ := m.AllocatePage()
	if err := m.DeallocatePage(pid); err != nil {
		t.Fatalf("DeallocatePage: %v", err)
	}

	buf := make([]byte, page.Size)
	if err := m.ReadPage(pid, buf); err == nil {
		t.Fatal("ReadPage(deallocated) = nil error, want error")
	}
}

func TestMemManagerClosedRejectsOperations(t *testing.T) {
	m := NewMemManager()
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := m.AllocatePage(); err != ErrClosed {
		t.Fatalf("AllocatePage after Close = %v, want ErrClosed", err)
	}
	buf := make([]byte, page.Size)
	if err := m.ReadPage(pageid.HeaderPageID, buf); err != ErrClosed {
		t.Fatalf("ReadPage after Close = %v, want ErrClosed", err)
	}
}
