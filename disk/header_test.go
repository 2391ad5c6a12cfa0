package disk

import (
	"testing"

	"pagestore/pageid"
)

func TestHeaderPageInsertUpdatePersistRoundTrip(t *testing.T) {
	m := NewMemManager()
	defer m.Close()

	h, err := LoadHeaderPage(m)
	if err != nil {
		t.Fatalf("LoadHeaderPage: %v", err)
	}

	if h.HasRecord("orders") {
		t.Fatal("HasRecord on fresh header = true")
	}
	if got := h.RootPageID("orders"); got != pageid.INVALID {
		t.Fatalf("RootPageID(unknown) = %d, want INVALID", got)
	}

	if err := h.InsertRecord("orders", pageid.PageID(7)); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := h.InsertRecord("orders", pageid.PageID(9)); err == nil {
		t.Fatal("InsertRecord duplicate name = nil error, want error")
	}

	if err := h.UpdateRecord("orders", pageid.PageID(11)); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if got := h.RootPageID("orders"); got != pageid.PageID(11) {
		t.Fatalf("RootPageID after update = %d, want 11", got)
	}

	if err := h.Persist(m); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	h2, err := LoadHeaderPage(m)
	if err != nil {
		t.Fatalf("LoadHeaderPage after persist: %v", err)
	}
	if !h2.HasRecord("orders") {
		t.Fatal("HasRecord after reload = false")
	}
	if got := h2.RootPageID("orders"); got != pageid.PageID(11) {
		t.Fatalf("RootPageID after reload = %d, want 11", got)
	}
}

func TestHeaderPageUpdateUnknownNameFails(t *testing.T) {
	m := NewMemManager()
	defer m.Close()

	h, err := LoadHeaderPage(m)
	if err != nil {
		t.Fatalf("LoadHeaderPage: %v", err)
	}
	if err := h.UpdateRecord("missing", pageid.PageID(1)); err == nil {
		t.Fatal("UpdateRecord(unknown) = nil error, want error")
	}
}

func TestHeaderPageMultipleIndexesIndependent(t *testing.T) {
	m := NewMemManager()
	defer m.Close()

	h, err := LoadHeaderPage(m)
	if err != nil {
		t.Fatalf("LoadHeaderPage: %v", err)
	}

	if err := h.InsertRecord("customers", pageid.PageID(2)); err != nil {
		t.Fatalf("InsertRecord customers: %v", err)
	}
	if err := h.InsertRecord("orders", pageid.PageID(3)); err != nil {
		t.Fatalf("InsertRecord orders: %v", err)
	}

	if got := h.RootPageID("customers"); got != pageid.PageID(2) {
		t.Fatalf("RootPageID(customers) = %d, want 2", got)
	}
	if got := h.RootPageID("orders"); got != pageid.PageID(3) {
		t.Fatalf("RootPageID(orders) = %d, want 3", got)
	}
}
