// Package disk is the storage engine's external disk-manager collaborator
// (spec.md §1, §6): raw page read/write plus page-id allocation. The B+
// tree and buffer pool never touch a file directly; they only ever see
// this narrow interface.
package disk

import (
	"errors"

	"pagestore/pageid"
)

// Manager is the disk manager contract consumed by buffer.Pool (spec.md
// §6). Writes are assumed durable on return.
type Manager interface {
	ReadPage(id pageid.PageID, buf []byte) error
	WritePage(id pageid.PageID, buf []byte) error
	AllocatePage() (pageid.PageID, error)
	DeallocatePage(id pageid.PageID) error
	Close() error
}

// Sentinel errors returned by both Manager implementations, in the
// fredb/error.go sentinel-set style.
var (
	// ErrClosed is returned by any operation on a closed Manager.
	ErrClosed = errors.New("disk manager is closed")
	// ErrCorruption is returned by ReadPage when the stored checksum does
	// not match the recomputed one.
	ErrCorruption = errors.New("data corruption detected")
	// ErrPageNotFound is returned by ReadPage for a page id past the end
	// of the file and never allocated.
	ErrPageNotFound = errors.New("page not found")
)
