// Package page defines the buffer pool's frame type: a fixed-size byte
// buffer plus the metadata and latch the buffer pool and the B+ tree
// crabbing protocol need around it (spec.md §3, "Page").
package page

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"pagestore/pageid"
)

// Size is the fixed page size in bytes. Matches the teacher's PageSize
// (types.PageSize, bplustree.PageSize): 4 KiB.
const Size = 4096

// Frame is one slot of the buffer pool's frame array. Its Data buffer is
// reinterpreted by higher layers (header page, B+ tree internal/leaf
// page) as a typed view; Frame itself knows nothing about that layout.
//
// Frame is the thing a thread "has pinned" or "has latched": pin count
// is managed by the owning buffer.Pool under its instance latch, while
// Latch is acquired directly by tree-level crabbing code and by
// iterators (spec.md §5, "Shared-resource policy").
type Frame struct {
	Latch sync.RWMutex

	PageID   pageid.PageID
	PinCount int
	IsDirty  bool

	Data [Size]byte
}

// Reset clears a frame back to the empty state, ready to be bound to a
// new page id. Callers must hold the owning pool's instance latch.
func (f *Frame) Reset() {
	f.PageID = pageid.INVALID
	f.PinCount = 0
	f.IsDirty = false
	for i := range f.Data {
		f.Data[i] = 0
	}
}

// Checksum hashes the frame body with xxhash, the integrity check the
// disk manager uses to detect corruption on read (SPEC_FULL.md §3,
// "Page checksum"). It is a pure function of the bytes, independent of
// pin/dirty state.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
