// Package pageid holds the fixed-width primitives shared by the buffer
// pool and the B+ tree: page ids, frame ids, and record identifiers.
package pageid

import "encoding/binary"

// PageID names a logical page on disk. INVALID marks "no page".
type PageID int64

// INVALID is the reserved page id meaning "no page" (spec §3).
const INVALID PageID = -1

// HeaderPageID is the reserved page holding the index-name -> root-page-id
// directory (spec §6).
const HeaderPageID PageID = 0

// FrameID indexes into a buffer pool instance's frame array.
type FrameID int32

// RID is the fixed-size record identifier a B+ tree leaf stores as its
// value: the heap page holding the row plus the row's slot within it.
// Grounded on the teacher's types.RowPointer / heapfile_manager.RowPointer,
// narrowed to the two fields the tree actually needs.
type RID struct {
	PageID    PageID
	SlotIndex uint32
}

// RIDSize is RID's encoded width: 8 bytes of PageID + 4 bytes of SlotIndex.
const RIDSize = 12

// InvalidRID is a sentinel RID whose PageID is INVALID; it is not RID's
// zero value.
var InvalidRID = RID{PageID: INVALID, SlotIndex: 0}

// Encode writes r into buf[:RIDSize] little-endian.
func (r RID) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(r.PageID))
	binary.LittleEndian.PutUint32(buf[8:12], r.SlotIndex)
}

// DecodeRID reads a RID from buf[:RIDSize].
func DecodeRID(buf []byte) RID {
	return RID{
		PageID:    PageID(binary.LittleEndian.Uint64(buf[0:8])),
		SlotIndex: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

