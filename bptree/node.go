package bptree

import (
	"encoding/binary"

	"pagestore/page"
	"pagestore/pageid"
)

// nodeKind tags a page buffer as one of the two B+ tree page types
// (spec.md §3, "B+ tree page (common header)").
type nodeKind uint8

const (
	kindInternal nodeKind = 0
	kindLeaf     nodeKind = 1
)

// Common page header, the first headerSize bytes of every tree page:
//
//	 0:  1  kind       (nodeKind)
//	 1:  1  reserved
//	 2:  2  size        (uint16)
//	 4:  2  maxSize      (uint16)
//	 6:  2  reserved
//	 8:  8  parentID     (int64, pageid.INVALID for the root)
//	16:  8  selfID       (int64)
//	24:  8  nextID       (int64, leaf's forward-sibling link; unused by internal)
const headerSize = 32

func kindOf(buf []byte) nodeKind          { return nodeKind(buf[0]) }
func setKindOf(buf []byte, k nodeKind)    { buf[0] = byte(k) }
func sizeOf(buf []byte) int               { return int(binary.LittleEndian.Uint16(buf[2:4])) }
func setSizeOf(buf []byte, n int)         { binary.LittleEndian.PutUint16(buf[2:4], uint16(n)) }
func maxSizeOf(buf []byte) int            { return int(binary.LittleEndian.Uint16(buf[4:6])) }
func setMaxSizeOf(buf []byte, n int)      { binary.LittleEndian.PutUint16(buf[4:6], uint16(n)) }
func parentIDOf(buf []byte) pageid.PageID { return pageid.PageID(binary.LittleEndian.Uint64(buf[8:16])) }
func setParentIDOf(buf []byte, id pageid.PageID) {
	binary.LittleEndian.PutUint64(buf[8:16], uint64(id))
}
func selfIDOf(buf []byte) pageid.PageID { return pageid.PageID(binary.LittleEndian.Uint64(buf[16:24])) }
func setSelfIDOf(buf []byte, id pageid.PageID) {
	binary.LittleEndian.PutUint64(buf[16:24], uint64(id))
}
func nextIDOf(buf []byte) pageid.PageID { return pageid.PageID(binary.LittleEndian.Uint64(buf[24:32])) }
func setNextIDOf(buf []byte, id pageid.PageID) {
	binary.LittleEndian.PutUint64(buf[24:32], uint64(id))
}

// isRoot reports whether a page has no parent, i.e. is the tree's root
// (spec.md §3: "parent page id" of −1 for the root).
func isRoot(buf []byte) bool { return parentIDOf(buf) == pageid.INVALID }

// internalNode overlays a (key, child_page_id) array view on a page
// buffer (spec.md §3, "Internal page"). Grounded on the teacher's
// node_codec.go fixed-header-then-array layout, generalized from
// variable-length []byte keys to a fixed-width KeyCodec[K] so entries
// can be addressed by arithmetic instead of a length-prefixed scan.
type internalNode[K any] struct {
	codec KeyCodec[K]
	buf   []byte
}

func (n internalNode[K]) entrySize() int { return n.codec.Size() + 8 }
func (n internalNode[K]) offset(i int) int { return headerSize + i*n.entrySize() }

func (n internalNode[K]) Size() int               { return sizeOf(n.buf) }
func (n internalNode[K]) setSize(sz int)          { setSizeOf(n.buf, sz) }
func (n internalNode[K]) MaxSize() int            { return maxSizeOf(n.buf) }
func (n internalNode[K]) ParentID() pageid.PageID { return parentIDOf(n.buf) }
func (n internalNode[K]) SetParentID(id pageid.PageID) { setParentIDOf(n.buf, id) }
func (n internalNode[K]) SelfID() pageid.PageID   { return selfIDOf(n.buf) }
func (n internalNode[K]) IsRoot() bool            { return isRoot(n.buf) }

func (n internalNode[K]) Key(i int) K {
	off := n.offset(i)
	return n.codec.Decode(n.buf[off : off+n.codec.Size()])
}

func (n internalNode[K]) SetKey(i int, k K) {
	off := n.offset(i)
	n.codec.Encode(k, n.buf[off:off+n.codec.Size()])
}

func (n internalNode[K]) Child(i int) pageid.PageID {
	off := n.offset(i) + n.codec.Size()
	return pageid.PageID(binary.LittleEndian.Uint64(n.buf[off : off+8]))
}

func (n internalNode[K]) SetChild(i int, id pageid.PageID) {
	off := n.offset(i) + n.codec.Size()
	binary.LittleEndian.PutUint64(n.buf[off:off+8], uint64(id))
}

// Lookup returns child[i-1], where i is the smallest index ≥1 with
// key[i] > k (spec.md §3, "Internal page"). Key 0 is the dummy entry.
func (n internalNode[K]) Lookup(k K) pageid.PageID {
	sz := n.Size()
	i := 1
	for i < sz && n.codec.Compare(n.Key(i), k) <= 0 {
		i++
	}
	return n.Child(i - 1)
}

// IndexOfChild returns the index holding child id, or -1.
func (n internalNode[K]) IndexOfChild(id pageid.PageID) int {
	for i := 0; i < n.Size(); i++ {
		if n.Child(i) == id {
			return i
		}
	}
	return -1
}

// InsertAt shifts entries [i, size) right by one slot and writes
// (k, child) at i.
func (n internalNode[K]) InsertAt(i int, k K, child pageid.PageID) {
	sz := n.Size()
	es := n.entrySize()
	copy(n.buf[headerSize+(i+1)*es:headerSize+(sz+1)*es], n.buf[headerSize+i*es:headerSize+sz*es])
	n.setSize(sz + 1)
	n.SetKey(i, k)
	n.SetChild(i, child)
}

// RemoveAt removes the entry at i, shifting [i+1, size) left by one.
func (n internalNode[K]) RemoveAt(i int) {
	sz := n.Size()
	es := n.entrySize()
	copy(n.buf[headerSize+i*es:headerSize+(sz-1)*es], n.buf[headerSize+(i+1)*es:headerSize+sz*es])
	n.setSize(sz - 1)
}

// AppendRange copies count entries starting at srcIndex from src onto
// the end of n. Used by splits and merges to move a contiguous run of
// entries between pages without going through InsertAt per entry.
func (n internalNode[K]) AppendRange(src internalNode[K], srcIndex, count int) {
	sz := n.Size()
	es := n.entrySize()
	copy(n.buf[headerSize+sz*es:headerSize+(sz+count)*es], src.buf[headerSize+srcIndex*es:headerSize+(srcIndex+count)*es])
	n.setSize(sz + count)
}

// Truncate shrinks n to keep only the first count entries.
func (n internalNode[K]) Truncate(count int) { n.setSize(count) }

func initInternal[K any](buf []byte, codec KeyCodec[K], maxSize int, self, parent pageid.PageID) internalNode[K] {
	setKindOf(buf, kindInternal)
	setSizeOf(buf, 0)
	setMaxSizeOf(buf, maxSize)
	setSelfIDOf(buf, self)
	setParentIDOf(buf, parent)
	setNextIDOf(buf, pageid.INVALID)
	return internalNode[K]{codec: codec, buf: buf}
}

func asInternal[K any](codec KeyCodec[K], buf []byte) internalNode[K] {
	return internalNode[K]{codec: codec, buf: buf}
}

// leafNode overlays a (key, rid) array view plus the forward-sibling
// link on a page buffer (spec.md §3, "Leaf page").
type leafNode[K any] struct {
	codec KeyCodec[K]
	buf   []byte
}

func (n leafNode[K]) entrySize() int   { return n.codec.Size() + pageid.RIDSize }
func (n leafNode[K]) offset(i int) int { return headerSize + i*n.entrySize() }

func (n leafNode[K]) Size() int                    { return sizeOf(n.buf) }
func (n leafNode[K]) setSize(sz int)               { setSizeOf(n.buf, sz) }
func (n leafNode[K]) MaxSize() int                 { return maxSizeOf(n.buf) }
func (n leafNode[K]) ParentID() pageid.PageID      { return parentIDOf(n.buf) }
func (n leafNode[K]) SetParentID(id pageid.PageID) { setParentIDOf(n.buf, id) }
func (n leafNode[K]) SelfID() pageid.PageID        { return selfIDOf(n.buf) }
func (n leafNode[K]) IsRoot() bool                 { return isRoot(n.buf) }
func (n leafNode[K]) NextPageID() pageid.PageID    { return nextIDOf(n.buf) }
func (n leafNode[K]) SetNextPageID(id pageid.PageID) { setNextIDOf(n.buf, id) }

func (n leafNode[K]) Key(i int) K {
	off := n.offset(i)
	return n.codec.Decode(n.buf[off : off+n.codec.Size()])
}

func (n leafNode[K]) SetKey(i int, k K) {
	off := n.offset(i)
	n.codec.Encode(k, n.buf[off:off+n.codec.Size()])
}

func (n leafNode[K]) RID(i int) pageid.RID {
	off := n.offset(i) + n.codec.Size()
	return pageid.DecodeRID(n.buf[off : off+pageid.RIDSize])
}

func (n leafNode[K]) SetRID(i int, r pageid.RID) {
	off := n.offset(i) + n.codec.Size()
	r.Encode(n.buf[off : off+pageid.RIDSize])
}

// LowerBound returns the smallest index i with Key(i) >= k (spec.md
// §4.4.4 uses the equivalent for Begin(key); insertion reuses it to
// find the sorted insertion point).
func (n leafNode[K]) LowerBound(k K) int {
	lo, hi := 0, n.Size()
	for lo < hi {
		mid := (lo + hi) / 2
		if n.codec.Compare(n.Key(mid), k) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (n leafNode[K]) InsertAt(i int, k K, r pageid.RID) {
	sz := n.Size()
	es := n.entrySize()
	copy(n.buf[headerSize+(i+1)*es:headerSize+(sz+1)*es], n.buf[headerSize+i*es:headerSize+sz*es])
	n.setSize(sz + 1)
	n.SetKey(i, k)
	n.SetRID(i, r)
}

func (n leafNode[K]) RemoveAt(i int) {
	sz := n.Size()
	es := n.entrySize()
	copy(n.buf[headerSize+i*es:headerSize+(sz-1)*es], n.buf[headerSize+(i+1)*es:headerSize+sz*es])
	n.setSize(sz - 1)
}

func (n leafNode[K]) AppendRange(src leafNode[K], srcIndex, count int) {
	sz := n.Size()
	es := n.entrySize()
	copy(n.buf[headerSize+sz*es:headerSize+(sz+count)*es], src.buf[headerSize+srcIndex*es:headerSize+(srcIndex+count)*es])
	n.setSize(sz + count)
}

func (n leafNode[K]) Truncate(count int) { n.setSize(count) }

func initLeaf[K any](buf []byte, codec KeyCodec[K], maxSize int, self, parent pageid.PageID) leafNode[K] {
	setKindOf(buf, kindLeaf)
	setSizeOf(buf, 0)
	setMaxSizeOf(buf, maxSize)
	setSelfIDOf(buf, self)
	setParentIDOf(buf, parent)
	setNextIDOf(buf, pageid.INVALID)
	return leafNode[K]{codec: codec, buf: buf}
}

func asLeaf[K any](codec KeyCodec[K], buf []byte) leafNode[K] {
	return leafNode[K]{codec: codec, buf: buf}
}

// maxEntries returns how many (key, child-or-rid) entries of width
// entrySize fit after the common header in one page.Size buffer — the
// hard ceiling a configured leaf/internal max size must respect.
func maxEntries(entrySize int) int {
	return (page.Size - headerSize) / entrySize
}
