// Package replacer implements the buffer pool's replacement policy
// (spec.md §4.1): a bounded set of frame ids currently eligible for
// eviction, ordered by unpin time.
package replacer

import "sync"

// LRU is a strict least-recently-unpinned replacer over a fixed universe
// of frame ids [0, capacity). Grounded on
// bietkhonhungvandi212-array-db's pool_lru.go forward/backward index
// arrays, generalized into its own package the way the spec's §4.1
// contract requires (the teacher keeps this logic inlined as a plain
// []int64 slice in BufferPool.accessOrder — this repo factors it out
// into its own package, used by buffer.Pool).
//
// All four operations are O(1) and internally synchronized; callers do
// not need to hold any external lock (spec.md §4.1).
type LRU struct {
	mu       sync.Mutex
	next     []int32 // forward link per frame id, -1 if none
	prev     []int32 // backward link per frame id, -1 if none
	inList   []bool
	head     int32 // most-recently-unpinned (front); -1 if empty
	tail     int32 // least-recently-unpinned (back); -1 if empty
	size     int
	capacity int
}

// NewLRU returns an LRU replacer over frame ids [0, capacity).
func NewLRU(capacity int) *LRU {
	l := &LRU{
		next:     make([]int32, capacity),
		prev:     make([]int32, capacity),
		inList:   make([]bool, capacity),
		head:     -1,
		tail:     -1,
		capacity: capacity,
	}
	for i := range l.next {
		l.next[i] = -1
		l.prev[i] = -1
	}
	return l
}

// Unpin makes fid eligible for eviction, inserting it at the front
// (most-recently-unpinned). A no-op if fid is already present or the
// replacer is at capacity (spec.md §4.1; design note §9(c) notes the
// capacity check is a defensive bound, not reachable if callers respect
// the pin/unpin protocol).
func (l *LRU) Unpin(fid int32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size >= l.capacity || l.inList[fid] {
		return
	}

	l.inList[fid] = true
	l.prev[fid] = -1
	l.next[fid] = l.head
	if l.head != -1 {
		l.prev[l.head] = fid
	}
	l.head = fid
	if l.tail == -1 {
		l.tail = fid
	}
	l.size++
}

// Pin removes fid from the eligible set, meaning it is now in use and
// not eligible for eviction. A no-op if fid is not present.
func (l *LRU) Pin(fid int32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.inList[fid] {
		return
	}
	l.remove(fid)
}

// Victim removes and returns the least-recently-unpinned frame id. ok is
// false if the replacer is empty.
func (l *LRU) Victim() (fid int32, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tail == -1 {
		return 0, false
	}
	victim := l.tail
	l.remove(victim)
	return victim, true
}

// Size returns the number of frame ids currently eligible for eviction.
func (l *LRU) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// remove unlinks fid from the list. Caller must hold l.mu and fid must
// be present.
func (l *LRU) remove(fid int32) {
	p, n := l.prev[fid], l.next[fid]
	if p != -1 {
		l.next[p] = n
	} else {
		l.head = n
	}
	if n != -1 {
		l.prev[n] = p
	} else {
		l.tail = p
	}
	l.prev[fid], l.next[fid] = -1, -1
	l.inList[fid] = false
	l.size--
}
