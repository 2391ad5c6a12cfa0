package bptree

import "errors"

// Sentinel errors, fredb/error.go-style: one set per package, checked
// with errors.Is at call sites.
var (
	// ErrKeyNotFound names an absent key. GetValue does not return it: it
	// reports an absent key through its bool result.
	ErrKeyNotFound = errors.New("bptree: key not found")
	// ErrDuplicateKey names a key that is already present. Insert does
	// not return it: it reports a duplicate by returning (false, nil).
	ErrDuplicateKey = errors.New("bptree: duplicate key")
	// ErrOutOfFrames signals the buffer pool had no frame to give a split
	// or a new root (spec.md §7.1: "the tree translates this to an out of
	// memory fatal in StartNewTree and Split"). Implementations may treat
	// it as recoverable; this repo surfaces it as an error instead of
	// aborting the process.
	ErrOutOfFrames = errors.New("bptree: buffer pool exhausted during structural change")
	// ErrMaxSizeTooSmall is returned by NewTree when a configured
	// leaf/internal max size is below 3, which both splitting and
	// redistribution require, or is larger than the number of entries
	// that fit in one page.
	ErrMaxSizeTooSmall = errors.New("bptree: configured max size too small for page size")

	// errEmptyTree is internal: findLeaf returns it when root_page_id is
	// still INVALID, letting callers (GetValue, Remove) short-circuit
	// without treating "nothing to find" as a real failure.
	errEmptyTree = errors.New("bptree: tree is empty")
)
