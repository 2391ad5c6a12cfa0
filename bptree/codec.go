package bptree

import (
	"bytes"
	"encoding/binary"
)

// KeyCodec fixes one key width and its total order over that width, the
// idiomatic-Go stand-in for the original's template parameterization
// over key width (spec.md §9, "Generic key width": "the source
// instantiates the tree at key widths 4/8/16/32/64 bytes"). Tree[K] is
// generic over the key type; a KeyCodec[K] supplies the byte layout and
// comparator the node views (node.go) need to read and write K values
// directly inside a page buffer.
type KeyCodec[K any] interface {
	// Size is the fixed encoded width of K in bytes.
	Size() int
	// Encode writes k into buf[:Size()].
	Encode(k K, buf []byte)
	// Decode reads a K from buf[:Size()].
	Decode(buf []byte) K
	// Compare returns <0, 0, >0 as a total order over K.
	Compare(a, b K) int
}

// Int32Codec is the 4-byte key width.
type Int32Codec struct{}

func (Int32Codec) Size() int                    { return 4 }
func (Int32Codec) Encode(k int32, buf []byte)   { binary.LittleEndian.PutUint32(buf, uint32(k)) }
func (Int32Codec) Decode(buf []byte) int32      { return int32(binary.LittleEndian.Uint32(buf)) }
func (Int32Codec) Compare(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Int64Codec is the 8-byte key width.
type Int64Codec struct{}

func (Int64Codec) Size() int                  { return 8 }
func (Int64Codec) Encode(k int64, buf []byte) { binary.LittleEndian.PutUint64(buf, uint64(k)) }
func (Int64Codec) Decode(buf []byte) int64    { return int64(binary.LittleEndian.Uint64(buf)) }
func (Int64Codec) Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ByteKey16 is the 16-byte fixed-width key width.
type ByteKey16 [16]byte

// ByteKey16Codec implements KeyCodec[ByteKey16].
type ByteKey16Codec struct{}

func (ByteKey16Codec) Size() int                        { return 16 }
func (ByteKey16Codec) Encode(k ByteKey16, buf []byte)   { copy(buf, k[:]) }
func (ByteKey16Codec) Decode(buf []byte) ByteKey16 {
	var k ByteKey16
	copy(k[:], buf)
	return k
}
func (ByteKey16Codec) Compare(a, b ByteKey16) int { return bytes.Compare(a[:], b[:]) }

// ByteKey32 is the 32-byte fixed-width key width.
type ByteKey32 [32]byte

// ByteKey32Codec implements KeyCodec[ByteKey32].
type ByteKey32Codec struct{}

func (ByteKey32Codec) Size() int                      { return 32 }
func (ByteKey32Codec) Encode(k ByteKey32, buf []byte) { copy(buf, k[:]) }
func (ByteKey32Codec) Decode(buf []byte) ByteKey32 {
	var k ByteKey32
	copy(k[:], buf)
	return k
}
func (ByteKey32Codec) Compare(a, b ByteKey32) int { return bytes.Compare(a[:], b[:]) }

// ByteKey64 is the 64-byte fixed-width key width.
type ByteKey64 [64]byte

// ByteKey64Codec implements KeyCodec[ByteKey64].
type ByteKey64Codec struct{}

func (ByteKey64Codec) Size() int                      { return 64 }
func (ByteKey64Codec) Encode(k ByteKey64, buf []byte) { copy(buf, k[:]) }
func (ByteKey64Codec) Decode(buf []byte) ByteKey64 {
	var k ByteKey64
	copy(k[:], buf)
	return k
}
func (ByteKey64Codec) Compare(a, b ByteKey64) int { return bytes.Compare(a[:], b[:]) }
