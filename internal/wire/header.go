// Package wire implements the nachricht header: a lead byte carrying a
// 3-bit code and a 5-bit size field named sz, optionally followed by one
// to eight big-endian payload bytes. If sz is less than 24 it is itself
// the payload; otherwise the payload is an unsigned integer in the
// following sz-23 bytes. Code 0 and code 1 reinterpret sz, see below.
package wire

import (
	"encoding/binary"
	"errors"
)

// Code is the 3-bit type code in the upper bits of the lead byte.
type Code byte

const (
	Bin Code = 0 // fixed values and byte strings, sz is dual-use
	Int Code = 1 // integer, the msb of sz is a sign bit
	Str Code = 2 // payload is the length in bytes of a UTF-8 string
	Sym Code = 3 // like Str, but the string enters the symbol table
	Arr Code = 4 // payload is the length in child values
	Rec Code = 5 // payload is the length in fields
	Map Code = 6 // payload is the length in key-value entries
	Ref Code = 7 // payload is an index into the symbol table
)

// sz values of code Bin below binOffset select a fixed value.
const (
	FixedNull  = 0
	FixedTrue  = 1
	FixedFalse = 2
	FixedF32   = 3 // followed by 4 payload bytes, not consumed by Parse
	FixedF64   = 4 // followed by 8 payload bytes, not consumed by Parse

	binOffset = 5  // first sz that denotes an inline byte-string length
	maxInline = 23 // largest sz that is its own payload
)

// Kind is a fully resolved header: the dual uses of sz for codes 0 and 1
// are unfolded so that callers dispatch on a flat enum.
type Kind byte

const (
	KindNull Kind = iota
	KindTrue
	KindFalse
	KindF32
	KindF64
	KindBytes
	KindInt
	KindStr
	KindSym
	KindArr
	KindRec
	KindMap
	KindRef
)

// Header is a decoded header. Val holds the payload: a length for
// KindBytes/KindStr/KindSym, a child count for the containers, a table
// index for KindRef and the magnitude for KindInt. Neg is meaningful for
// KindInt only; a negative header of magnitude m denotes the value -(m+1).
type Header struct {
	Kind Kind
	Neg  bool
	Val  uint64
}

// ErrShortBuffer is returned by Parse when the buffer ends inside a header.
var ErrShortBuffer = errors.New("wire: short buffer")

// Size returns the number of trailing bytes needed to encode v, between 1
// and 8.
func Size(v uint64) int {
	n := 1
	for v > 0xff {
		v >>= 8
		n++
	}
	return n
}

func appendBE(dst []byte, v uint64, n int) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[8-n:]...)
}

// AppendVar appends a header of the given code with payload v. Valid for
// codes Str through Ref, whose sz field follows the common layout. The
// shortest valid encoding is always chosen.
func AppendVar(dst []byte, c Code, v uint64) []byte {
	if v <= maxInline {
		return append(dst, byte(c)<<5|byte(v))
	}
	n := Size(v)
	dst = append(dst, byte(c)<<5|byte(maxInline+n))
	return appendBE(dst, v, n)
}

// AppendBytes appends a code-Bin header for a byte string of length n.
func AppendBytes(dst []byte, n uint64) []byte {
	if n <= maxInline-binOffset {
		return append(dst, byte(n)+binOffset)
	}
	k := Size(n)
	dst = append(dst, byte(maxInline+k))
	return appendBE(dst, n, k)
}

// AppendFixed appends the single-byte header for one of the Fixed values.
func AppendFixed(dst []byte, f byte) []byte {
	return append(dst, f)
}

// AppendInt appends a code-Int header. The magnitude of a negative value
// must already be biased by the caller: -x is encoded with magnitude x-1.
func AppendInt(dst []byte, neg bool, mag uint64) []byte {
	var sign byte
	if neg {
		sign = 1 << 4
	}
	if mag <= 7 {
		return append(dst, 1<<5|sign|byte(mag))
	}
	n := Size(mag)
	dst = append(dst, 1<<5|sign|byte(7+n))
	return appendBE(dst, mag, n)
}

var varKinds = [8]Kind{0, 0, KindStr, KindSym, KindArr, KindRec, KindMap, KindRef}

// Parse decodes one header from the front of buf and returns it together
// with the number of bytes consumed. Payload bytes of F32 and F64 values
// belong to the value, not the header, and are left in the buffer. Any
// valid header is accepted regardless of minimality.
func Parse(buf []byte) (Header, int, error) {
	if len(buf) < 1 {
		return Header{}, 0, ErrShortBuffer
	}
	lead := buf[0]
	code := Code(lead >> 5)
	sz := lead & 0x1f
	switch code {
	case Bin:
		switch {
		case sz == FixedNull:
			return Header{Kind: KindNull}, 1, nil
		case sz == FixedTrue:
			return Header{Kind: KindTrue}, 1, nil
		case sz == FixedFalse:
			return Header{Kind: KindFalse}, 1, nil
		case sz == FixedF32:
			return Header{Kind: KindF32}, 1, nil
		case sz == FixedF64:
			return Header{Kind: KindF64}, 1, nil
		case sz <= maxInline:
			return Header{Kind: KindBytes, Val: uint64(sz - binOffset)}, 1, nil
		default:
			v, n, err := trailing(buf[1:], int(sz-maxInline))
			return Header{Kind: KindBytes, Val: v}, 1 + n, err
		}
	case Int:
		neg := sz&0x10 != 0
		szp := sz & 0x0f
		if szp <= 7 {
			return Header{Kind: KindInt, Neg: neg, Val: uint64(szp)}, 1, nil
		}
		v, n, err := trailing(buf[1:], int(szp-7))
		return Header{Kind: KindInt, Neg: neg, Val: v}, 1 + n, err
	default:
		if sz <= maxInline {
			return Header{Kind: varKinds[code], Val: uint64(sz)}, 1, nil
		}
		v, n, err := trailing(buf[1:], int(sz-maxInline))
		return Header{Kind: varKinds[code], Val: v}, 1 + n, err
	}
}

func trailing(buf []byte, n int) (uint64, int, error) {
	if len(buf) < n {
		return 0, 0, ErrShortBuffer
	}
	var tmp [8]byte
	copy(tmp[8-n:], buf[:n])
	return binary.BigEndian.Uint64(tmp[:]), n, nil
}
