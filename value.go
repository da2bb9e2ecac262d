package nachricht

import (
	"math"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindF32
	KindF64
	KindInt
	KindBytes
	KindStr
	KindSym
	KindArray
	KindRecord
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindInt:
		return "integer"
	case KindBytes:
		return "bytes"
	case KindStr:
		return "string"
	case KindSym:
		return "symbol"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Int is the logical 65-bit integer of the data model: the union of the
// uint64 and int64 ranges, extended down to -2^64. Neg selects the sign;
// for negative values Mag holds |v|-1, so {Neg: true, Mag: 0} is -1 and
// {Neg: true, Mag: math.MaxUint64} is -2^64. Zero is always positive,
// there is no negative zero.
type Int struct {
	Neg bool
	Mag uint64
}

// IntOf returns the Int for a signed value.
func IntOf(v int64) Int {
	if v < 0 {
		return Int{Neg: true, Mag: uint64(-(v + 1))}
	}
	return Int{Mag: uint64(v)}
}

// UintOf returns the Int for an unsigned value.
func UintOf(v uint64) Int {
	return Int{Mag: v}
}

// Int64 converts to int64. The second return is false when the value does
// not fit.
func (i Int) Int64() (int64, bool) {
	if i.Mag > math.MaxInt64 {
		return 0, false
	}
	if i.Neg {
		return -int64(i.Mag) - 1, true
	}
	return int64(i.Mag), true
}

// Uint64 converts to uint64. The second return is false for negative
// values.
func (i Int) Uint64() (uint64, bool) {
	if i.Neg {
		return 0, false
	}
	return i.Mag, true
}

func (i Int) String() string {
	if !i.Neg {
		return strconv.FormatUint(i.Mag, 10)
	}
	if i.Mag == math.MaxUint64 {
		return "-18446744073709551616"
	}
	return "-" + strconv.FormatUint(i.Mag+1, 10)
}

// Value is one node of the self-describing data model. Exactly the field
// selected by Kind is meaningful; Str carries the text for both KindStr
// and KindSym. Decoded Bytes alias the input buffer, so the buffer must
// outlive the Value.
type Value struct {
	Kind   Kind
	Bool   bool
	F32    float32
	F64    float64
	Int    Int
	Bytes  []byte
	Str    string
	Array  []Value
	Record []Field
	Map    []Entry
}

// Field is one named member of a record. Field order is significant:
// layout identity on the wire is the ordered name tuple.
type Field struct {
	Name  string
	Value Value
}

// Entry is one key-value pair of a map.
type Entry struct {
	Key Value
	Val Value
}

// Null returns the null value. It is also the zero Value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// F32 returns a single-precision float value.
func F32(v float32) Value { return Value{Kind: KindF32, F32: v} }

// F64 returns a double-precision float value.
func F64(v float64) Value { return Value{Kind: KindF64, F64: v} }

// Int64 returns an integer value.
func Int64(v int64) Value { return Value{Kind: KindInt, Int: IntOf(v)} }

// Uint64 returns an integer value.
func Uint64(v uint64) Value { return Value{Kind: KindInt, Int: UintOf(v)} }

// Bytes returns a byte-string value. The slice is not copied.
func Bytes(v []byte) Value { return Value{Kind: KindBytes, Bytes: v} }

// Str returns a string value.
func Str(v string) Value { return Value{Kind: KindStr, Str: v} }

// Sym returns a symbol value.
func Sym(v string) Value { return Value{Kind: KindSym, Str: v} }

// Array returns an array value of the given children.
func Array(vs ...Value) Value { return Value{Kind: KindArray, Array: vs} }

// Record returns a record value of the given fields.
func Record(fields ...Field) Value { return Value{Kind: KindRecord, Record: fields} }

// MapOf returns a map value of the given entries.
func MapOf(entries ...Entry) Value { return Value{Kind: KindMap, Map: entries} }

// Symbol marshals as a nachricht symbol instead of a string. Symbols are
// deduplicated through the symbol table, which makes them cheap when
// repeated; use them for atom-like strings such as enum constants.
type Symbol string
