package nachricht

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/nachricht/nachricht-go/internal/wire"
)

// Encoder writes nachricht values to an io.Writer. An Encoder owns the
// symbol table for one encoding session; symbols and record layouts are
// deduplicated across everything written through it. Do not reuse an
// Encoder across messages that will be decoded independently: the decoder
// rebuilds the table from a single message.
type Encoder struct {
	w       io.Writer
	scratch []byte
	syms    *symTable
}

// NewEncoder creates an encoder session writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, syms: newSymTable()}
}

// Encode writes the encoding of an arbitrary Go value, mapping it through
// the reflection adapter in marshal.go. Value trees are passed through to
// EncodeValue.
func (e *Encoder) Encode(v any) error {
	return e.encodeReflect(valueOf(v))
}

// EncodeValue writes one value of the generic data model.
func (e *Encoder) EncodeValue(v Value) error {
	switch v.Kind {
	case KindNull:
		return e.Null()
	case KindBool:
		return e.Bool(v.Bool)
	case KindF32:
		return e.F32(v.F32)
	case KindF64:
		return e.F64(v.F64)
	case KindInt:
		return e.Int(v.Int)
	case KindBytes:
		return e.Bytes(v.Bytes)
	case KindStr:
		return e.Str(v.Str)
	case KindSym:
		return e.Sym(v.Str)
	case KindArray:
		if err := e.BeginArray(len(v.Array)); err != nil {
			return err
		}
		for _, child := range v.Array {
			if err := e.EncodeValue(child); err != nil {
				return err
			}
		}
		return nil
	case KindRecord:
		names := make([]string, len(v.Record))
		for i := range v.Record {
			names[i] = v.Record[i].Name
		}
		referenced, err := e.BeginRecord(names)
		if err != nil {
			return err
		}
		for _, f := range v.Record {
			if !referenced {
				if err := e.FieldName(f.Name); err != nil {
					return err
				}
			}
			if err := e.EncodeValue(f.Value); err != nil {
				return err
			}
		}
		return e.EndRecord(names, referenced)
	case KindMap:
		if err := e.BeginMap(len(v.Map)); err != nil {
			return err
		}
		for _, entry := range v.Map {
			if err := e.EncodeValue(entry.Key); err != nil {
				return err
			}
			if err := e.EncodeValue(entry.Val); err != nil {
				return err
			}
		}
		return nil
	default:
		return errf(ErrMessage, "cannot encode invalid value kind %d", v.Kind)
	}
}

// Null writes the null value, the single octet 0x00.
func (e *Encoder) Null() error {
	return e.flush(wire.AppendFixed(e.scratch[:0], wire.FixedNull))
}

// Bool writes a boolean.
func (e *Encoder) Bool(v bool) error {
	f := byte(wire.FixedFalse)
	if v {
		f = wire.FixedTrue
	}
	return e.flush(wire.AppendFixed(e.scratch[:0], f))
}

// F32 writes a single-precision float.
func (e *Encoder) F32(v float32) error {
	buf := wire.AppendFixed(e.scratch[:0], wire.FixedF32)
	buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v))
	return e.flush(buf)
}

// F64 writes a double-precision float.
func (e *Encoder) F64(v float64) error {
	buf := wire.AppendFixed(e.scratch[:0], wire.FixedF64)
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
	return e.flush(buf)
}

// Int writes an integer.
func (e *Encoder) Int(v Int) error {
	return e.flush(wire.AppendInt(e.scratch[:0], v.Neg, v.Mag))
}

// Bytes writes a byte string.
func (e *Encoder) Bytes(p []byte) error {
	if err := e.flush(wire.AppendBytes(e.scratch[:0], uint64(len(p)))); err != nil {
		return err
	}
	return e.write(p)
}

// Str writes a string. The input must be valid UTF-8.
func (e *Encoder) Str(s string) error {
	if !utf8.ValidString(s) {
		return errf(ErrInvalidUTF8, "string %q", s)
	}
	if err := e.flush(wire.AppendVar(e.scratch[:0], wire.Str, uint64(len(s)))); err != nil {
		return err
	}
	return e.writeString(s)
}

// Sym writes a symbol. The first occurrence of a string is emitted in
// full and enters the symbol table; later occurrences emit a reference.
func (e *Encoder) Sym(s string) error {
	if idx, ok := e.syms.atom(s); ok {
		return e.flush(wire.AppendVar(e.scratch[:0], wire.Ref, idx))
	}
	if !utf8.ValidString(s) {
		return errf(ErrInvalidUTF8, "symbol %q", s)
	}
	e.syms.addAtom(s)
	if err := e.flush(wire.AppendVar(e.scratch[:0], wire.Sym, uint64(len(s)))); err != nil {
		return err
	}
	return e.writeString(s)
}

// BeginArray writes an array header for n children. The n children must
// follow through further calls.
func (e *Encoder) BeginArray(n int) error {
	if n < 0 {
		return errf(ErrLengthRequired, "array length unknown")
	}
	return e.flush(wire.AppendVar(e.scratch[:0], wire.Arr, uint64(n)))
}

// BeginMap writes a map header for n key-value entries.
func (e *Encoder) BeginMap(n int) error {
	if n < 0 {
		return errf(ErrLengthRequired, "map length unknown")
	}
	return e.flush(wire.AppendVar(e.scratch[:0], wire.Map, uint64(n)))
}

// BeginRecord starts a record with the given ordered field names. When
// the layout has been emitted before, a reference is written and the
// caller must emit field values only; otherwise a record header is
// written and the caller emits FieldName before each value. The return
// reports which case applies and must be passed to EndRecord.
func (e *Encoder) BeginRecord(names []string) (referenced bool, err error) {
	if idx, ok := e.syms.layout(names); ok {
		return true, e.flush(wire.AppendVar(e.scratch[:0], wire.Ref, idx))
	}
	return false, e.flush(wire.AppendVar(e.scratch[:0], wire.Rec, uint64(len(names))))
}

// FieldName writes one field name of a record emitted in full.
func (e *Encoder) FieldName(name string) error {
	return e.Sym(name)
}

// EndRecord completes a record. A record emitted in full registers its
// layout now, after all member names have entered the table, mirroring
// the decoder.
func (e *Encoder) EndRecord(names []string, referenced bool) error {
	if !referenced {
		e.syms.addLayout(names)
	}
	return nil
}

func (e *Encoder) flush(buf []byte) error {
	e.scratch = buf[:0]
	return e.write(buf)
}

func (e *Encoder) write(p []byte) error {
	if _, err := e.w.Write(p); err != nil {
		return ioErr(err)
	}
	return nil
}

func (e *Encoder) writeString(s string) error {
	if _, err := io.WriteString(e.w, s); err != nil {
		return ioErr(err)
	}
	return nil
}

// Encode encodes a single value of the generic data model to a fresh
// byte slice.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeValue(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo encodes a single value of the generic data model to w.
func EncodeTo(v Value, w io.Writer) error {
	return NewEncoder(w).EncodeValue(v)
}
