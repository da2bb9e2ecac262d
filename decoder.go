package nachricht

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"

	"github.com/nachricht/nachricht-go/internal/wire"
)

// maxPrealloc caps the initial capacity of collections sized from wire
// lengths. Wire lengths are untrusted; collections grow on demand past
// this bound instead of allocating up front.
const maxPrealloc = 1024

// Decoder reads nachricht values from a byte slice. A Decoder owns the
// mirror symbol table for one decoding session. Byte strings in the
// result alias the input buffer.
type Decoder struct {
	buf  []byte
	pos  int
	refs []refEntry
}

// NewDecoder creates a decoder session over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// DecodeValue decodes the next value of the generic data model.
func (d *Decoder) DecodeValue() (Value, error) {
	return d.decodeValue()
}

// Rest returns the unconsumed tail of the input.
func (d *Decoder) Rest() []byte {
	return d.buf[d.pos:]
}

// Decode decodes exactly one value from the front of buf and returns it
// together with the remaining bytes. Trailing bytes are not an error
// here; use DecodeAll to reject them.
func Decode(buf []byte) (Value, []byte, error) {
	d := NewDecoder(buf)
	v, err := d.decodeValue()
	if err != nil {
		return Value{}, buf, err
	}
	return v, d.Rest(), nil
}

// DecodeAll decodes one value and errors if any input remains.
func DecodeAll(buf []byte) (Value, error) {
	d := NewDecoder(buf)
	v, err := d.decodeValue()
	if err != nil {
		return Value{}, err
	}
	if len(d.Rest()) != 0 {
		return Value{}, d.errAt(ErrTrailingInput, "%d bytes after value", len(d.Rest()))
	}
	return v, nil
}

func (d *Decoder) errAt(kind ErrorKind, format string, args ...any) *Error {
	e := errf(kind, format, args...)
	e.Offset = d.pos
	return e
}

func (d *Decoder) readHeader() (wire.Header, error) {
	h, n, err := wire.Parse(d.buf[d.pos:])
	if err != nil {
		if errors.Is(err, wire.ErrShortBuffer) {
			return wire.Header{}, d.errAt(ErrUnexpectedEOF, "input ends inside header")
		}
		return wire.Header{}, d.errAt(ErrMessage, "%v", err)
	}
	d.pos += n
	return h, nil
}

func (d *Decoder) peekHeader() (wire.Header, error) {
	h, _, err := wire.Parse(d.buf[d.pos:])
	if err != nil {
		if errors.Is(err, wire.ErrShortBuffer) {
			return wire.Header{}, d.errAt(ErrUnexpectedEOF, "input ends inside header")
		}
		return wire.Header{}, d.errAt(ErrMessage, "%v", err)
	}
	return h, nil
}

// readBytes returns n payload bytes as a subslice of the input.
func (d *Decoder) readBytes(n uint64) ([]byte, error) {
	if n > uint64(len(d.buf)-d.pos) {
		return nil, d.errAt(ErrUnexpectedEOF, "need %d payload bytes, have %d", n, len(d.buf)-d.pos)
	}
	p := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return p, nil
}

// readStr returns n payload bytes as a validated string.
func (d *Decoder) readStr(n uint64) (string, error) {
	p, err := d.readBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", d.errAt(ErrInvalidUTF8, "")
	}
	return string(p), nil
}

// resolveRef returns the table entry for index idx.
func (d *Decoder) resolveRef(idx uint64) (refEntry, error) {
	if idx >= uint64(len(d.refs)) {
		return refEntry{}, d.errAt(ErrUnknownReference, "index %d, table length %d", idx, len(d.refs))
	}
	return d.refs[idx], nil
}

func (d *Decoder) decodeValue() (Value, error) {
	h, err := d.readHeader()
	if err != nil {
		return Value{}, err
	}
	return d.decodeBody(h)
}

func (d *Decoder) decodeBody(h wire.Header) (Value, error) {
	switch h.Kind {
	case wire.KindNull:
		return Value{}, nil
	case wire.KindTrue:
		return Bool(true), nil
	case wire.KindFalse:
		return Bool(false), nil
	case wire.KindF32:
		p, err := d.readBytes(4)
		if err != nil {
			return Value{}, err
		}
		return F32(math.Float32frombits(binary.BigEndian.Uint32(p))), nil
	case wire.KindF64:
		p, err := d.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return F64(math.Float64frombits(binary.BigEndian.Uint64(p))), nil
	case wire.KindInt:
		return Value{Kind: KindInt, Int: Int{Neg: h.Neg, Mag: h.Val}}, nil
	case wire.KindBytes:
		p, err := d.readBytes(h.Val)
		if err != nil {
			return Value{}, err
		}
		return Bytes(p), nil
	case wire.KindStr:
		s, err := d.readStr(h.Val)
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	case wire.KindSym:
		s, err := d.readStr(h.Val)
		if err != nil {
			return Value{}, err
		}
		d.refs = append(d.refs, refEntry{kind: refAtom, atom: s})
		return Sym(s), nil
	case wire.KindArr:
		elems := make([]Value, 0, capHint(h.Val))
		for i := uint64(0); i < h.Val; i++ {
			child, err := d.decodeValue()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, child)
		}
		return Value{Kind: KindArray, Array: elems}, nil
	case wire.KindRec:
		fields := make([]Field, 0, capHint(h.Val))
		names := make([]string, 0, capHint(h.Val))
		for i := uint64(0); i < h.Val; i++ {
			name, err := d.readSymbol()
			if err != nil {
				return Value{}, err
			}
			child, err := d.decodeValue()
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: name, Value: child})
			names = append(names, name)
		}
		d.refs = append(d.refs, refEntry{kind: refLayout, layout: names})
		return Value{Kind: KindRecord, Record: fields}, nil
	case wire.KindMap:
		entries := make([]Entry, 0, capHint(h.Val))
		for i := uint64(0); i < h.Val; i++ {
			key, err := d.decodeValue()
			if err != nil {
				return Value{}, err
			}
			val, err := d.decodeValue()
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: key, Val: val})
		}
		return Value{Kind: KindMap, Map: entries}, nil
	case wire.KindRef:
		entry, err := d.resolveRef(h.Val)
		if err != nil {
			return Value{}, err
		}
		if entry.kind == refAtom {
			return Sym(entry.atom), nil
		}
		// layout reference: the field values follow without names
		fields := make([]Field, 0, len(entry.layout))
		for _, name := range entry.layout {
			child, err := d.decodeValue()
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: name, Value: child})
		}
		return Value{Kind: KindRecord, Record: fields}, nil
	default:
		return Value{}, d.errAt(ErrMessage, "unhandled header kind %d", h.Kind)
	}
}

// beginRecord positions the decoder inside a record for field-by-field
// consumption. The returned layout is nil when the record is emitted in
// full: names then interleave the stream and the caller must read them
// with readSymbol and register the layout with endRecord.
func (d *Decoder) beginRecord() (layout []string, n uint64, err error) {
	h, err := d.readHeader()
	if err != nil {
		return nil, 0, err
	}
	switch h.Kind {
	case wire.KindRec:
		return nil, h.Val, nil
	case wire.KindRef:
		entry, err := d.resolveRef(h.Val)
		if err != nil {
			return nil, 0, err
		}
		if entry.kind != refLayout {
			return nil, 0, d.errAt(ErrUnexpectedWireKind, "expected record, got symbol reference")
		}
		return entry.layout, uint64(len(entry.layout)), nil
	default:
		return nil, 0, d.errAt(ErrUnexpectedWireKind, "expected record, got %v", kindName(h.Kind))
	}
}

// endRecord registers the layout of a record that was read in full.
func (d *Decoder) endRecord(names []string) {
	d.refs = append(d.refs, refEntry{kind: refLayout, layout: names})
}

// expectArray consumes an array header and returns the child count.
func (d *Decoder) expectArray() (uint64, error) {
	h, err := d.readHeader()
	if err != nil {
		return 0, err
	}
	if h.Kind != wire.KindArr {
		return 0, d.errAt(ErrUnexpectedWireKind, "expected array, got %v", kindName(h.Kind))
	}
	return h.Val, nil
}

// expectMap consumes a map header and returns the entry count.
func (d *Decoder) expectMap() (uint64, error) {
	h, err := d.readHeader()
	if err != nil {
		return 0, err
	}
	if h.Kind != wire.KindMap {
		return 0, d.errAt(ErrUnexpectedWireKind, "expected map, got %v", kindName(h.Kind))
	}
	return h.Val, nil
}

// skipValue consumes one value and discards it. Decoding cannot actually
// be skipped: symbols and layouts inside still enter the table.
func (d *Decoder) skipValue() error {
	_, err := d.decodeValue()
	return err
}

func capHint(n uint64) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}

func kindName(k wire.Kind) string {
	switch k {
	case wire.KindNull:
		return "null"
	case wire.KindTrue, wire.KindFalse:
		return "bool"
	case wire.KindF32:
		return "f32"
	case wire.KindF64:
		return "f64"
	case wire.KindBytes:
		return "bytes"
	case wire.KindInt:
		return "integer"
	case wire.KindStr:
		return "string"
	case wire.KindSym:
		return "symbol"
	case wire.KindArr:
		return "array"
	case wire.KindRec:
		return "record"
	case wire.KindMap:
		return "map"
	case wire.KindRef:
		return "reference"
	default:
		return "invalid"
	}
}
