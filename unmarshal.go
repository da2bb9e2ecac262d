package nachricht

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/nachricht/nachricht-go/internal/wire"
)

// Unmarshal decodes data into the value pointed to by v, using the
// inverse of the Marshal mapping. The wire kind of every value is checked
// against the target type; integers are range-checked into the target
// width. Record fields unknown to the target struct are skipped, fields
// missing on the wire keep their zero value.
//
// []byte targets alias the input buffer instead of copying, so data must
// outlive the decoded value. Unmarshal fails with a trailing-input error
// when bytes remain after the value.
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errf(ErrMessage, "Unmarshal target must be a non-nil pointer")
	}
	d := NewDecoder(data)
	if err := d.decodeReflect(rv.Elem()); err != nil {
		return err
	}
	if len(d.Rest()) != 0 {
		return d.errAt(ErrTrailingInput, "%d bytes after value", len(d.Rest()))
	}
	return nil
}

func (d *Decoder) decodeReflect(rv reflect.Value) error {
	switch rv.Type() {
	case valueType:
		v, err := d.decodeValue()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(v))
		return nil
	case symbolType:
		s, err := d.readSymbol()
		if err != nil {
			return err
		}
		rv.SetString(s)
		return nil
	}
	switch rv.Kind() {
	case reflect.Pointer:
		h, err := d.peekHeader()
		if err != nil {
			return err
		}
		if h.Kind == wire.KindNull {
			_, _ = d.readHeader()
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.decodeReflect(rv.Elem())
	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return errf(ErrMessage, "cannot decode into non-empty interface %s", rv.Type())
		}
		v, err := d.decodeValue()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(v))
		return nil
	case reflect.Bool:
		h, err := d.readHeader()
		if err != nil {
			return err
		}
		switch h.Kind {
		case wire.KindTrue:
			rv.SetBool(true)
		case wire.KindFalse:
			rv.SetBool(false)
		default:
			return d.errAt(ErrUnexpectedWireKind, "expected bool, got %v", kindName(h.Kind))
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		iv, err := d.decodeWireInt()
		if err != nil {
			return err
		}
		x, ok := iv.Int64()
		if !ok || rv.OverflowInt(x) {
			return d.errAt(ErrIntegerOutOfRange, "%v does not fit %s", iv, rv.Type())
		}
		rv.SetInt(x)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		iv, err := d.decodeWireInt()
		if err != nil {
			return err
		}
		x, ok := iv.Uint64()
		if !ok || rv.OverflowUint(x) {
			return d.errAt(ErrIntegerOutOfRange, "%v does not fit %s", iv, rv.Type())
		}
		rv.SetUint(x)
		return nil
	case reflect.Float32:
		h, err := d.readHeader()
		if err != nil {
			return err
		}
		if h.Kind != wire.KindF32 {
			return d.errAt(ErrUnexpectedWireKind, "expected f32, got %v", kindName(h.Kind))
		}
		p, err := d.readBytes(4)
		if err != nil {
			return err
		}
		rv.SetFloat(float64(math.Float32frombits(binary.BigEndian.Uint32(p))))
		return nil
	case reflect.Float64:
		h, err := d.readHeader()
		if err != nil {
			return err
		}
		if h.Kind != wire.KindF64 {
			return d.errAt(ErrUnexpectedWireKind, "expected f64, got %v", kindName(h.Kind))
		}
		p, err := d.readBytes(8)
		if err != nil {
			return err
		}
		rv.SetFloat(math.Float64frombits(binary.BigEndian.Uint64(p)))
		return nil
	case reflect.String:
		h, err := d.readHeader()
		if err != nil {
			return err
		}
		switch h.Kind {
		case wire.KindStr:
			s, err := d.readStr(h.Val)
			if err != nil {
				return err
			}
			rv.SetString(s)
		case wire.KindSym, wire.KindRef:
			s, err := d.finishSymbol(h)
			if err != nil {
				return err
			}
			rv.SetString(s)
		default:
			return d.errAt(ErrUnexpectedWireKind, "expected string, got %v", kindName(h.Kind))
		}
		return nil
	case reflect.Slice:
		if rv.Type().Elem() == byteType {
			h, err := d.readHeader()
			if err != nil {
				return err
			}
			if h.Kind != wire.KindBytes {
				return d.errAt(ErrUnexpectedWireKind, "expected bytes, got %v", kindName(h.Kind))
			}
			p, err := d.readBytes(h.Val)
			if err != nil {
				return err
			}
			rv.SetBytes(p)
			return nil
		}
		n, err := d.expectArray()
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(rv.Type(), 0, capHint(n))
		for i := uint64(0); i < n; i++ {
			elem := reflect.New(rv.Type().Elem()).Elem()
			if err := d.decodeReflect(elem); err != nil {
				return err
			}
			s = reflect.Append(s, elem)
		}
		rv.Set(s)
		return nil
	case reflect.Array:
		n, err := d.expectArray()
		if err != nil {
			return err
		}
		if n != uint64(rv.Len()) {
			return d.errAt(ErrUnexpectedWireKind, "array of %d into [%d]%s", n, rv.Len(), rv.Type().Elem())
		}
		for i := 0; i < rv.Len(); i++ {
			if err := d.decodeReflect(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		n, err := d.expectMap()
		if err != nil {
			return err
		}
		m := reflect.MakeMapWithSize(rv.Type(), capHint(n))
		for i := uint64(0); i < n; i++ {
			key := reflect.New(rv.Type().Key()).Elem()
			if err := d.decodeReflect(key); err != nil {
				return err
			}
			val := reflect.New(rv.Type().Elem()).Elem()
			if err := d.decodeReflect(val); err != nil {
				return err
			}
			m.SetMapIndex(key, val)
		}
		rv.Set(m)
		return nil
	case reflect.Struct:
		if rv.Type() == unitType {
			h, err := d.readHeader()
			if err != nil {
				return err
			}
			if h.Kind != wire.KindNull {
				return d.errAt(ErrUnexpectedWireKind, "expected null, got %v", kindName(h.Kind))
			}
			return nil
		}
		return d.decodeStruct(rv)
	default:
		return errf(ErrMessage, "cannot decode into values of type %s", rv.Type())
	}
}

func (d *Decoder) decodeWireInt() (Int, error) {
	h, err := d.readHeader()
	if err != nil {
		return Int{}, err
	}
	if h.Kind != wire.KindInt {
		return Int{}, d.errAt(ErrUnexpectedWireKind, "expected integer, got %v", kindName(h.Kind))
	}
	return Int{Neg: h.Neg, Mag: h.Val}, nil
}

// readSymbol reads a symbol-or-reference item: either a SYM, which enters
// the table, or a REF that must resolve to an atom.
func (d *Decoder) readSymbol() (string, error) {
	h, err := d.readHeader()
	if err != nil {
		return "", err
	}
	return d.finishSymbol(h)
}

func (d *Decoder) finishSymbol(h wire.Header) (string, error) {
	switch h.Kind {
	case wire.KindSym:
		s, err := d.readStr(h.Val)
		if err != nil {
			return "", err
		}
		d.refs = append(d.refs, refEntry{kind: refAtom, atom: s})
		return s, nil
	case wire.KindRef:
		entry, err := d.resolveRef(h.Val)
		if err != nil {
			return "", err
		}
		if entry.kind != refAtom {
			return "", d.errAt(ErrUnexpectedWireKind, "layout reference where a symbol was expected")
		}
		return entry.atom, nil
	default:
		return "", d.errAt(ErrUnexpectedWireKind, "expected symbol, got %v", kindName(h.Kind))
	}
}

func (d *Decoder) decodeStruct(rv reflect.Value) error {
	fields, isVariant, err := structFields(rv.Type())
	if err != nil {
		return err
	}
	if isVariant {
		return d.decodeVariant(rv, fields)
	}
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.name] = i
	}
	layout, n, err := d.beginRecord()
	if err != nil {
		return err
	}
	names := make([]string, 0, capHint(n))
	for i := uint64(0); i < n; i++ {
		var name string
		if layout != nil {
			name = layout[i]
		} else {
			name, err = d.readSymbol()
			if err != nil {
				return err
			}
			names = append(names, name)
		}
		idx, ok := byName[name]
		if !ok {
			// unknown field: decode and discard, the table must stay in sync
			if err := d.skipValue(); err != nil {
				return err
			}
			continue
		}
		if err := d.decodeReflect(rv.Field(fields[idx].index)); err != nil {
			return err
		}
	}
	if layout == nil {
		d.endRecord(names)
	}
	return nil
}

func (d *Decoder) decodeVariant(rv reflect.Value, fields []fieldSpec) error {
	h, err := d.peekHeader()
	if err != nil {
		return err
	}
	unit := h.Kind == wire.KindSym
	if h.Kind == wire.KindRef {
		entry, err := d.resolveRef(h.Val)
		if err != nil {
			return err
		}
		unit = entry.kind == refAtom
	}
	if unit {
		name, err := d.readSymbol()
		if err != nil {
			return err
		}
		f, err := variantField(rv, fields, name)
		if err != nil {
			return err
		}
		fv := rv.Field(f.index)
		if fv.Type().Elem() != unitType {
			return d.errAt(ErrUnexpectedWireKind, "variant %s requires a payload", name)
		}
		fv.Set(reflect.New(unitType))
		return nil
	}
	layout, n, err := d.beginRecord()
	if err != nil {
		return err
	}
	if n != 1 {
		return d.errAt(ErrUnexpectedWireKind, "variant record has %d fields, want 1", n)
	}
	var name string
	if layout != nil {
		name = layout[0]
	} else {
		name, err = d.readSymbol()
		if err != nil {
			return err
		}
	}
	f, err := variantField(rv, fields, name)
	if err != nil {
		return err
	}
	fv := rv.Field(f.index)
	if fv.IsNil() {
		fv.Set(reflect.New(fv.Type().Elem()))
	}
	if err := d.decodeReflect(fv.Elem()); err != nil {
		return err
	}
	if layout == nil {
		d.endRecord([]string{name})
	}
	return nil
}

func variantField(rv reflect.Value, fields []fieldSpec, name string) (fieldSpec, error) {
	for _, f := range fields {
		if f.name == name {
			return f, nil
		}
	}
	return fieldSpec{}, errf(ErrMessage, "unknown variant %s of %s", name, rv.Type())
}
