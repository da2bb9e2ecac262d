package nachricht

import (
	"bytes"
	"reflect"
	"sort"
	"strings"
)

// Marshal encodes an arbitrary Go value into a nachricht byte slice.
//
// The mapping follows the data model: booleans, integers and floats
// become the matching atomic values, strings become Str, []byte becomes
// Bytes, nil pointers become Null and non-nil pointers encode their
// pointee, slices and arrays become Array, maps become Map with keys in
// sorted order, and structs become Record through the symbol-table
// protocol with fields in declaration order. A Symbol value becomes Sym.
//
// Struct fields use the `nachricht:"name"` tag to rename and
// `nachricht:"-"` to skip. A struct whose tagged fields all carry the
// `,variant` option is a variant: exactly one field must be non-nil, a
// *struct{} field encodes as a bare symbol and any other pointer field
// encodes as a single-field record named after it.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	valueType  = reflect.TypeOf(Value{})
	symbolType = reflect.TypeOf(Symbol(""))
	byteType   = reflect.TypeOf(byte(0))
	unitType   = reflect.TypeOf(struct{}{})
)

func valueOf(v any) reflect.Value {
	return reflect.ValueOf(v)
}

// fieldSpec is one encodable struct field.
type fieldSpec struct {
	name    string
	index   int
	variant bool
}

// structFields lists the encodable fields of a struct type in declaration
// order and reports whether the type is a variant struct. Mixing variant
// and plain fields is an error.
func structFields(rt reflect.Type) ([]fieldSpec, bool, error) {
	var fields []fieldSpec
	variants := 0
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := f.Tag.Get("nachricht")
		if tag == "-" {
			continue
		}
		spec := fieldSpec{name: f.Name, index: i}
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				spec.name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "variant" {
					spec.variant = true
				}
			}
		}
		if spec.variant {
			variants++
		}
		fields = append(fields, spec)
	}
	if variants > 0 && variants != len(fields) {
		return nil, false, errf(ErrMessage, "struct %s mixes variant and plain fields", rt)
	}
	return fields, variants > 0, nil
}

func (e *Encoder) encodeReflect(rv reflect.Value) error {
	if !rv.IsValid() {
		return e.Null()
	}
	switch rv.Type() {
	case valueType:
		return e.EncodeValue(rv.Interface().(Value))
	case symbolType:
		return e.Sym(rv.String())
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return e.Null()
		}
		return e.encodeReflect(rv.Elem())
	case reflect.Bool:
		return e.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.Int(IntOf(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.Int(UintOf(rv.Uint()))
	case reflect.Float32:
		return e.F32(float32(rv.Float()))
	case reflect.Float64:
		return e.F64(rv.Float())
	case reflect.String:
		return e.Str(rv.String())
	case reflect.Slice:
		if rv.Type().Elem() == byteType {
			return e.Bytes(rv.Bytes())
		}
		return e.encodeSeq(rv)
	case reflect.Array:
		return e.encodeSeq(rv)
	case reflect.Map:
		return e.encodeMap(rv)
	case reflect.Struct:
		if rv.Type() == unitType {
			return e.Null()
		}
		return e.encodeStruct(rv)
	default:
		return errf(ErrMessage, "cannot encode values of type %s", rv.Type())
	}
}

func (e *Encoder) encodeSeq(rv reflect.Value) error {
	if err := e.BeginArray(rv.Len()); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := e.encodeReflect(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap emits map entries in sorted key order so that encoding the
// same value twice yields byte-identical output.
func (e *Encoder) encodeMap(rv reflect.Value) error {
	keys := rv.MapKeys()
	switch rv.Type().Key().Kind() {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	case reflect.Float32, reflect.Float64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	case reflect.Bool:
		sort.Slice(keys, func(i, j int) bool { return !keys[i].Bool() && keys[j].Bool() })
	default:
		return errf(ErrMessage, "map key type %s has no deterministic order", rv.Type().Key())
	}
	if err := e.BeginMap(rv.Len()); err != nil {
		return err
	}
	for _, k := range keys {
		if err := e.encodeReflect(k); err != nil {
			return err
		}
		if err := e.encodeReflect(rv.MapIndex(k)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeStruct(rv reflect.Value) error {
	fields, isVariant, err := structFields(rv.Type())
	if err != nil {
		return err
	}
	if isVariant {
		return e.encodeVariant(rv, fields)
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	referenced, err := e.BeginRecord(names)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if !referenced {
			if err := e.FieldName(f.name); err != nil {
				return err
			}
		}
		if err := e.encodeReflect(rv.Field(f.index)); err != nil {
			return err
		}
	}
	return e.EndRecord(names, referenced)
}

func (e *Encoder) encodeVariant(rv reflect.Value, fields []fieldSpec) error {
	present := -1
	for i, f := range fields {
		fv := rv.Field(f.index)
		if fv.Kind() != reflect.Pointer {
			return errf(ErrMessage, "variant field %s.%s must be a pointer", rv.Type(), f.name)
		}
		if !fv.IsNil() {
			if present >= 0 {
				return errf(ErrMessage, "variant struct %s has more than one field set", rv.Type())
			}
			present = i
		}
	}
	if present < 0 {
		return errf(ErrMessage, "variant struct %s has no field set", rv.Type())
	}
	f := fields[present]
	fv := rv.Field(f.index)
	if fv.Type().Elem() == unitType {
		return e.Sym(f.name)
	}
	names := []string{f.name}
	referenced, err := e.BeginRecord(names)
	if err != nil {
		return err
	}
	if !referenced {
		if err := e.FieldName(f.name); err != nil {
			return err
		}
	}
	if err := e.encodeReflect(fv.Elem()); err != nil {
		return err
	}
	return e.EndRecord(names, referenced)
}
