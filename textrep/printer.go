// Package textrep implements the textual representation of nachricht
// values: a human-readable form with `$`/`$$` float sigils, base64 byte
// strings, `#` symbols and `(...)`, `[...]`, `{...}` containers. Print
// and Parse are inverses over the generic data model.
package textrep

import (
	"encoding/base64"
	"strconv"
	"strings"

	nachricht "github.com/nachricht/nachricht-go"
)

// protected characters force quoting of symbols and record keys.
const protected = "\n\\$ ,:\"'()[]{}#"

// Print renders a value in its canonical textual form.
func Print(v nachricht.Value) string {
	var b strings.Builder
	writeValue(&b, v, 0)
	return b.String()
}

func writeValue(b *strings.Builder, v nachricht.Value, indent int) {
	switch v.Kind {
	case nachricht.KindNull:
		b.WriteString("null")
	case nachricht.KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case nachricht.KindF32:
		b.WriteString("$")
		b.WriteString(strconv.FormatFloat(float64(v.F32), 'g', -1, 32))
	case nachricht.KindF64:
		b.WriteString("$$")
		b.WriteString(strconv.FormatFloat(v.F64, 'g', -1, 64))
	case nachricht.KindInt:
		b.WriteString(v.Int.String())
	case nachricht.KindBytes:
		b.WriteString("'")
		b.WriteString(base64.StdEncoding.EncodeToString(v.Bytes))
		b.WriteString("'")
	case nachricht.KindStr:
		b.WriteString(quote(v.Str))
	case nachricht.KindSym:
		b.WriteString("#")
		writeName(b, v.Str)
	case nachricht.KindArray:
		if len(v.Array) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for _, child := range v.Array {
			pad(b, indent+2)
			writeValue(b, child, indent+2)
			b.WriteString(",\n")
		}
		pad(b, indent)
		b.WriteString("]")
	case nachricht.KindRecord:
		if len(v.Record) == 0 {
			b.WriteString("()")
			return
		}
		b.WriteString("(\n")
		for _, f := range v.Record {
			pad(b, indent+2)
			writeName(b, f.Name)
			b.WriteString(": ")
			writeValue(b, f.Value, indent+2)
			b.WriteString(",\n")
		}
		pad(b, indent)
		b.WriteString(")")
	case nachricht.KindMap:
		if len(v.Map) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for _, entry := range v.Map {
			pad(b, indent+2)
			writeValue(b, entry.Key, indent+2)
			b.WriteString(": ")
			writeValue(b, entry.Val, indent+2)
			b.WriteString(",\n")
		}
		pad(b, indent)
		b.WriteString("}")
	}
}

func pad(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(' ')
	}
}

// writeName renders a symbol or record key, quoting when the bare form
// would not survive the lexer.
func writeName(b *strings.Builder, s string) {
	if needsQuote(s) {
		b.WriteString(quote(s))
	} else {
		b.WriteString(s)
	}
}

func needsQuote(s string) bool {
	if s == "" || strings.ContainsAny(s, protected) {
		return true
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return true
		}
	}
	c := s[0]
	return c == '-' || ('0' <= c && c <= '9')
}

func quote(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n")
	return "\"" + r.Replace(s) + "\""
}
