package textrep

import (
	"fmt"
	"math"
	"strconv"

	nachricht "github.com/nachricht/nachricht-go"
)

// Parse reads the textual representation of exactly one value.
func Parse(src []byte) (nachricht.Value, error) {
	p := &parser{lx: newLexer(src)}
	v, err := p.parseValue()
	if err != nil {
		return nachricht.Value{}, err
	}
	if p.lx.cur.kind != tokEOF {
		return nachricht.Value{}, p.errorf("trailing input after value")
	}
	return v, nil
}

// ParseString is Parse over a string.
func ParseString(src string) (nachricht.Value, error) {
	return Parse([]byte(src))
}

type parser struct {
	lx *lexer
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("textrep: %s", fmt.Sprintf(format, args...))
}

func (p *parser) tokenError() error {
	cur := p.lx.cur
	switch cur.kind {
	case tokErr:
		return p.errorf("%s", cur.lit)
	case tokEOF:
		return p.errorf("unexpected end of input")
	default:
		return p.errorf("unexpected token %q", cur.lit)
	}
}

func (p *parser) parseValue() (nachricht.Value, error) {
	cur := p.lx.cur
	switch cur.kind {
	case tokIdent:
		p.lx.next()
		switch cur.lit {
		case "null":
			return nachricht.Null(), nil
		case "true":
			return nachricht.Bool(true), nil
		case "false":
			return nachricht.Bool(false), nil
		default:
			return nachricht.Value{}, p.errorf("unknown keyword %q", cur.lit)
		}
	case tokNumber:
		p.lx.next()
		return parseInt(cur.lit)
	case tokF32:
		p.lx.next()
		f, err := strconv.ParseFloat(cur.lit, 32)
		if err != nil {
			return nachricht.Value{}, p.errorf("bad f32 literal %q", cur.lit)
		}
		return nachricht.F32(float32(f)), nil
	case tokF64:
		p.lx.next()
		f, err := strconv.ParseFloat(cur.lit, 64)
		if err != nil {
			return nachricht.Value{}, p.errorf("bad f64 literal %q", cur.lit)
		}
		return nachricht.F64(f), nil
	case tokString:
		p.lx.next()
		return nachricht.Str(cur.lit), nil
	case tokSymbol:
		p.lx.next()
		return nachricht.Sym(cur.lit), nil
	case tokBytes:
		p.lx.next()
		return nachricht.Bytes(cur.bytes), nil
	case tokLParen:
		return p.parseRecord()
	case tokLBrack:
		return p.parseArray()
	case tokLBrace:
		return p.parseMap()
	default:
		return nachricht.Value{}, p.tokenError()
	}
}

func (p *parser) parseRecord() (nachricht.Value, error) {
	p.lx.next() // (
	var fields []nachricht.Field
	for p.lx.cur.kind != tokRParen {
		name, err := p.parseKey()
		if err != nil {
			return nachricht.Value{}, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nachricht.Value{}, err
		}
		fields = append(fields, nachricht.Field{Name: name, Value: v})
		if !p.separator(tokRParen) {
			return nachricht.Value{}, p.tokenError()
		}
	}
	p.lx.next() // )
	return nachricht.Record(fields...), nil
}

func (p *parser) parseKey() (string, error) {
	cur := p.lx.cur
	if cur.kind != tokIdent && cur.kind != tokString && cur.kind != tokNumber {
		return "", p.tokenError()
	}
	p.lx.next()
	if p.lx.cur.kind != tokColon {
		return "", p.tokenError()
	}
	p.lx.next()
	return cur.lit, nil
}

func (p *parser) parseArray() (nachricht.Value, error) {
	p.lx.next() // [
	var elems []nachricht.Value
	for p.lx.cur.kind != tokRBrack {
		v, err := p.parseValue()
		if err != nil {
			return nachricht.Value{}, err
		}
		elems = append(elems, v)
		if !p.separator(tokRBrack) {
			return nachricht.Value{}, p.tokenError()
		}
	}
	p.lx.next() // ]
	return nachricht.Array(elems...), nil
}

func (p *parser) parseMap() (nachricht.Value, error) {
	p.lx.next() // {
	var entries []nachricht.Entry
	for p.lx.cur.kind != tokRBrace {
		key, err := p.parseValue()
		if err != nil {
			return nachricht.Value{}, err
		}
		if p.lx.cur.kind != tokColon {
			return nachricht.Value{}, p.tokenError()
		}
		p.lx.next()
		val, err := p.parseValue()
		if err != nil {
			return nachricht.Value{}, err
		}
		entries = append(entries, nachricht.Entry{Key: key, Val: val})
		if !p.separator(tokRBrace) {
			return nachricht.Value{}, p.tokenError()
		}
	}
	p.lx.next() // }
	return nachricht.MapOf(entries...), nil
}

// separator consumes an optional comma and reports whether the next
// element or the closing token may follow.
func (p *parser) separator(closing tokKind) bool {
	if p.lx.cur.kind == tokComma {
		p.lx.next()
		return true
	}
	return p.lx.cur.kind == closing
}

// minNeg is the textual form of -2^64, the only magnitude that does not
// fit uint64.
const minNeg = "18446744073709551616"

func parseInt(lit string) (nachricht.Value, error) {
	neg := false
	digits := lit
	if len(lit) > 0 && lit[0] == '-' {
		neg = true
		digits = lit[1:]
	}
	if neg && digits == minNeg {
		return nachricht.Value{Kind: nachricht.KindInt, Int: nachricht.Int{Neg: true, Mag: math.MaxUint64}}, nil
	}
	mag, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nachricht.Value{}, fmt.Errorf("textrep: integer %q out of range", lit)
	}
	if !neg || mag == 0 {
		return nachricht.Uint64(mag), nil
	}
	return nachricht.Value{Kind: nachricht.KindInt, Int: nachricht.Int{Neg: true, Mag: mag - 1}}, nil
}
