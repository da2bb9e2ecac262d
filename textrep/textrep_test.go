package textrep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nachricht "github.com/nachricht/nachricht-go"
)

func TestPrintPrimitives(t *testing.T) {
	assert.Equal(t, "null", Print(nachricht.Null()))
	assert.Equal(t, "true", Print(nachricht.Bool(true)))
	assert.Equal(t, "false", Print(nachricht.Bool(false)))
	assert.Equal(t, "123", Print(nachricht.Int64(123)))
	assert.Equal(t, "-123", Print(nachricht.Int64(-123)))
	assert.Equal(t, "$123", Print(nachricht.F32(123)))
	assert.Equal(t, "$$123", Print(nachricht.F64(123)))
	assert.Equal(t, `"abc"`, Print(nachricht.Str("abc")))
	assert.Equal(t, `"a\"b"`, Print(nachricht.Str(`a"b`)))
	assert.Equal(t, "#abc", Print(nachricht.Sym("abc")))
	assert.Equal(t, `#"true or false"`, Print(nachricht.Sym("true or false")))
	assert.Equal(t, "'AQID'", Print(nachricht.Bytes([]byte{1, 2, 3})))
}

func TestPrintRecord(t *testing.T) {
	v := nachricht.Record(
		nachricht.Field{Name: "true or false", Value: nachricht.Bool(false)},
	)
	assert.Equal(t, "(\n  \"true or false\": false,\n)", Print(v))
}

func TestPrintNested(t *testing.T) {
	v := nachricht.Record(
		nachricht.Field{Name: "name", Value: nachricht.Str("Jessica")},
		nachricht.Field{Name: "tags", Value: nachricht.Array(nachricht.Sym("a"), nachricht.Sym("b"))},
	)
	want := "(\n" +
		"  name: \"Jessica\",\n" +
		"  tags: [\n" +
		"    #a,\n" +
		"    #b,\n" +
		"  ],\n" +
		")"
	assert.Equal(t, want, Print(v))
}

func TestParsePrimitives(t *testing.T) {
	cases := map[string]nachricht.Value{
		"null":   nachricht.Null(),
		"true":   nachricht.Bool(true),
		"false":  nachricht.Bool(false),
		"123":    nachricht.Int64(123),
		"-123":   nachricht.Int64(-123),
		"$123":   nachricht.F32(123),
		"$$1.5":  nachricht.F64(1.5),
		`"abc"`:  nachricht.Str("abc"),
		`""`:     nachricht.Str(""),
		"#abc":   nachricht.Sym("abc"),
		"'AQID'": nachricht.Bytes([]byte{1, 2, 3}),
		`#"a b"`: nachricht.Sym("a b"),
		`"a\"b"`: nachricht.Str(`a"b`),
		`"a\\b"`: nachricht.Str(`a\b`),
	}
	for src, want := range cases {
		got, err := ParseString(src)
		require.NoError(t, err, "source %q", src)
		assert.Equal(t, want, got, "source %q", src)
	}
}

func TestParseContainers(t *testing.T) {
	got, err := ParseString("(x: true, y: false)")
	require.NoError(t, err)
	assert.Equal(t, nachricht.Record(
		nachricht.Field{Name: "x", Value: nachricht.Bool(true)},
		nachricht.Field{Name: "y", Value: nachricht.Bool(false)},
	), got)

	got, err = ParseString("[1, 2, 3,]")
	require.NoError(t, err)
	assert.Equal(t, nachricht.Array(
		nachricht.Int64(1), nachricht.Int64(2), nachricht.Int64(3),
	), got)

	got, err = ParseString(`{"k": 1, #s: 2}`)
	require.NoError(t, err)
	assert.Equal(t, nachricht.MapOf(
		nachricht.Entry{Key: nachricht.Str("k"), Val: nachricht.Int64(1)},
		nachricht.Entry{Key: nachricht.Sym("s"), Val: nachricht.Int64(2)},
	), got)

	got, err = ParseString("()")
	require.NoError(t, err)
	assert.Equal(t, nachricht.KindRecord, got.Kind)
	assert.Empty(t, got.Record)
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"", "(", "tru", "(x true)", "[1 2", `"unterminated`, "'notbase64!'",
		"#", "1 2", "{1, 2}",
	} {
		_, err := ParseString(src)
		assert.Error(t, err, "source %q", src)
	}
}

func TestPrintParseRoundtrip(t *testing.T) {
	values := []nachricht.Value{
		nachricht.Null(),
		nachricht.Int64(-9000),
		nachricht.Uint64(math.MaxUint64),
		nachricht.Value{Kind: nachricht.KindInt, Int: nachricht.Int{Neg: true, Mag: math.MaxUint64}},
		nachricht.F64(1234.56789e17),
		nachricht.Str("with \"quotes\" and \\slashes\\ and\nnewlines"),
		nachricht.Sym("PrionailurusViverrinus"),
		nachricht.Bytes([]byte{0, 1, 2, 254, 255}),
		nachricht.Array(
			nachricht.Record(
				nachricht.Field{Name: "name", Value: nachricht.Str("Jessica")},
				nachricht.Field{Name: "9 lives", Value: nachricht.Bool(true)},
			),
			nachricht.MapOf(
				nachricht.Entry{Key: nachricht.Int64(1), Val: nachricht.Str("Eins")},
			),
		),
	}
	for _, v := range values {
		got, err := Parse([]byte(Print(v)))
		require.NoError(t, err, "text %q", Print(v))
		assert.Equal(t, v, got)
	}
}
