package nachricht

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is a large prime so the u64 range is sampled in acceptable time.
const step = 3_203_431_780_337

func assertRoundtrip(t *testing.T, v Value) {
	t.Helper()
	b, err := Encode(v)
	require.NoError(t, err)
	got, rest, err := Decode(b)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, v, got)
}

func TestSimpleValues(t *testing.T) {
	assertRoundtrip(t, Null())
	assertRoundtrip(t, Bool(true))
	assertRoundtrip(t, Bool(false))
	for i := uint64(0); i < 1<<63; i += step << 6 {
		assertRoundtrip(t, Value{Kind: KindInt, Int: Int{Mag: i}})
		assertRoundtrip(t, Value{Kind: KindInt, Int: Int{Neg: true, Mag: i}})
	}
}

func TestFloats(t *testing.T) {
	assertRoundtrip(t, F64(math.MaxFloat64))
	assertRoundtrip(t, F64(-math.MaxFloat64))
	assertRoundtrip(t, F64(math.Pi))
	assertRoundtrip(t, F32(math.MaxFloat32))
	assertRoundtrip(t, F32(-math.MaxFloat32))
	assertRoundtrip(t, F32(math.Pi))
}

func TestStrings(t *testing.T) {
	assertRoundtrip(t, Str("Üben von Xylophon und Querflöte ist ja zweckmäßig."))
}

func TestBytesValues(t *testing.T) {
	assertRoundtrip(t, Bytes([]byte{1, 2, 3, 4, 255}))
	// past the inline limit of 18 the length moves into a trailing byte
	assertRoundtrip(t, Bytes(make([]byte, 19)))
	assertRoundtrip(t, Bytes(make([]byte, 300)))
}

func TestArrayMixed(t *testing.T) {
	assertRoundtrip(t, Array(
		Int64(1),
		Str("Jessica"),
		Sym("FelisCatus"),
		F32(math.Pi),
	))
}

func TestArrayLong(t *testing.T) {
	for _, n := range []int{1, 23, 24, 255, 1024} {
		elems := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			elems = append(elems, Int64(1))
		}
		assertRoundtrip(t, Value{Kind: KindArray, Array: elems})
	}
}

func TestMapValues(t *testing.T) {
	assertRoundtrip(t, MapOf(
		Entry{Key: Str("first"), Val: Int64(1)},
		Entry{Key: Str("second"), Val: Int64(2)},
		Entry{Key: Str("third"), Val: Int64(3)},
		Entry{Key: Str("fourth"), Val: Int64(4)},
	))
	// map keys are arbitrary values
	assertRoundtrip(t, MapOf(
		Entry{Key: Array(Int64(1), Int64(2)), Val: Bool(true)},
		Entry{Key: Null(), Val: Bytes([]byte{9})},
	))
}

func TestNestedRecords(t *testing.T) {
	assertRoundtrip(t, Array(
		Record(
			Field{Name: "name", Value: Str("Jessica")},
			Field{Name: "species", Value: Sym("PrionailurusViverrinus")},
		),
		Record(
			Field{Name: "name", Value: Str("Wantan")},
			Field{Name: "species", Value: Sym("LynxLynx")},
		),
	))
}

// A record nested inside a record of the same shape: the outer and the
// first inner record are both emitted in full, because a layout registers
// only when its record completes. The first inner record registers it, the
// second inner record is a reference, and the outer record registers the
// same layout again.
func TestSelfSimilarNesting(t *testing.T) {
	inner := Record(
		Field{Name: "a", Value: Null()},
		Field{Name: "b", Value: Int64(1)},
	)
	outer := Record(
		Field{Name: "a", Value: inner},
		Field{Name: "b", Value: inner},
	)
	assertRoundtrip(t, outer)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		kind ErrorKind
	}{
		{"empty input", []byte{}, ErrUnexpectedEOF},
		{"invalid utf-8 in string", []byte{0x42, 0xc3, 0x28}, ErrInvalidUTF8},
		{"invalid utf-8 in symbol", []byte{0x62, 0xc3, 0x28}, ErrInvalidUTF8},
		{"unknown reference", []byte{0xe0}, ErrUnknownReference},
		{"record as field name", []byte{0xa1, 0xa0}, ErrUnexpectedWireKind},
		{"truncated float", []byte{0x03, 0x01, 0x02}, ErrUnexpectedEOF},
		{"truncated string payload", []byte{0x45, 'h', 'i'}, ErrUnexpectedEOF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := Decode(c.buf)
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, c.kind, e.Kind)
		})
	}
}

// Adversarial lengths must fail with a decode error instead of allocating
// or panicking.
func TestHostileLengths(t *testing.T) {
	for _, lead := range []byte{0x1f /* bytes */, 0x5f /* str */, 0x9f /* arr */, 0xbf /* rec */, 0xdf /* map */} {
		buf := make([]byte, 9)
		buf[0] = lead
		for i := uint64(1); i < math.MaxUint64-step<<10; i += step << 10 {
			binary.BigEndian.PutUint64(buf[1:], i)
			_, _, err := Decode(buf)
			assert.Error(t, err, "lead %#x length %d", lead, i)
		}
	}
}

func TestIntConversions(t *testing.T) {
	i, ok := IntOf(-1).Int64()
	require.True(t, ok)
	assert.Equal(t, int64(-1), i)

	i, ok = IntOf(math.MinInt64).Int64()
	require.True(t, ok)
	assert.Equal(t, int64(math.MinInt64), i)

	_, ok = Int{Neg: true, Mag: math.MaxInt64 + 1}.Int64()
	assert.False(t, ok)

	u, ok := UintOf(math.MaxUint64).Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), u)

	_, ok = Int{Neg: true, Mag: 0}.Uint64()
	assert.False(t, ok)

	assert.Equal(t, "-1", Int{Neg: true, Mag: 0}.String())
	assert.Equal(t, "42", Int{Mag: 42}.String())
}

// Decoded byte strings alias the input buffer.
func TestZeroCopyBytes(t *testing.T) {
	data := []byte{0x08, 0xde, 0xad, 0xbe}
	v, _, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, KindBytes, v.Kind)
	assert.Same(t, &data[1], &v.Bytes[0])
}
