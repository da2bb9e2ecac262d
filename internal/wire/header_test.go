package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is a large prime so the full u64 range is sampled in acceptable time.
const step = 3_203_431_780_337

func assertVarRoundtrip(t *testing.T, c Code, k Kind, v uint64) {
	t.Helper()
	buf := AppendVar(nil, c, v)
	h, n, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, Header{Kind: k, Val: v}, h)
}

func TestRoundtripCompact(t *testing.T) {
	for v := uint64(0); v < 24; v++ {
		assertVarRoundtrip(t, Str, KindStr, v)
		assertVarRoundtrip(t, Sym, KindSym, v)
		assertVarRoundtrip(t, Arr, KindArr, v)
		assertVarRoundtrip(t, Rec, KindRec, v)
		assertVarRoundtrip(t, Map, KindMap, v)
		assertVarRoundtrip(t, Ref, KindRef, v)
	}
}

func TestRoundtripLong(t *testing.T) {
	for v := uint64(0); v < 1<<63; v += step << 4 {
		assertVarRoundtrip(t, Str, KindStr, v)
		assertVarRoundtrip(t, Ref, KindRef, v)

		buf := AppendBytes(nil, v)
		h, n, err := Parse(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, Header{Kind: KindBytes, Val: v}, h)

		for _, neg := range []bool{false, true} {
			buf = AppendInt(nil, neg, v)
			h, n, err = Parse(buf)
			require.NoError(t, err)
			assert.Equal(t, len(buf), n)
			assert.Equal(t, Header{Kind: KindInt, Neg: neg, Val: v}, h)
		}
	}
}

func TestFixed(t *testing.T) {
	for f, k := range map[byte]Kind{
		FixedNull:  KindNull,
		FixedTrue:  KindTrue,
		FixedFalse: KindFalse,
		FixedF32:   KindF32,
		FixedF64:   KindF64,
	} {
		h, n, err := Parse(AppendFixed(nil, f))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, Header{Kind: k}, h)
	}
}

func TestMinimality(t *testing.T) {
	cases := []struct {
		v    uint64
		want int // total header length
	}{
		{0, 1}, {23, 1}, {24, 2}, {255, 2}, {256, 3}, {1 << 16, 4},
		{1<<24 - 1, 4}, {1 << 24, 5}, {1 << 32, 6}, {1 << 40, 7},
		{1 << 48, 8}, {1 << 56, 9}, {^uint64(0), 9},
	}
	for _, c := range cases {
		assert.Len(t, AppendVar(nil, Str, c.v), c.want, "value %d", c.v)
	}
	// ints inline up to 7 only
	assert.Len(t, AppendInt(nil, false, 7), 1)
	assert.Len(t, AppendInt(nil, false, 8), 2)
	assert.Len(t, AppendInt(nil, true, ^uint64(0)), 9)
}

func TestNonMinimalAccepted(t *testing.T) {
	// length 1 padded into two trailing bytes
	h, n, err := Parse([]byte{byte(Str)<<5 | 25, 0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, Header{Kind: KindStr, Val: 1}, h)
}

func TestShortBuffer(t *testing.T) {
	_, _, err := Parse(nil)
	assert.ErrorIs(t, err, ErrShortBuffer)
	// sz=24 demands one trailing byte
	_, _, err = Parse([]byte{byte(Str)<<5 | 24})
	assert.ErrorIs(t, err, ErrShortBuffer)
}
