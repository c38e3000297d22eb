package midimunge

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 6, 7, 8, 13, 14, 15, 100, 1000} {
		data := make([]byte, n)
		rng.Read(data)

		enc, err := Encode(data)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, EncodedSize(n), len(enc), "encoded size for n=%d", n)

		dec, err := Decode(enc)
		require.NoError(t, err, "n=%d", n)
		assert.True(t, bytes.Equal(data, dec), "round trip for n=%d", n)
		assert.LessOrEqual(t, len(dec), MaxDecodedSize(len(enc)))
	}
}

func TestEncodeHighBitsLandInHeader(t *testing.T) {
	// 0x80 has only the high bit set, so the chunk header must carry it and
	// the data byte itself must be zero.
	enc, err := Encode([]byte{0x80, 0x00, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x7F}, enc)
}

func TestEncodeEmpty(t *testing.T) {
	enc, err := Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, enc)
	assert.Equal(t, 0, EncodedSize(0))
}

func TestEncodedSizeFormula(t *testing.T) {
	for n := 0; n <= 50; n++ {
		want := 8 * (n / 7)
		if n%7 > 0 {
			want += 1 + n%7
		}
		assert.Equal(t, want, EncodedSize(n), "n=%d", n)
	}
}

func TestDecodeRejectsEighthBit(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x80})
	assert.True(t, errors.Is(err, ErrByteOutOfRange), "got %v", err)
}

func TestDecodeRejectsTrailingHeader(t *testing.T) {
	// Valid full chunk followed by a lone header byte.
	enc, err := Encode([]byte{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	_, err = Decode(append(enc, 0x00))
	assert.True(t, errors.Is(err, ErrTruncatedData), "got %v", err)

	_, err = Decode([]byte{0x00})
	assert.True(t, errors.Is(err, ErrTruncatedData), "got %v", err)
}

func TestDecodeEmpty(t *testing.T) {
	dec, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, dec)
}
