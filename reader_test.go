package chromaprint

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaderNotLoaded(t *testing.T) {
	assert := assert.New(t)
	r := NewReader()

	assert.False(r.IsLoaded())
	assert.Equal(0, r.Len())

	_, err := r.Get(0)
	assert.ErrorIs(err, ErrNotLoaded)

	_, ok := r.GetSafe(0)
	assert.False(ok)

	_, _, ok = r.Next()
	assert.False(ok)

	assert.Nil(r.Decode(nil))
}

func TestReaderLoad(t *testing.T) {
	assert := assert.New(t)
	want := []uint32{5, 6, 7, 8}
	r := NewReader()

	err := r.Load(compressFingerprint(AlgorithmTest2, want))
	assert.NoError(err)
	assert.True(r.IsLoaded())
	assert.Equal(AlgorithmTest2, r.Algorithm())
	assert.Equal(len(want), r.Len())

	for i, w := range want {
		got, err := r.Get(i)
		assert.NoError(err)
		assert.Equal(w, got, "word %d", i)
	}
}

func TestReaderGetOutOfRange(t *testing.T) {
	assert := assert.New(t)
	r := NewReader()
	assert.NoError(r.Load(compressFingerprint(0, []uint32{1, 2})))

	_, err := r.Get(-1)
	assert.ErrorIs(err, ErrPositionOutOfRange)
	_, err = r.Get(2)
	assert.ErrorIs(err, ErrPositionOutOfRange)

	v, ok := r.GetSafe(1)
	assert.True(ok)
	assert.Equal(uint32(2), v)
	_, ok = r.GetSafe(2)
	assert.False(ok)
}

func TestReaderSequentialIteration(t *testing.T) {
	assert := assert.New(t)
	want := genFingerprint(20, 11)
	r := NewReader()
	assert.NoError(r.Load(compressFingerprint(DefaultAlgorithm, want)))

	for i, w := range want {
		assert.Equal(i, r.Pos())
		word, pos, ok := r.Next()
		assert.True(ok)
		assert.Equal(i, pos)
		assert.Equal(w, word, "word %d", i)
	}
	_, _, ok := r.Next()
	assert.False(ok)

	r.Reset()
	assert.Equal(0, r.Pos())
	word, pos, ok := r.Next()
	assert.True(ok)
	assert.Equal(0, pos)
	assert.Equal(want[0], word)
}

func TestReaderDecode(t *testing.T) {
	assert := assert.New(t)
	want := []uint32{10, 20, 30}
	r := NewReader()
	assert.NoError(r.Load(compressFingerprint(0, want)))

	got := r.Decode(nil)
	assert.Equal(want, got)

	// Sufficient capacity must be reused.
	dst := make([]uint32, 0, 8)
	got = r.Decode(dst)
	assert.Equal(want, got)
	assert.Equal(&dst[:1][0], &got[0], "expected Decode to reuse dst backing array")
}

func TestReaderLoadInvalid(t *testing.T) {
	assert := assert.New(t)
	r := NewReader()

	err := r.Load([]byte{0x01, 0x00})
	assert.ErrorIs(err, ErrHeaderTooShort)
	assert.False(r.IsLoaded())

	// A reader that already holds a fingerprint stays loaded after a
	// failed Load.
	assert.NoError(r.Load(compressFingerprint(0, []uint32{1, 2, 3})))
	err = r.Load([]byte{0x01, 0x00, 0x00, 0x02, 0xFF})
	assert.ErrorIs(err, ErrTruncatedCodes)
	assert.True(r.IsLoaded())
}

func TestReaderLoadFailureKeepsWords(t *testing.T) {
	assert := assert.New(t)
	r := NewReader()
	want := []uint32{0xAAAA, 0xBBBB}
	assert.NoError(r.Load(compressFingerprint(DefaultAlgorithm, want)))

	// One valid word followed by a gap of 7+31 = 38: this fails only in
	// the reconstruction phase, after decoding has begun emitting words.
	w := &bitWriter{buf: []byte{0x01, 0x00, 0x00, 0x02}}
	for _, c := range []uint32{1, 0, maxNormalValue, 0} {
		w.write(c, normalBits)
	}
	w.write(31, exceptionBits)

	err := r.Load(w.bytes())
	assert.ErrorIs(err, ErrInvalidBitPosition)
	assert.True(r.IsLoaded())
	assert.Equal(len(want), r.Len())
	assert.Equal(want, r.Decode(nil))
}

func TestReaderReload(t *testing.T) {
	assert := assert.New(t)
	r := NewReader()

	assert.NoError(r.Load(compressFingerprint(AlgorithmTest1, genFingerprint(50, 1))))
	assert.Equal(50, r.Len())
	r.Next()
	r.Next()

	want := []uint32{42, 43}
	assert.NoError(r.Load(compressFingerprint(AlgorithmTest4, want)))
	assert.Equal(AlgorithmTest4, r.Algorithm())
	assert.Equal(2, r.Len())
	assert.Equal(0, r.Pos())
	assert.Equal(want, r.Decode(nil))
}

func TestReaderLoadString(t *testing.T) {
	assert := assert.New(t)
	want := genFingerprint(10, 3)
	s := base64.RawURLEncoding.EncodeToString(compressFingerprint(DefaultAlgorithm, want))

	r := NewReader()
	assert.NoError(r.LoadString(s))
	assert.Equal(want, r.Decode(nil))

	err := r.LoadString("not!base64?")
	assert.ErrorIs(err, ErrInvalidBase64)
}
