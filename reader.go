package chromaprint

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Reader provides access to the words of one decompressed fingerprint.
// A Reader is not safe for concurrent use. Create one reader per goroutine
// if concurrent access is needed.
type Reader struct {
	// words holds the decoded fingerprint words (decoded once on Load)
	words []uint32

	// spare is the reuse buffer handed to Decompress; words and spare are
	// swapped on a successful Load so a failed Load never touches words
	spare []uint32

	// algorithm is the id byte from the fingerprint header
	algorithm byte

	// pos is the current position for sequential iteration (0-based)
	pos int

	// loaded indicates if the reader has been loaded with data
	loaded bool
}

// ErrNotLoaded is returned when operations are called before Load().
var ErrNotLoaded = errors.New("chromaprint: reader not loaded")

// ErrPositionOutOfRange is returned when accessing a position beyond the
// fingerprint length.
var ErrPositionOutOfRange = errors.New("chromaprint: position out of range")

// NewReader creates an empty Reader that must be loaded with Load() before use.
func NewReader() *Reader {
	return &Reader{}
}

// Load decompresses a fingerprint buffer into the reader.
// This resets all internal state and can be called multiple times to reuse
// the reader; internal buffers are reused across calls. On error the
// previously loaded fingerprint is left intact.
func (r *Reader) Load(buf []byte) error {
	words, algorithm, err := Decompress(r.spare, buf)
	if err != nil {
		return err
	}
	r.spare = r.words
	r.words = words
	r.algorithm = algorithm
	r.pos = 0
	r.loaded = true
	return nil
}

// LoadString decompresses a fingerprint exchanged as URL-safe unpadded
// base64 text.
func (r *Reader) LoadString(s string) error {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return r.Load(data)
}

// IsLoaded returns whether the reader has been loaded with data.
func (r *Reader) IsLoaded() bool {
	return r.loaded
}

// Algorithm returns the algorithm id of the loaded fingerprint.
// Only meaningful after Load() has been called.
func (r *Reader) Algorithm() byte {
	return r.algorithm
}

// Len returns the number of words in the fingerprint.
func (r *Reader) Len() int {
	return len(r.words)
}

// Pos returns the current position for sequential iteration.
func (r *Reader) Pos() int {
	return r.pos
}

// Reset resets the iteration position to the first word.
func (r *Reader) Reset() {
	r.pos = 0
}

// Get returns the word at the specified position.
// Returns an error if the reader is not loaded or pos is out of range.
func (r *Reader) Get(pos int) (uint32, error) {
	if !r.loaded {
		return 0, ErrNotLoaded
	}
	if pos < 0 || pos >= len(r.words) {
		return 0, ErrPositionOutOfRange
	}
	return r.words[pos], nil
}

// GetSafe returns the word at the specified position and whether the position
// is valid. Returns (0, false) if the reader is not loaded or pos is out of
// range.
func (r *Reader) GetSafe(pos int) (uint32, bool) {
	val, err := r.Get(pos)
	return val, err == nil
}

// Next returns the next word in sequence and its position.
// Returns (word, pos, true) on success, or (0, 0, false) if not loaded or no
// more words remain.
func (r *Reader) Next() (word uint32, pos int, ok bool) {
	if !r.loaded || r.pos >= len(r.words) {
		return 0, 0, false
	}
	word = r.words[r.pos]
	pos = r.pos
	r.pos++
	return word, pos, true
}

// Decode copies all fingerprint words into the provided destination slice.
// If dst has insufficient capacity, a new slice is allocated.
// Returns nil if the reader is not loaded.
func (r *Reader) Decode(dst []uint32) []uint32 {
	if !r.loaded {
		return nil
	}
	if cap(dst) < len(r.words) {
		dst = make([]uint32, len(r.words))
	} else {
		dst = dst[:len(r.words)]
	}
	copy(dst, r.words)
	return dst
}
