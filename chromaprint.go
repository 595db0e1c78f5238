// Package chromaprint implements a decoder for compressed Chromaprint audio
// fingerprints.
//
// A compressed fingerprint is a small binary blob: a 4-byte header (algorithm
// id plus a big-endian 24-bit word count) followed by a bit-packed body. The
// body stores each fingerprint word as the set-bit positions of the XOR
// between that word and its predecessor, delta-coded as ascending gaps. Each
// gap is a 3-bit code; the saturated value 7 escapes into an additional 5-bit
// exception field, and a 0 code terminates the word. Decompress reverses all
// of this and returns the original uint32 words.
//
// Callers provide the destination slice to Decompress so higher layers can
// reuse buffers without repeated heap allocations. The package maintains no
// global mutable state.
package chromaprint

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Format constants. The body is a stream of 3-bit codes; a code of 7 is
// extended by a 5-bit exception field read after all normal codes.
const (
	// headerBytes is the fixed header size: algorithm id (1) + word count (3).
	headerBytes = 4
	headerBits  = headerBytes * 8

	// normalBits is the width of a normal gap code.
	normalBits = 3
	// maxNormalValue is the saturated normal code that escapes into an
	// exception field.
	maxNormalValue = 7
	// exceptionBits is the width of the exception field, giving effective
	// gap values of 7..38.
	exceptionBits = 5
)

// Fingerprint algorithm ids as found in the header byte. The decoder passes
// the id through unmodified; these names only identify what callers receive.
const (
	AlgorithmTest1 byte = iota
	AlgorithmTest2
	AlgorithmTest3
	AlgorithmTest4
	AlgorithmTest5

	DefaultAlgorithm = AlgorithmTest2
)

// ErrHeaderTooShort is returned when the buffer cannot hold the 4-byte header.
var ErrHeaderTooShort = errors.New("chromaprint: header too short")

// ErrBodyTooShort is returned when the body holds fewer bits than the declared
// word count requires even with every word empty.
var ErrBodyTooShort = errors.New("chromaprint: body too short")

// ErrTruncatedCodes is returned when the buffer ends before all declared words
// have been terminated by a 0 code.
var ErrTruncatedCodes = errors.New("chromaprint: truncated gap codes")

// ErrTruncatedExceptions is returned when the buffer ends while an exception
// field is still expected.
var ErrTruncatedExceptions = errors.New("chromaprint: truncated exception codes")

// ErrInvalidBitPosition is returned when a gap chain would set a bit beyond
// the 32-bit word width. A well-formed compressor never produces this.
var ErrInvalidBitPosition = errors.New("chromaprint: bit position out of range")

// ErrInvalidBase64 is returned by DecompressString when the input is not
// valid URL-safe base64.
var ErrInvalidBase64 = errors.New("chromaprint: invalid base64 fingerprint")

// Decompress decodes a compressed fingerprint buffer into its uint32 words,
// writing into the supplied dst slice (which will be resized as needed) and
// returning the algorithm id from the header. The decode is a pure function
// of data: any malformed input aborts with an error and never yields a
// partially filled result.
//
// Callers must not reuse the same dst slice across concurrent Decompress
// invocations unless they coordinate access themselves.
func Decompress(dst []uint32, data []byte) (words []uint32, algorithm byte, err error) {
	if len(data) < headerBytes {
		return nil, 0, fmt.Errorf("%w: need %d bytes, got %d",
			ErrHeaderTooShort, headerBytes, len(data))
	}
	algorithm = data[0]
	count := int(data[1])<<16 | int(data[2])<<8 | int(data[3])

	r := newBitReader(data)
	// Cannot fail: the length check above guarantees 32 header bits.
	_, _ = r.read(headerBits)

	// Loose lower bound: every word costs at least one terminating 0 code.
	if minBits := count * normalBits; r.available() < minBits {
		return nil, 0, fmt.Errorf("%w: %d words need at least %d bits, got %d",
			ErrBodyTooShort, count, minBits, r.available())
	}

	codes, err := readNormalCodes(r, count)
	if err != nil {
		return nil, 0, err
	}
	if err := readExceptionCodes(r, codes); err != nil {
		return nil, 0, err
	}
	words, err = unpackCodes(dst, codes, count)
	if err != nil {
		return nil, 0, err
	}
	return words, algorithm, nil
}

// DecompressString decodes a fingerprint exchanged as text: URL-safe unpadded
// base64 wrapping the binary format accepted by Decompress.
func DecompressString(s string) (words []uint32, algorithm byte, err error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return Decompress(nil, data)
}

// readNormalCodes extracts 3-bit gap codes until count words have been
// terminated by a 0 code. Every read is checked against the end of the
// buffer: words with many set bits consume more than the pre-checked
// minimum, so a malformed buffer can legitimately run dry here.
func readNormalCodes(r *bitReader, count int) ([]uint8, error) {
	codes := make([]uint8, 0, r.available()/normalBits)
	closed := 0
	for closed < count {
		v, ok := r.read(normalBits)
		if !ok {
			return nil, fmt.Errorf("%w: %d of %d words terminated at end of buffer",
				ErrTruncatedCodes, closed, count)
		}
		if v == 0 {
			closed++
		}
		codes = append(codes, uint8(v))
	}
	return codes, nil
}

// readExceptionCodes extends every saturated code in place by its 5-bit
// exception field. Exception fields follow the normal code stream in the
// same order the saturated codes appeared.
func readExceptionCodes(r *bitReader, codes []uint8) error {
	for i, c := range codes {
		if c != maxNormalValue {
			continue
		}
		v, ok := r.read(exceptionBits)
		if !ok {
			return fmt.Errorf("%w: code %d at end of buffer", ErrTruncatedExceptions, i)
		}
		codes[i] = c + uint8(v)
	}
	return nil
}

// unpackCodes reconstructs the fingerprint words from the gap codes. Within
// one word the codes are cumulative bit positions (1-based); a 0 code closes
// the word, which is then XORed against the previously emitted word to undo
// the compressor's forward XOR chain.
func unpackCodes(dst []uint32, codes []uint8, count int) ([]uint32, error) {
	if cap(dst) < count {
		dst = make([]uint32, 0, count)
	} else {
		dst = dst[:0]
	}
	var value, prev uint32
	pos := 0
	for _, c := range codes {
		if c == 0 {
			word := value
			if len(dst) > 0 {
				word ^= prev
			}
			dst = append(dst, word)
			prev = word
			value = 0
			pos = 0
			continue
		}
		pos += int(c)
		if pos > 32 {
			return nil, fmt.Errorf("%w: position %d in word %d",
				ErrInvalidBitPosition, pos, len(dst))
		}
		value |= 1 << (pos - 1)
	}
	return dst, nil
}
