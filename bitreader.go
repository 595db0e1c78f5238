package chromaprint

// bitReader exposes a byte buffer as a sequential stream of fixed-width
// unsigned bit-fields. Bits are consumed MSB-first within each byte,
// continuing across byte boundaries. The cursor is monotonic: each bit is
// consumed at most once and never rewound during a decode.
//
// A bitReader is not safe for concurrent use.
type bitReader struct {
	data []byte
	// cursor counts the bits already consumed from the start of data.
	cursor int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// available returns the number of unread bits.
func (r *bitReader) available() int {
	return len(r.data)*8 - r.cursor
}

// atEnd reports whether every bit of the buffer has been consumed.
func (r *bitReader) atEnd() bool {
	return r.available() == 0
}

// read consumes the next width bits (1..32) and returns them as an unsigned
// integer. If fewer than width bits remain, read consumes nothing and
// returns ok == false; the caller maps that to a phase-specific truncation
// error instead of accepting zero-padded garbage.
func (r *bitReader) read(width int) (v uint32, ok bool) {
	if width < 1 || width > 32 || r.available() < width {
		return 0, false
	}
	for width > 0 {
		byteIdx := r.cursor >> 3
		bitIdx := r.cursor & 7
		take := 8 - bitIdx
		if take > width {
			take = width
		}
		chunk := uint32(r.data[byteIdx] >> (8 - bitIdx - take))
		v = v<<take | chunk&(1<<take-1)
		r.cursor += take
		width -= take
	}
	return v, true
}
