// Package bio provides buffered bit-level I/O for vcodec bitstreams.
//
// Bits are packed MSB-first. Both the Writer and the Reader keep a fixed
// 8-byte window and only touch the underlying io.Writer / io.Reader when the
// window is full (writer) or exhausted (reader).
//
// I/O failures are not returned from every call. The first failure is
// recorded and reported by Err, and by Flush on the writer. Callers that need
// the exact failure position must check Err after each call.
package bio

import (
	"errors"
	"fmt"
	"io"
)

// BufferLen is the size of the writer and reader windows in bytes.
const BufferLen = 8

const bufferBits = BufferLen * 8

var (
	// ErrIOFailed reports a failure of the underlying reader or writer.
	ErrIOFailed = errors.New("bio: I/O failed")

	// ErrEOF reports that the source ran out of data in the middle of a read.
	ErrEOF = errors.New("bio: unexpected end of stream")

	// ErrCorrupt reports an Exp-Golomb prefix too long to be valid.
	ErrCorrupt = errors.New("bio: corrupt exp-golomb code")
)

// Writer packs bits into an 8-byte window and flushes it to w when full.
type Writer struct {
	w   io.Writer
	buf [BufferLen]byte
	pos uint  // Bit cursor into buf (0-64)
	err error // First recorded failure
	n   int64 // Bytes handed to w
}

// NewWriter creates a new bit writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first I/O failure recorded by the writer.
func (w *Writer) Err() error {
	return w.err
}

// Written returns the number of bytes handed to the underlying writer.
func (w *Writer) Written() int64 {
	return w.n
}

// Bits returns the number of bits written so far, including bits still
// held in the window.
func (w *Writer) Bits() int64 {
	return w.n*8 + int64(w.pos)
}

// Reset discards buffered bits and clears the recorded status.
func (w *Writer) Reset() {
	w.buf = [BufferLen]byte{}
	w.pos = 0
	w.err = nil
}

// PutBits writes the count low-order bits of bits, most significant first.
// count must be in 1..32.
func (w *Writer) PutBits(bits uint32, count uint) {
	for count > 0 {
		free := 8 - w.pos&7
		n := free
		if n > count {
			n = count
		}
		chunk := byte((bits >> (count - n)) & (1<<n - 1))
		w.buf[w.pos>>3] |= chunk << (free - n)
		w.pos += n
		count -= n
		if w.pos == bufferBits {
			w.flushBuffer()
		}
	}
}

// PutOnes writes count one-bits.
func (w *Writer) PutOnes(count uint) {
	for count > 0 {
		free := 8 - w.pos&7
		n := free
		if n > count {
			n = count
		}
		w.buf[w.pos>>3] |= byte(1<<n-1) << (free - n)
		w.pos += n
		count -= n
		if w.pos == bufferBits {
			w.flushBuffer()
		}
	}
}

// PutZeroes writes count zero-bits.
func (w *Writer) PutZeroes(count uint) {
	for count > 0 {
		n := bufferBits - w.pos
		if n > count {
			n = count
		}
		// The window is zeroed after every flush, so only the cursor moves.
		w.pos += n
		count -= n
		if w.pos == bufferBits {
			w.flushBuffer()
		}
	}
}

// PutBytes pads the stream to a byte boundary with zero bits and then writes
// p verbatim.
func (w *Writer) PutBytes(p []byte) {
	if rem := w.pos & 7; rem != 0 {
		w.PutZeroes(8 - rem)
	}
	for _, b := range p {
		w.buf[w.pos>>3] = b
		w.pos += 8
		if w.pos == bufferBits {
			w.flushBuffer()
		}
	}
}

// WriteExpGolomb writes v as an unsigned order-0 Exp-Golomb code.
func (w *Writer) WriteExpGolomb(v uint32) {
	x := uint64(v) + 1
	n := bitLen(x)
	w.PutZeroes(n - 1)
	if n > 32 {
		// v == 1<<32-1: the leading one does not fit a single PutBits call.
		w.PutOnes(1)
		n--
	}
	w.PutBits(uint32(x), n)
}

// Flush writes all buffered bits, padding the final byte with zeros, and
// returns the recorded status.
func (w *Writer) Flush() error {
	if w.pos > 0 {
		n := (w.pos + 7) >> 3
		w.write(w.buf[:n])
		w.buf = [BufferLen]byte{}
		w.pos = 0
	}
	return w.err
}

// flushBuffer writes the full window.
func (w *Writer) flushBuffer() {
	w.write(w.buf[:])
	w.buf = [BufferLen]byte{}
	w.pos = 0
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = fmt.Errorf("%w: %w", ErrIOFailed, err)
	}
}

// Reader unpacks bits from an 8-byte window refilled from r.
type Reader struct {
	r   io.Reader
	buf [BufferLen]byte
	end uint  // Valid bits in buf
	pos uint  // Bit cursor into buf
	err error // First recorded failure
}

// NewReader creates a new bit reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first failure recorded by the reader.
func (r *Reader) Err() error {
	return r.err
}

// Reset discards buffered bits and clears the recorded status.
func (r *Reader) Reset() {
	r.end = 0
	r.pos = 0
	r.err = nil
}

// GetBits reads count bits (1-32) and returns them in the low-order bits of
// the result. Bits past the end of the source read as zero.
func (r *Reader) GetBits(count uint) uint32 {
	var v uint32
	for count > 0 {
		if r.pos == r.end && !r.refill() {
			return v << count
		}
		avail := 8 - r.pos&7
		if left := r.end - r.pos; avail > left {
			avail = left
		}
		n := avail
		if n > count {
			n = count
		}
		cur := r.buf[r.pos>>3]
		shift := 8 - r.pos&7 - n
		v = v<<n | uint32((cur>>shift)&(1<<n-1))
		r.pos += n
		count -= n
	}
	return v
}

// GetZeroes counts zero bits up to, but not including, the next one-bit.
// The one-bit is left unread. If the source is exhausted first, the count so
// far is returned and ErrEOF is recorded.
func (r *Reader) GetZeroes() uint {
	var n uint
	for {
		if r.pos == r.end && !r.refill() {
			return n
		}
		cur := r.buf[r.pos>>3] << (r.pos & 7)
		avail := 8 - r.pos&7
		if cur == 0 {
			n += avail
			r.pos += avail
			continue
		}
		lead := leadingZeros8(cur)
		n += lead
		r.pos += lead
		return n
	}
}

// ReadExpGolomb reads an unsigned order-0 Exp-Golomb code.
func (r *Reader) ReadExpGolomb() uint32 {
	z := r.GetZeroes()
	if r.err != nil {
		return 0
	}
	switch {
	case z < 32:
		return r.GetBits(z+1) - 1
	case z == 32:
		// Only 1<<32-1 has a 33-bit code: a one followed by 32 zeros.
		r.GetBits(1)
		if r.GetBits(32) == 0 {
			return 1<<32 - 1
		}
	}
	if r.err == nil {
		r.err = ErrCorrupt
	}
	return 0
}

// GetBytes skips to the next byte boundary and fills p with raw bytes.
func (r *Reader) GetBytes(p []byte) {
	if rem := r.pos & 7; rem != 0 {
		r.pos += 8 - rem
	}
	for i := range p {
		if r.pos == r.end && !r.refill() {
			clear(p[i:])
			return
		}
		p[i] = r.buf[r.pos>>3]
		r.pos += 8
	}
}

// refill loads the next window from the source. It reports false and
// records the failure if no data could be read.
func (r *Reader) refill() bool {
	if r.err != nil {
		return false
	}
	r.pos = 0
	r.end = 0
	for {
		n, err := r.r.Read(r.buf[:])
		if n > 0 {
			r.end = uint(n) * 8
			return true
		}
		switch {
		case err == io.EOF:
			r.err = ErrEOF
			return false
		case err != nil:
			r.err = fmt.Errorf("%w: %w", ErrIOFailed, err)
			return false
		}
	}
}

// bitLen returns the number of bits needed to represent x (x > 0).
func bitLen(x uint64) uint {
	var n uint
	for x != 0 {
		x >>= 1
		n++
	}
	return n
}

func leadingZeros8(b byte) uint {
	var n uint
	for b&0x80 == 0 {
		b <<= 1
		n++
	}
	return n
}
