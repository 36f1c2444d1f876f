// Package box implements the box framing of the .vcb container.
//
// A container is a sequence of boxes, where each box has:
// - 4-byte length (or 1 for extended length)
// - 4-byte type code
// - Optional 8-byte extended length
// - Box contents
package box

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Box type codes
const (
	TypeSignature Type = 0x76636463 // "vcdc" - Signature box
	TypeHeader    Type = 0x76686472 // "vhdr" - Sequence header box
	TypeData      Type = 0x76646174 // "vdat" - Bitstream box
)

// Signature is the contents of the signature box.
var Signature = []byte{0x0D, 0x0A, 0x87, 0x0A}

// MaxContents bounds the contents of a single box.
const MaxContents = 1 << 30

// initialContents caps the buffer reserved before box contents are read.
const initialContents = 64 << 10

// Type represents a 4-byte box type code.
type Type uint32

// String returns the 4-character type code.
func (t Type) String() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(t))
	return string(b)
}

// Box represents one container box.
type Box struct {
	Type     Type
	Length   uint64 // Total box length including header
	Contents []byte // Box contents (excluding header)
}

// New returns a box of type t holding contents.
func New(t Type, contents []byte) *Box {
	return &Box{
		Type:     t,
		Length:   uint64(8 + len(contents)),
		Contents: contents,
	}
}

// Header returns the box header bytes.
func (b *Box) Header() []byte {
	if b.Length <= 0xFFFFFFFF {
		header := make([]byte, 8)
		binary.BigEndian.PutUint32(header[0:4], uint32(b.Length))
		binary.BigEndian.PutUint32(header[4:8], uint32(b.Type))
		return header
	}
	// Extended length
	header := make([]byte, 16)
	binary.BigEndian.PutUint32(header[0:4], 1)
	binary.BigEndian.PutUint32(header[4:8], uint32(b.Type))
	binary.BigEndian.PutUint64(header[8:16], b.Length)
	return header
}

// Reader reads boxes from a stream.
type Reader struct {
	r      io.Reader
	offset int64
}

// NewReader creates a new box reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadBox reads the next box from the stream. It returns io.EOF if the
// stream ends cleanly before a box header.
func (r *Reader) ReadBox() (*Box, error) {
	var header [8]byte
	n, err := io.ReadFull(r.r, header[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading box header: %w", err)
	}
	r.offset += 8

	length := uint64(binary.BigEndian.Uint32(header[0:4]))
	boxType := Type(binary.BigEndian.Uint32(header[4:8]))

	headerLen := uint64(8)

	if length == 1 {
		var extLen [8]byte
		if _, err := io.ReadFull(r.r, extLen[:]); err != nil {
			return nil, fmt.Errorf("reading extended length: %w", err)
		}
		length = binary.BigEndian.Uint64(extLen[:])
		headerLen = 16
		r.offset += 8
	} else if length == 0 {
		return nil, errors.New("box extends to EOF not supported")
	}

	if length < headerLen {
		return nil, fmt.Errorf("invalid %v box length: %d", boxType, length)
	}

	contentLen := length - headerLen
	if contentLen > MaxContents {
		return nil, fmt.Errorf("%v box too large: %d bytes", boxType, contentLen)
	}

	// The declared length is untrusted, so the buffer only grows as bytes
	// arrive.
	var buf bytes.Buffer
	buf.Grow(int(min(contentLen, initialContents)))
	nc, err := buf.ReadFrom(io.LimitReader(r.r, int64(contentLen)))
	r.offset += nc
	if err != nil {
		return nil, fmt.Errorf("reading %v box contents: %w", boxType, err)
	}
	if uint64(nc) < contentLen {
		return nil, fmt.Errorf("reading %v box contents: %w", boxType, io.ErrUnexpectedEOF)
	}
	contents := buf.Bytes()

	return &Box{
		Type:     boxType,
		Length:   length,
		Contents: contents,
	}, nil
}

// ReadBoxOf reads the next box and checks that its type is t.
func (r *Reader) ReadBoxOf(t Type) (*Box, error) {
	b, err := r.ReadBox()
	if err != nil {
		return nil, err
	}
	if b.Type != t {
		return nil, fmt.Errorf("expected %v box at offset %d, found %v", t, r.offset-int64(b.Length), b.Type)
	}
	return b, nil
}

// Offset returns the current stream offset.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Writer writes boxes to a stream.
type Writer struct {
	w io.Writer
	n int64
}

// NewWriter creates a new box writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBox writes a box to the stream.
func (w *Writer) WriteBox(b *Box) error {
	if err := w.write(b.Header()); err != nil {
		return err
	}
	return w.write(b.Contents)
}

// WriteSignature writes the signature box.
func (w *Writer) WriteSignature() error {
	return w.WriteBox(New(TypeSignature, Signature))
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	return err
}

// CheckSignature verifies the contents of a signature box.
func CheckSignature(b *Box) error {
	if b.Type != TypeSignature {
		return fmt.Errorf("not a vcodec container: leading %v box", b.Type)
	}
	if len(b.Contents) != len(Signature) {
		return errors.New("signature box has wrong length")
	}
	for i, v := range Signature {
		if b.Contents[i] != v {
			return errors.New("signature box corrupt")
		}
	}
	return nil
}

// Header flag bits.
const (
	FlagZstd uint16 = 1 << 0 // Bitstream box is zstd-compressed
)

// HeaderLen is the size of the sequence header box contents.
const HeaderLen = 16 + 16*2

// HeaderBox represents the sequence header box.
type HeaderBox struct {
	Width  uint32
	Height uint32
	Frames uint32
	GOP    uint16
	Flags  uint16
	Quant  [16]uint16
}

// Parse parses the sequence header box contents.
func (b *HeaderBox) Parse(data []byte) error {
	if len(data) < HeaderLen {
		return errors.New("sequence header box too short")
	}
	b.Width = binary.BigEndian.Uint32(data[0:4])
	b.Height = binary.BigEndian.Uint32(data[4:8])
	b.Frames = binary.BigEndian.Uint32(data[8:12])
	b.GOP = binary.BigEndian.Uint16(data[12:14])
	b.Flags = binary.BigEndian.Uint16(data[14:16])
	for i := range b.Quant {
		b.Quant[i] = binary.BigEndian.Uint16(data[16+2*i:])
	}
	return nil
}

// Bytes returns the box contents.
func (b *HeaderBox) Bytes() []byte {
	data := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(data[0:4], b.Width)
	binary.BigEndian.PutUint32(data[4:8], b.Height)
	binary.BigEndian.PutUint32(data[8:12], b.Frames)
	binary.BigEndian.PutUint16(data[12:14], b.GOP)
	binary.BigEndian.PutUint16(data[14:16], b.Flags)
	for i, q := range b.Quant {
		binary.BigEndian.PutUint16(data[16+2*i:], q)
	}
	return data
}
