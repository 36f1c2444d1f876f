package vcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/mrjoshuak/go-vcodec/internal/box"
	"github.com/mrjoshuak/go-vcodec/internal/mb"
)

// Writer writes a sequence of frames as a container. Frames are coded as
// they arrive; the container is written to the underlying writer by Close.
type Writer struct {
	w      io.Writer
	opts   Options
	log    *slog.Logger
	buf    bytes.Buffer
	enc    *Encoder
	closed bool
}

// NewWriter creates a container writer for width x height frames. If o is
// nil, DefaultOptions is used.
func NewWriter(w io.Writer, width, height int, o *Options) (*Writer, error) {
	opts, err := options(o)
	if err != nil {
		return nil, err
	}
	sw := &Writer{w: w, opts: opts, log: opts.logger()}
	sw.enc, err = NewEncoder(&sw.buf, width, height, &opts)
	if err != nil {
		return nil, err
	}
	return sw, nil
}

// WriteFrame codes the next frame.
func (sw *Writer) WriteFrame(f *Frame) error {
	if sw.closed {
		return fmt.Errorf("%w: write to closed writer", ErrInvalid)
	}
	if int64(sw.enc.frame) >= math.MaxUint32 {
		return fmt.Errorf("%w: too many frames", ErrInvalid)
	}
	return sw.enc.EncodeFrame(f)
}

// Stats returns the encoder's counters.
func (sw *Writer) Stats() Stats {
	return sw.enc.Stats()
}

// Reference returns a copy of the last reconstructed frame.
func (sw *Writer) Reference() *Frame {
	return sw.enc.Reference()
}

// Close flushes the bitstream and writes the container. It does not close
// the underlying writer.
func (sw *Writer) Close() error {
	if sw.closed {
		return nil
	}
	sw.closed = true

	if err := sw.enc.Flush(); err != nil {
		return err
	}

	hdr := box.HeaderBox{
		Width:  uint32(sw.enc.width),
		Height: uint32(sw.enc.height),
		Frames: uint32(sw.enc.frame),
		GOP:    uint16(sw.opts.GOP),
	}
	for i, q := range sw.enc.quant {
		hdr.Quant[i] = uint16(q)
	}

	payload := sw.buf.Bytes()
	if sw.opts.Compress {
		hdr.Flags |= box.FlagZstd
		payload = compressZstd(payload)
	}
	if len(payload) > box.MaxContents {
		return fmt.Errorf("%w: bitstream of %d bytes is too large", ErrInvalid, len(payload))
	}

	bw := box.NewWriter(sw.w)
	if err := bw.WriteSignature(); err != nil {
		return fmt.Errorf("%w: writing signature: %w", ErrIOFailed, err)
	}
	if err := bw.WriteBox(box.New(box.TypeHeader, hdr.Bytes())); err != nil {
		return fmt.Errorf("%w: writing header: %w", ErrIOFailed, err)
	}
	if err := bw.WriteBox(box.New(box.TypeData, payload)); err != nil {
		return fmt.Errorf("%w: writing bitstream: %w", ErrIOFailed, err)
	}

	sw.log.Debug("wrote container",
		slog.Int("frames", sw.enc.frame),
		slog.Int("bitstream", sw.buf.Len()),
		slog.Int64("bytes", bw.Written()),
		slog.Bool("zstd", sw.opts.Compress))
	return nil
}

// Reader reads the frames of a container.
type Reader struct {
	meta Metadata
	dec  *Decoder
	n    int
}

// NewReader reads the container header and bitstream from r.
func NewReader(r io.Reader) (*Reader, error) {
	br := box.NewReader(r)
	meta, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	data, err := br.ReadBoxOf(box.TypeData)
	if err != nil {
		return nil, containerError("reading bitstream box", err)
	}
	meta.BitstreamSize = int64(len(data.Contents))

	payload := data.Contents
	if meta.Compressed {
		if payload, err = decompressZstd(payload); err != nil {
			return nil, fmt.Errorf("%w: decompressing bitstream: %w", ErrCorrupt, err)
		}
	}
	if meta.Frames > 0 && int64(len(payload))*8 < minKeyFrameBits(meta.Width, meta.Height) {
		return nil, fmt.Errorf("%w: bitstream of %d bytes is too short for a %dx%d key frame",
			ErrCorrupt, len(payload), meta.Width, meta.Height)
	}

	quant := meta.Quant
	dec, err := NewDecoder(bytes.NewReader(payload), meta.Width, meta.Height, &Options{
		GOP:   meta.GOP,
		Quant: &quant,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &Reader{meta: meta, dec: dec}, nil
}

// Metadata returns the container metadata.
func (sr *Reader) Metadata() Metadata {
	return sr.meta
}

// ReadFrame decodes the next frame. It returns io.EOF after the last frame.
func (sr *Reader) ReadFrame() (*Frame, error) {
	if sr.n >= sr.meta.Frames {
		return nil, io.EOF
	}
	f := NewFrame(sr.meta.Width, sr.meta.Height)
	if err := sr.dec.DecodeFrame(f); err != nil {
		return nil, err
	}
	sr.n++
	return f, nil
}

// EncodeFrames writes frames to w as one container. All frames must have
// the size of the first.
func EncodeFrames(w io.Writer, frames []*Frame, o *Options) error {
	if len(frames) == 0 || frames[0] == nil {
		return fmt.Errorf("%w: no frames", ErrInvalid)
	}
	sw, err := NewWriter(w, frames[0].Width, frames[0].Height, o)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := sw.WriteFrame(f); err != nil {
			return err
		}
	}
	return sw.Close()
}

// DecodeFrames reads every frame of a container.
func DecodeFrames(r io.Reader) ([]*Frame, error) {
	sr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	frames := make([]*Frame, 0, min(sr.meta.Frames, 1024))
	for {
		f, err := sr.ReadFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

// DecodeMetadata reads only the container header.
func DecodeMetadata(r io.Reader) (*Metadata, error) {
	m, err := readHeader(box.NewReader(r))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// readHeader reads and validates the signature and header boxes.
func readHeader(br *box.Reader) (Metadata, error) {
	sig, err := br.ReadBox()
	if err != nil {
		return Metadata{}, containerError("reading signature", err)
	}
	if err := box.CheckSignature(sig); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	b, err := br.ReadBoxOf(box.TypeHeader)
	if err != nil {
		return Metadata{}, containerError("reading header box", err)
	}
	var hdr box.HeaderBox
	if err := hdr.Parse(b.Contents); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	m := Metadata{
		Width:      int(hdr.Width),
		Height:     int(hdr.Height),
		Frames:     int(hdr.Frames),
		GOP:        int(hdr.GOP),
		Compressed: hdr.Flags&box.FlagZstd != 0,
	}
	for i, q := range hdr.Quant {
		m.Quant[i] = int32(q)
	}

	if _, _, err := checkSize(m.Width, m.Height); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if m.GOP < 1 {
		return Metadata{}, fmt.Errorf("%w: GOP is zero", ErrCorrupt)
	}
	q := mb.Quant(m.Quant)
	if err := q.Validate(); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return m, nil
}

// containerError classifies a box read failure. A container that ends early
// is reported as ErrEOF, anything else as ErrCorrupt.
func containerError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrEOF, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCorrupt, what, err)
}

// minKeyFrameBits is a lower bound on the size of a key frame: the flag
// bit, then per macroblock a mode and at least one bit per coded vector.
func minKeyFrameBits(width, height int) int64 {
	padW, padH := int64(width+3)&^3, int64(height+3)&^3
	return 1 + padW*padH/(16*16)*(2+1+16)
}
