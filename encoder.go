package vcodec

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mrjoshuak/go-vcodec/internal/bio"
	"github.com/mrjoshuak/go-vcodec/internal/intra"
	"github.com/mrjoshuak/go-vcodec/internal/luma"
	"github.com/mrjoshuak/go-vcodec/internal/mb"
)

// Stats counts the work done by an Encoder.
type Stats struct {
	// Frames is the number of frames coded.
	Frames int

	// KeyFrames is the number of frames coded as key frames.
	KeyFrames int

	// Macroblocks is the number of macroblocks coded.
	Macroblocks int

	// Modes counts the macroblocks coded with each prediction mode,
	// indexed by Mode.
	Modes [NumModes]int

	// Bits is the bitstream length so far, excluding the final padding.
	Bits int64
}

// Encoder codes frames of a fixed size to a raw bitstream.
//
// The encoder owns a reference frame holding the reconstruction a Decoder
// will produce. Each macroblock is predicted from the reference, so the
// encoder must see every frame in order.
type Encoder struct {
	bw    *bio.Writer
	mbe   *mb.Encoder
	quant *mb.Quant
	log   *slog.Logger
	gop   int

	width  int
	height int
	layout []mb.Macroblock
	src    *intra.Plane
	ref    *intra.Plane

	frame int
	stats Stats
	err   error
}

// NewEncoder creates an encoder for width x height frames writing to w.
// If o is nil, DefaultOptions is used.
func NewEncoder(w io.Writer, width, height int, o *Options) (*Encoder, error) {
	opts, err := options(o)
	if err != nil {
		return nil, err
	}
	padW, padH, err := checkSize(width, height)
	if err != nil {
		return nil, err
	}

	bw := bio.NewWriter(w)
	quant := opts.quant()
	return &Encoder{
		bw:     bw,
		mbe:    mb.NewEncoder(bw, quant),
		quant:  quant,
		log:    opts.logger(),
		gop:    opts.GOP,
		width:  width,
		height: height,
		layout: mb.Layout(padW, padH),
		src:    intra.NewPlane(padW, padH),
		ref:    intra.NewPlane(padW, padH),
	}, nil
}

// EncodeFrame codes f. Frames whose index is a multiple of the GOP are key
// frames; the others are coded as a single flag bit and repeat the
// reference.
//
// After a failure the bitstream cannot be continued, and every later call
// returns the same error.
func (e *Encoder) EncodeFrame(f *Frame) error {
	if err := f.check(e.width, e.height); err != nil {
		return err
	}
	if e.err != nil {
		return e.err
	}

	start := e.bw.Bits()
	key := e.frame%e.gop == 0
	if err := e.encodeFrame(f, key); err != nil {
		e.err = classify(fmt.Errorf("encoding frame %d: %w", e.frame, err))
		return e.err
	}

	e.log.Debug("encoded frame",
		slog.Int("frame", e.frame),
		slog.Bool("key", key),
		slog.Int64("bits", e.bw.Bits()-start))
	e.frame++
	e.stats.Frames++
	return nil
}

func (e *Encoder) encodeFrame(f *Frame, key bool) error {
	if !key {
		e.bw.PutBits(0, 1)
		return e.bw.Err()
	}

	e.bw.PutBits(1, 1)
	if err := e.bw.Err(); err != nil {
		return fmt.Errorf("writing frame flag: %w", err)
	}
	luma.Pad(e.src.Pix, f.Pix, e.width, e.height, e.src.Width, e.src.Height)
	for _, m := range e.layout {
		mode, err := e.mbe.Encode(e.src, e.ref, m)
		if err != nil {
			return fmt.Errorf("macroblock (%d,%d): %w", m.X, m.Y, err)
		}
		e.stats.Modes[mode]++
	}
	e.stats.KeyFrames++
	e.stats.Macroblocks += len(e.layout)
	return nil
}

// Flush writes any buffered bits, padding the last byte with zeros. Frames
// encoded after a Flush start on a byte boundary and cannot be decoded by a
// single Decoder.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.bw.Flush(); err != nil {
		e.err = classify(fmt.Errorf("flushing bitstream: %w", err))
	}
	return e.err
}

// Reset discards all state and directs the encoder at w. The next frame is
// a key frame.
func (e *Encoder) Reset(w io.Writer) {
	e.bw = bio.NewWriter(w)
	e.mbe = mb.NewEncoder(e.bw, e.quant)
	e.ref.Clear()
	e.frame = 0
	e.stats = Stats{}
	e.err = nil
}

// Reference returns a copy of the current reconstruction, cropped to the
// frame size.
func (e *Encoder) Reference() *Frame {
	f := NewFrame(e.width, e.height)
	luma.Crop(f.Pix, e.ref.Pix, e.ref.Stride, e.width, e.height)
	return f
}

// Stats returns the encoder's counters.
func (e *Encoder) Stats() Stats {
	s := e.stats
	s.Bits = e.bw.Bits()
	return s
}
