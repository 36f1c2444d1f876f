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

// Decoder reconstructs frames of a fixed size from a raw bitstream.
type Decoder struct {
	br  *bio.Reader
	mbd *mb.Decoder
	log *slog.Logger

	width  int
	height int
	layout []mb.Macroblock
	ref    *intra.Plane

	frame int
	err   error
}

// NewDecoder creates a decoder for width x height frames reading from r.
// The quantization table in o must match the encoder's. If o is nil,
// DefaultOptions is used.
func NewDecoder(r io.Reader, width, height int, o *Options) (*Decoder, error) {
	opts, err := options(o)
	if err != nil {
		return nil, err
	}
	padW, padH, err := checkSize(width, height)
	if err != nil {
		return nil, err
	}

	br := bio.NewReader(r)
	return &Decoder{
		br:     br,
		mbd:    mb.NewDecoder(br, opts.quant()),
		log:    opts.logger(),
		width:  width,
		height: height,
		layout: mb.Layout(padW, padH),
		ref:    intra.NewPlane(padW, padH),
	}, nil
}

// DecodeFrame decodes the next frame into dst, which must match the
// decoder's dimensions.
//
// The bitstream has no resynchronization points: after a failure every
// later call returns the same error.
func (d *Decoder) DecodeFrame(dst *Frame) error {
	if err := dst.check(d.width, d.height); err != nil {
		return err
	}
	if d.err != nil {
		return d.err
	}

	key, err := d.decodeFrame()
	if err != nil {
		d.err = classify(fmt.Errorf("decoding frame %d: %w", d.frame, err))
		return d.err
	}
	luma.Crop(dst.Pix, d.ref.Pix, d.ref.Stride, d.width, d.height)

	d.log.Debug("decoded frame", slog.Int("frame", d.frame), slog.Bool("key", key))
	d.frame++
	return nil
}

func (d *Decoder) decodeFrame() (bool, error) {
	key := d.br.GetBits(1) == 1
	if err := d.br.Err(); err != nil {
		return false, fmt.Errorf("reading frame flag: %w", err)
	}
	if !key {
		if d.frame == 0 {
			return false, fmt.Errorf("%w: first frame is not a key frame", ErrCorrupt)
		}
		return false, nil
	}

	for _, m := range d.layout {
		if _, err := d.mbd.Decode(d.ref, m); err != nil {
			return true, fmt.Errorf("macroblock (%d,%d): %w", m.X, m.Y, err)
		}
	}
	return true, nil
}

// Frames returns the number of frames decoded so far.
func (d *Decoder) Frames() int {
	return d.frame
}
