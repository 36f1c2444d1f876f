// Package vcodec provides a block-based intra codec for 8-bit luma images
// and video.
//
// Each frame is split into macroblocks of 16x16 samples, with 8x8 or 4x4
// macroblocks covering the right and bottom remainders. A macroblock is
// predicted from its already reconstructed neighbours, and the residual is
// coded as 4x4 integer transforms. The DC terms of all sub-blocks are
// gathered and coded once more through a Hadamard transform. Coefficients
// are entropy coded as zero runs with Exp-Golomb codes.
//
// Basic usage for encoding a still image:
//
//	file, _ := os.Create("output.vcb")
//	err := vcodec.Encode(file, img, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Basic usage for decoding:
//
//	file, _ := os.Open("image.vcb")
//	img, err := vcodec.Decode(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Sequences are written with NewWriter and read back with NewReader. The raw
// bitstream, without the container, is produced by Encoder and consumed by
// Decoder.
package vcodec

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/mrjoshuak/go-vcodec/internal/intra"
	"github.com/mrjoshuak/go-vcodec/internal/mb"
)

// Variant selects the coding engine.
type Variant int

const (
	// VariantDCT is the intra-predicted integer transform engine.
	VariantDCT Variant = iota
)

// String returns the string representation of the variant.
func (v Variant) String() string {
	switch v {
	case VariantDCT:
		return "DCT"
	default:
		return "Unknown"
	}
}

// Mode is the intra prediction mode chosen for a macroblock.
type Mode uint8

const (
	// ModeNone codes the samples without prediction.
	ModeNone = Mode(intra.ModeNone)
	// ModeDC predicts every sample from the mean of the neighbours.
	ModeDC = Mode(intra.ModeDC)
	// ModeHorizontal repeats the left neighbour column across each row.
	ModeHorizontal = Mode(intra.ModeHorizontal)
	// ModeVertical repeats the top neighbour row down each column.
	ModeVertical = Mode(intra.ModeVertical)
)

// NumModes is the number of prediction modes.
const NumModes = intra.NumModes

// String returns the name of the mode.
func (m Mode) String() string {
	return intra.Mode(m).String()
}

// DefaultQuant returns a copy of the built-in quantization table.
func DefaultQuant() [16]int32 {
	return mb.DefaultQuant
}

// Options holds the codec options.
type Options struct {
	// Variant selects the coding engine. Only VariantDCT is implemented.
	Variant Variant

	// GOP is the key frame interval. Frame n is a key frame when n%GOP is
	// zero. Other frames repeat the previous reconstruction.
	// Default is 1 (every frame is a key frame).
	GOP int

	// Quant overrides the 4x4 quantization table, in row-major order.
	// Entry 0 also quantizes the Hadamard-transformed DC values.
	// If nil, the built-in table is used.
	Quant *[16]int32

	// Compress enables zstd compression of the container's bitstream box.
	// Ignored by Encoder and Decoder, which work on the raw bitstream.
	Compress bool

	// Logger receives per-frame debug records. If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns the default codec options.
func DefaultOptions() *Options {
	return &Options{
		Variant: VariantDCT,
		GOP:     1,
	}
}

// Validate reports whether the options are usable. Errors wrap ErrInvalid.
func (o *Options) Validate() error {
	if o.Variant != VariantDCT {
		return fmt.Errorf("%w: unsupported variant %v", ErrInvalid, o.Variant)
	}
	if o.GOP < 1 || o.GOP > math.MaxUint16 {
		return fmt.Errorf("%w: GOP %d out of range", ErrInvalid, o.GOP)
	}
	if o.Quant != nil {
		q := mb.Quant(*o.Quant)
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		for i, v := range o.Quant {
			if v > math.MaxUint16 {
				return fmt.Errorf("%w: quant[%d] = %d exceeds %d", ErrInvalid, i, v, math.MaxUint16)
			}
		}
	}
	return nil
}

// quant returns the effective quantization table.
func (o *Options) quant() *mb.Quant {
	if o.Quant == nil {
		q := mb.DefaultQuant
		return &q
	}
	q := mb.Quant(*o.Quant)
	return &q
}

// logger returns the configured logger or one that discards everything.
func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(discardHandler{})
	}
	return o.Logger
}

// options returns a validated copy of o, or the defaults when o is nil.
func options(o *Options) (Options, error) {
	if o == nil {
		return *DefaultOptions(), nil
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return *o, nil
}

// Metadata describes a container without decoding its frames.
type Metadata struct {
	// Width is the frame width in pixels.
	Width int

	// Height is the frame height in pixels.
	Height int

	// Frames is the number of coded frames.
	Frames int

	// GOP is the key frame interval used by the encoder.
	GOP int

	// Compressed reports whether the bitstream box is zstd-compressed.
	Compressed bool

	// Quant is the quantization table the frames were coded with.
	Quant [16]int32

	// BitstreamSize is the stored size of the bitstream box contents.
	// It is zero when only the header was read.
	BitstreamSize int64
}

// Decode reads a container from r and returns its first frame as an
// *image.Gray.
func Decode(r io.Reader) (image.Image, error) {
	sr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	f, err := sr.ReadFrame()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: container holds no frames", ErrCorrupt)
		}
		return nil, err
	}
	return f.Gray(), nil
}

// DecodeConfig returns the dimensions and colour model of a container
// without decoding its frames.
func DecodeConfig(r io.Reader) (image.Config, error) {
	m, err := DecodeMetadata(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: grayModel,
		Width:      m.Width,
		Height:     m.Height,
	}, nil
}

// Encode writes m to w as a single-frame container. The image is reduced
// to its luma plane.
func Encode(w io.Writer, m image.Image, o *Options) error {
	return EncodeFrames(w, []*Frame{FromImage(m)}, o)
}

// init registers the container format with the image package.
func init() {
	image.RegisterFormat("vcodec", "\x00\x00\x00\x0cvcdc\r\n\x87\n", Decode, DecodeConfig)
}
