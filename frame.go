package vcodec

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mrjoshuak/go-vcodec/internal/luma"
)

var grayModel = color.GrayModel

// Frame is one plane of 8-bit luma samples in row-major order, with no
// padding between rows.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a zeroed width x height frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromImage returns the luma plane of m. Colour images are converted with
// the same weights as color.GrayModel.
func FromImage(m image.Image) *Frame {
	pix, w, h := luma.Extract(m)
	return &Frame{Width: w, Height: h, Pix: pix}
}

// Gray returns the frame as an *image.Gray sharing its samples.
func (f *Frame) Gray() *image.Gray {
	return &image.Gray{
		Pix:    f.Pix,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// check reports whether f is a width x height frame.
func (f *Frame) check(width, height int) error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalid)
	}
	if f.Width != width || f.Height != height {
		return fmt.Errorf("%w: frame is %dx%d, want %dx%d", ErrInvalid, f.Width, f.Height, width, height)
	}
	if len(f.Pix) < width*height {
		return fmt.Errorf("%w: frame has %d samples, want %d", ErrInvalid, len(f.Pix), width*height)
	}
	return nil
}

// checkSize validates frame dimensions and returns them padded to the next
// multiple of 4.
func checkSize(width, height int) (padW, padH int, err error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: frame size %dx%d", ErrInvalid, width, height)
	}
	if width > maxDimension || height > maxDimension {
		return 0, 0, fmt.Errorf("%w: frame size %dx%d exceeds %d", ErrInvalid, width, height, maxDimension)
	}
	return (width + 3) &^ 3, (height + 3) &^ 3, nil
}

// maxDimension bounds the frame width and height.
const maxDimension = 1 << 15
