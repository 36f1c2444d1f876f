package vcodec

import (
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-vcodec/internal/bio"
	"github.com/mrjoshuak/go-vcodec/internal/entropy"
	"github.com/mrjoshuak/go-vcodec/internal/mb"
	"github.com/mrjoshuak/go-vcodec/internal/source"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NotNil(t, opts)
	assert.Equal(t, VariantDCT, opts.Variant)
	assert.Equal(t, 1, opts.GOP)
	assert.Nil(t, opts.Quant)
	assert.False(t, opts.Compress)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	coarse := DefaultQuant()
	coarse[0] = 64

	zero := DefaultQuant()
	zero[3] = 0

	huge := DefaultQuant()
	huge[15] = 1 << 16

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", *DefaultOptions(), false},
		{"gop", Options{GOP: 12}, false},
		{"custom quant", Options{GOP: 1, Quant: &coarse}, false},
		{"zero gop", Options{GOP: 0}, true},
		{"negative gop", Options{GOP: -3}, true},
		{"gop too large", Options{GOP: 1 << 16}, true},
		{"unknown variant", Options{Variant: Variant(3), GOP: 1}, true},
		{"zero quant", Options{GOP: 1, Quant: &zero}, true},
		{"quant too large", Options{GOP: 1, Quant: &huge}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVariant_String(t *testing.T) {
	assert.Equal(t, "DCT", VariantDCT.String())
	assert.Equal(t, "Unknown", Variant(7).String())
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeNone, "none"},
		{ModeDC, "dc"},
		{ModeHorizontal, "horizontal"},
		{ModeVertical, "vertical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.String())
	}
}

func TestDefaultQuantIsCopy(t *testing.T) {
	q := DefaultQuant()
	q[0] = 99
	assert.Equal(t, int32(16), DefaultQuant()[0])
}

func TestFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 3, 6, 5))
	img.Set(2, 3, color.RGBA{255, 255, 255, 255})
	img.Set(5, 4, color.RGBA{0, 0, 255, 255})

	f := FromImage(img)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Equal(t, uint8(255), f.Pix[0])
	assert.Equal(t, uint8(29), f.Pix[7])

	g := f.Gray()
	assert.Equal(t, image.Rect(0, 0, 4, 2), g.Bounds())
	g.SetGray(1, 0, color.Gray{Y: 42})
	assert.Equal(t, uint8(42), f.Pix[1], "Gray shares samples")

	assert.NoError(t, f.check(4, 2))
	assert.ErrorIs(t, f.check(4, 3), ErrInvalid)
	assert.ErrorIs(t, (&Frame{Width: 4, Height: 2}).check(4, 2), ErrInvalid)
	assert.ErrorIs(t, (*Frame)(nil).check(4, 2), ErrInvalid)
}

func TestCheckSize(t *testing.T) {
	tests := []struct {
		w, h       int
		padW, padH int
		wantErr    bool
	}{
		{16, 16, 16, 16, false},
		{1, 1, 4, 4, false},
		{17, 30, 20, 32, false},
		{0, 4, 0, 0, true},
		{4, -1, 0, 0, true},
		{maxDimension + 1, 4, 0, 0, true},
	}
	for _, tt := range tests {
		padW, padH, err := checkSize(tt.w, tt.h)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalid, "%dx%d", tt.w, tt.h)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, [2]int{tt.padW, tt.padH}, [2]int{padW, padH}, "%dx%d", tt.w, tt.h)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{bio.ErrEOF, ErrEOF},
		{bio.ErrIOFailed, ErrIOFailed},
		{bio.ErrCorrupt, ErrCorrupt},
		{entropy.ErrCorrupt, ErrCorrupt},
		{mb.ErrCorrupt, ErrCorrupt},
		{source.ErrFormat, ErrCorrupt},
		{source.ErrNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		err := classify(errors.Join(errors.New("context"), tt.err))
		assert.ErrorIs(t, err, tt.want, "%v", tt.err)
		assert.ErrorIs(t, err, tt.err)
	}

	assert.NoError(t, classify(nil))
	assert.Equal(t, io.ErrClosedPipe, classify(io.ErrClosedPipe))
	already := ErrInvalid
	assert.Equal(t, already, classify(already))
}
