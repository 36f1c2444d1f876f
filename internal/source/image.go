package source

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"

	_ "golang.org/x/image/bmp" // register BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/mrjoshuak/go-vcodec/internal/luma"
)

// Scale resamples img to width pixels wide with a Catmull-Rom kernel,
// keeping the aspect ratio. The height is at least 1.
func Scale(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || width == b.Dx() {
		return img
	}
	height := (b.Dy()*width + b.Dx()/2) / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func newImageSource(r io.Reader, scaleWidth int) (*stillSource, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if scaleWidth > 0 {
		img = Scale(img, scaleWidth)
	}
	pix, w, h := luma.Extract(img)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrFormat, format)
	}
	return &stillSource{pix: pix, width: w, height: h}, nil
}

// FromImage returns a single-frame source holding the luma of img.
func FromImage(img image.Image) Source {
	pix, w, h := luma.Extract(img)
	return &stillSource{pix: pix, width: w, height: h}
}
