// Package luma converts images to 8-bit luma planes and measures the
// distortion between planes.
package luma

import (
	"image"
	"math"
)

// Extract returns the luma samples of img in row-major order together with
// its dimensions. YCbCr and Gray images are copied directly; other models
// use the ITU-R BT.601 weights of color.GrayModel.
func Extract(img image.Image) (pix []uint8, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	pix = make([]uint8, width*height)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*width:(y+1)*width], src.Pix[off:off+width])
		}
	case *image.YCbCr:
		for y := 0; y < height; y++ {
			off := src.YOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*width:(y+1)*width], src.Y[off:off+width])
		}
	case *image.RGBA:
		for y := 0; y < height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*width]
			for x := 0; x < width; x++ {
				pix[y*width+x] = FromRGB8(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*width]
			for x := 0; x < width; x++ {
				pix[y*width+x] = FromRGB8(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				pix[y*width+x] = FromRGB16(r, g, bl)
			}
		}
	}
	return pix, width, height
}

// FromRGB16 converts 16-bit RGB channels to an 8-bit luma sample.
func FromRGB16(r, g, b uint32) uint8 {
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
	return uint8(y)
}

// FromRGB8 converts 8-bit RGB channels to an 8-bit luma sample.
func FromRGB8(r, g, b uint8) uint8 {
	return FromRGB16(uint32(r)*0x101, uint32(g)*0x101, uint32(b)*0x101)
}

// Pad copies a width x height plane into the top-left of a padW x padH
// plane, replicating the last column and row into the padding.
func Pad(dst, src []uint8, width, height, padW, padH int) {
	for y := 0; y < padH; y++ {
		sy := y
		if sy >= height {
			sy = height - 1
		}
		row := dst[y*padW : (y+1)*padW]
		n := copy(row, src[sy*width:(sy+1)*width])
		last := row[n-1]
		for x := n; x < padW; x++ {
			row[x] = last
		}
	}
}

// Crop copies the top-left width x height samples of a plane with the given
// stride into dst.
func Crop(dst, src []uint8, stride, width, height int) {
	for y := 0; y < height; y++ {
		copy(dst[y*width:(y+1)*width], src[y*stride:y*stride+width])
	}
}

// SAD returns the sum of absolute differences between a and b.
func SAD(a, b []uint8) int64 {
	var s int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		if d < 0 {
			d = -d
		}
		s += d
	}
	return s
}

// MSE returns the mean squared error between a and b.
func MSE(a, b []uint8) float64 {
	if len(a) == 0 {
		return 0
	}
	var s int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		s += d * d
	}
	return float64(s) / float64(len(a))
}

// PSNR returns the peak signal-to-noise ratio of b against a in decibels.
// Identical planes yield +Inf.
func PSNR(a, b []uint8) float64 {
	mse := MSE(a, b)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
