// Package mb implements the macroblock coder: frame tiling, quantization and
// the per-macroblock encode and decode paths that keep the reference plane
// of encoder and decoder identical.
package mb

// Macroblock sizes.
const (
	SizeFull    = 16
	SizeReduced = 8
	SizeMin     = 4
)

// Macroblock is a square region of the frame coded with one prediction mode.
type Macroblock struct {
	X, Y int
	Size int
}

// SubBlocks returns the number of 4x4 sub-blocks per row of m.
func (m Macroblock) SubBlocks() int {
	return m.Size / SizeMin
}

// Layout tiles a width x height frame with macroblocks in coding order.
// Both dimensions must be multiples of 4.
//
// The frame is coded in 16-high bands. Each band holds as many 16x16
// macroblocks as fit, followed by the right remainder strip tiled with 8x8
// (when its width is a multiple of 8) or 4x4 macroblocks. The bottom
// remainder band is tiled the same way with 8 or 4 as its nominal size.
func Layout(width, height int) []Macroblock {
	if width <= 0 || height <= 0 || width%SizeMin != 0 || height%SizeMin != 0 {
		return nil
	}
	n := (width / SizeMin) * (height / SizeMin)
	blocks := make([]Macroblock, 0, n/4+1)
	return layout(blocks, 0, 0, width, height, SizeFull)
}

func layout(dst []Macroblock, x0, y0, width, height, size int) []Macroblock {
	fullW := width / size * size
	fullH := height / size * size

	for y := y0; y < y0+fullH; y += size {
		for x := x0; x < x0+fullW; x += size {
			dst = append(dst, Macroblock{X: x, Y: y, Size: size})
		}
		if rem := width - fullW; rem > 0 {
			dst = layout(dst, x0+fullW, y, rem, size, reducedSize(rem))
		}
	}
	if rem := height - fullH; rem > 0 {
		dst = layout(dst, x0, y0+fullH, width, rem, reducedSize(rem))
	}
	return dst
}

// reducedSize returns the macroblock size for a remainder of rem samples.
func reducedSize(rem int) int {
	if rem%SizeReduced == 0 {
		return SizeReduced
	}
	return SizeMin
}
