package intra

// Plane is a grid of 8-bit samples in row-major order.
type Plane struct {
	Width  int
	Height int
	Stride int
	Pix    []uint8
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) uint8 {
	return p.Pix[y*p.Stride+x]
}

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v uint8) {
	p.Pix[y*p.Stride+x] = v
}

// Row returns the n samples starting at (x, y).
func (p *Plane) Row(x, y, n int) []uint8 {
	off := y*p.Stride + x
	return p.Pix[off : off+n : off+n]
}

// CopyFrom copies src into p. Both planes must have the same dimensions.
func (p *Plane) CopyFrom(src *Plane) {
	for y := 0; y < p.Height; y++ {
		copy(p.Row(0, y, p.Width), src.Row(0, y, src.Width))
	}
}

// Clear sets every sample to zero.
func (p *Plane) Clear() {
	clear(p.Pix)
}
