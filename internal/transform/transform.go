// Package transform implements the integer block transforms used by the
// codec: the 4x4 core transform for residual sub-blocks and the Hadamard
// transforms applied to the DC values of a macroblock.
//
// All functions take fixed-size arrays, work through a stack temporary and
// never allocate. dst and src may point to the same array.
package transform

// Block is a 4x4 block in row-major order.
type Block = [16]int32

// Block2 is a 2x2 block in row-major order.
type Block2 = [4]int32

// Scale is the factor by which Inverse4x4(Forward4x4(x)) exceeds x.
const Scale = 16

// HadamardScale is the factor by which IHadamard4x4(Hadamard4x4(d))
// exceeds d.
const HadamardScale = 8

// Hadamard2Scale is the factor by which Hadamard2x2 applied twice exceeds
// the input.
const Hadamard2Scale = 4

// Forward4x4 applies the 4x4 core integer transform: rows, then columns.
// Coefficient magnitudes grow by at most 36 times the input range.
func Forward4x4(dst, src *Block) {
	var tmp Block

	for i := 0; i < 4; i++ {
		p0, p1, p2, p3 := src[i*4], src[i*4+1], src[i*4+2], src[i*4+3]

		t0 := p0 + p3
		t1 := p1 + p2
		t2 := p1 - p2
		t3 := p0 - p3

		tmp[i*4] = t0 + t1
		tmp[i*4+1] = t3<<1 + t2
		tmp[i*4+2] = t0 - t1
		tmp[i*4+3] = t3 - t2<<1
	}

	for i := 0; i < 4; i++ {
		p0, p1, p2, p3 := tmp[i], tmp[4+i], tmp[8+i], tmp[12+i]

		t0 := p0 + p3
		t1 := p1 + p2
		t2 := p1 - p2
		t3 := p0 - p3

		dst[i] = t0 + t1
		dst[4+i] = t2 + t3<<1
		dst[8+i] = t0 - t1
		dst[12+i] = t3 - t2<<1
	}
}

// inverseWeights undoes the unequal row norms of the forward basis
// (4, 10, 4, 10) so that the inverse is exact at a scale of 400. The final
// division by 25 brings the scale down to 16.
var inverseWeights = Block{
	25, 10, 25, 10,
	10, 4, 10, 4,
	25, 10, 25, 10,
	10, 4, 10, 4,
}

// Inverse4x4 inverts Forward4x4 up to a factor of Scale: for any block x,
// Inverse4x4(Forward4x4(x)) == 16*x exactly. Callers divide the result by
// Scale.
func Inverse4x4(dst, src *Block) {
	var tmp Block

	for i := 0; i < 4; i++ {
		t0 := src[i*4] * inverseWeights[i*4]
		t1 := src[i*4+1] * inverseWeights[i*4+1]
		t2 := src[i*4+2] * inverseWeights[i*4+2]
		t3 := src[i*4+3] * inverseWeights[i*4+3]

		e0 := t0 + t2
		e1 := t0 - t2
		o0 := t1<<1 + t3
		o1 := t1 - t3<<1

		tmp[i*4] = e0 + o0
		tmp[i*4+1] = e1 + o1
		tmp[i*4+2] = e1 - o1
		tmp[i*4+3] = e0 - o0
	}

	for i := 0; i < 4; i++ {
		t0, t1, t2, t3 := tmp[i], tmp[4+i], tmp[8+i], tmp[12+i]

		e0 := t0 + t2
		e1 := t0 - t2
		o0 := t1<<1 + t3
		o1 := t1 - t3<<1

		dst[i] = (e0 + o0) / 25
		dst[4+i] = (e1 + o1) / 25
		dst[8+i] = (e1 - o1) / 25
		dst[12+i] = (e0 - o0) / 25
	}
}

// Hadamard4x4 applies the 4x4 Walsh-Hadamard transform to a grid of DC
// values. The column pass halves its outputs (arithmetic shift).
func Hadamard4x4(dst, src *Block) {
	var tmp Block

	for i := 0; i < 4; i++ {
		p0, p1, p2, p3 := src[i*4], src[i*4+1], src[i*4+2], src[i*4+3]

		t0 := p0 + p3
		t1 := p1 + p2
		t2 := p1 - p2
		t3 := p0 - p3

		tmp[i*4] = t0 + t1
		tmp[i*4+1] = t3 + t2
		tmp[i*4+2] = t0 - t1
		tmp[i*4+3] = t3 - t2
	}

	for i := 0; i < 4; i++ {
		p0, p1, p2, p3 := tmp[i], tmp[4+i], tmp[8+i], tmp[12+i]

		t0 := p0 + p3
		t1 := p1 + p2
		t2 := p1 - p2
		t3 := p0 - p3

		dst[i] = (t0 + t1) >> 1
		dst[4+i] = (t2 + t3) >> 1
		dst[8+i] = (t0 - t1) >> 1
		dst[12+i] = (t3 - t2) >> 1
	}
}

// IHadamard4x4 inverts Hadamard4x4 up to a factor of HadamardScale. The
// round trip is exact when the sum of the input grid is even. Every output of
// the forward column pass has the parity of that sum, so for odd sums the
// halving floors all sixteen outputs.
func IHadamard4x4(dst, src *Block) {
	var tmp Block

	for i := 0; i < 4; i++ {
		t0, t1, t2, t3 := src[i*4], src[i*4+1], src[i*4+2], src[i*4+3]

		p0 := t0 + t2
		p1 := t0 - t2
		p2 := t1 - t3
		p3 := t1 + t3

		tmp[i*4] = p0 + p3
		tmp[i*4+1] = p1 + p2
		tmp[i*4+2] = p1 - p2
		tmp[i*4+3] = p0 - p3
	}

	for i := 0; i < 4; i++ {
		t0, t1, t2, t3 := tmp[i], tmp[4+i], tmp[8+i], tmp[12+i]

		p0 := t0 + t2
		p1 := t0 - t2
		p2 := t1 - t3
		p3 := t1 + t3

		dst[i] = p0 + p3
		dst[4+i] = p1 + p2
		dst[8+i] = p1 - p2
		dst[12+i] = p0 - p3
	}
}

// Hadamard2x2 applies the 2x2 Hadamard transform. It is its own inverse up
// to a factor of Hadamard2Scale.
func Hadamard2x2(dst, src *Block2) {
	p0 := src[0] + src[1]
	p1 := src[0] - src[1]
	p2 := src[2] + src[3]
	p3 := src[2] - src[3]

	dst[0] = p0 + p2
	dst[1] = p1 + p3
	dst[2] = p0 - p2
	dst[3] = p1 - p3
}
