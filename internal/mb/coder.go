package mb

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-vcodec/internal/bio"
	"github.com/mrjoshuak/go-vcodec/internal/entropy"
	"github.com/mrjoshuak/go-vcodec/internal/intra"
	"github.com/mrjoshuak/go-vcodec/internal/transform"
)

// ErrCorrupt reports a macroblock header that cannot be decoded.
var ErrCorrupt = errors.New("mb: corrupt macroblock")

const maxSubBlocks = (SizeFull / SizeMin) * (SizeFull / SizeMin)

// Encoder codes macroblocks to a bit writer.
//
// A coded macroblock is its 2-bit mode, then the 15 zigzagged AC levels of
// each 4x4 sub-block in raster order, then the Hadamard-transformed DC
// levels of all sub-blocks as one vector.
//
// Every call runs the decoder's reconstruction on the quantized data and
// stores the result in the reference plane, so ref always matches what a
// Decoder produces from the same stream.
type Encoder struct {
	w     *bio.Writer
	quant Quant

	residual [SizeFull * SizeFull]int32
	coef     [maxSubBlocks]transform.Block
}

// NewEncoder creates a macroblock encoder writing to w.
func NewEncoder(w *bio.Writer, quant *Quant) *Encoder {
	return &Encoder{w: w, quant: *quant}
}

// Encode predicts, transforms, quantizes and codes the macroblock m of src
// against ref, then writes its reconstruction into ref. It returns the
// chosen mode and the writer's recorded status.
func (e *Encoder) Encode(src, ref *intra.Plane, m Macroblock) (intra.Mode, error) {
	residual := e.residual[:m.Size*m.Size]
	q := &e.quant

	mode := intra.Choose(residual, src, ref, m.X, m.Y, m.Size)
	e.w.PutBits(uint32(mode), intra.ModeBits)

	subs := m.SubBlocks()
	var dc transform.Block
	for by := 0; by < subs; by++ {
		for bx := 0; bx < subs; bx++ {
			var blk transform.Block
			gather(&blk, residual, m.Size, bx, by)
			transform.Forward4x4(&blk, &blk)
			dc[by*subs+bx] = blk[0]

			var zig [16]int32
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					if i == 0 && j == 0 {
						continue
					}
					zig[zigzag4x4[i][j]] = blk[i*4+j] / q[i*4+j]
				}
			}
			entropy.WriteCoeffs(e.w, zig[1:])
			dequantizeAC(&e.coef[by*subs+bx], &zig, q)
		}
	}

	var h transform.Block
	forwardDC(&h, &dc, subs)
	var zig [16]int32
	for y := 0; y < subs; y++ {
		for x := 0; x < subs; x++ {
			zig[dcScan(subs, y, x)] = h[y*subs+x] / q[0]
		}
	}
	entropy.WriteCoeffs(e.w, zig[:subs*subs])
	inverseDC(&e.coef, &zig, subs, q[0])

	reconstruct(ref, residual, &e.coef, m, mode)
	return mode, e.w.Err()
}

// Decoder decodes macroblocks from a bit reader into a reference plane.
type Decoder struct {
	r     *bio.Reader
	quant Quant

	residual [SizeFull * SizeFull]int32
	coef     [maxSubBlocks]transform.Block
}

// NewDecoder creates a macroblock decoder reading from r.
func NewDecoder(r *bio.Reader, quant *Quant) *Decoder {
	return &Decoder{r: r, quant: *quant}
}

// Decode reads macroblock m and writes its reconstruction into ref.
// A failure leaves the macroblock's area of ref unspecified.
func (d *Decoder) Decode(ref *intra.Plane, m Macroblock) (intra.Mode, error) {
	q := &d.quant

	mode := intra.Mode(d.r.GetBits(intra.ModeBits))
	if err := d.r.Err(); err != nil {
		return mode, fmt.Errorf("reading mode: %w", err)
	}
	if !intra.Eligible(mode, m.X, m.Y) {
		return mode, fmt.Errorf("%w: %v prediction at (%d,%d) has no neighbours", ErrCorrupt, mode, m.X, m.Y)
	}

	subs := m.SubBlocks()
	for i := 0; i < subs*subs; i++ {
		var zig [16]int32
		if err := entropy.ReadCoeffs(d.r, zig[1:]); err != nil {
			return mode, fmt.Errorf("reading AC block %d: %w", i, err)
		}
		dequantizeAC(&d.coef[i], &zig, q)
	}

	var zig [16]int32
	if err := entropy.ReadCoeffs(d.r, zig[:subs*subs]); err != nil {
		return mode, fmt.Errorf("reading DC block: %w", err)
	}
	inverseDC(&d.coef, &zig, subs, q[0])

	reconstruct(ref, d.residual[:m.Size*m.Size], &d.coef, m, mode)
	return mode, nil
}

// gather copies sub-block (bx, by) of a size x size residual into blk.
func gather(blk *transform.Block, residual []int32, size, bx, by int) {
	for i := 0; i < 4; i++ {
		off := (by*4+i)*size + bx*4
		copy(blk[i*4:i*4+4], residual[off:off+4])
	}
}

// dequantizeAC rescales the zigzagged AC coefficients in zig into raster
// order. The DC slot is left zero.
func dequantizeAC(dst *transform.Block, zig *[16]int32, q *Quant) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			dst[i*4+j] = zig[zigzag4x4[i][j]] * q[i*4+j]
		}
	}
	dst[0] = 0
}

// forwardDC transforms the subs x subs grid of sub-block DC values.
func forwardDC(dst, dc *transform.Block, subs int) {
	switch subs {
	case 4:
		transform.Hadamard4x4(dst, dc)
	case 2:
		var in, out transform.Block2
		copy(in[:], dc[:4])
		transform.Hadamard2x2(&out, &in)
		copy(dst[:4], out[:])
	default:
		dst[0] = dc[0]
	}
}

// inverseDC dequantizes the coded DC grid, inverts its transform and stores
// each value in the DC slot of its sub-block.
func inverseDC(coef *[maxSubBlocks]transform.Block, zig *[16]int32, subs int, q0 int32) {
	var d transform.Block
	for y := 0; y < subs; y++ {
		for x := 0; x < subs; x++ {
			d[y*subs+x] = zig[dcScan(subs, y, x)] * q0
		}
	}

	switch subs {
	case 4:
		transform.IHadamard4x4(&d, &d)
		for i := range d {
			d[i] /= transform.HadamardScale
		}
	case 2:
		var in, out transform.Block2
		copy(in[:], d[:4])
		transform.Hadamard2x2(&out, &in)
		for i := range out {
			d[i] = out[i] / transform.Hadamard2Scale
		}
	}

	for i := 0; i < subs*subs; i++ {
		coef[i][0] = d[i]
	}
}

// reconstruct inverts every sub-block transform into residual and undoes
// the prediction into ref.
func reconstruct(ref *intra.Plane, residual []int32, coef *[maxSubBlocks]transform.Block, m Macroblock, mode intra.Mode) {
	subs := m.SubBlocks()
	for by := 0; by < subs; by++ {
		for bx := 0; bx < subs; bx++ {
			var blk transform.Block
			transform.Inverse4x4(&blk, &coef[by*subs+bx])
			for i := 0; i < 4; i++ {
				off := (by*4+i)*m.Size + bx*4
				for j := 0; j < 4; j++ {
					residual[off+j] = blk[i*4+j] / transform.Scale
				}
			}
		}
	}
	intra.Unpredict(ref, residual, m.X, m.Y, m.Size, mode)
}
