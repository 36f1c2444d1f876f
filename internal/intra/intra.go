// Package intra implements spatial prediction of square blocks from already
// reconstructed neighbour samples.
//
// Four modes exist. None predicts zero. DC predicts the truncated mean of the
// row above the block (including the top-left corner) and the column to its
// left. Horizontal repeats the left neighbour of each row, Vertical the top
// neighbour of each column. A mode is eligible only when the neighbours it
// reads lie inside the plane.
//
// The encoder searches every mode for interior blocks. Edge blocks have a
// single candidate: None at the top-left corner, Horizontal on the top edge
// and Vertical on the left edge.
package intra

import "fmt"

// Mode selects a block predictor. Its value is the 2-bit code written to the
// stream.
type Mode uint8

// Prediction modes.
const (
	ModeNone       Mode = 0
	ModeDC         Mode = 1
	ModeHorizontal Mode = 2
	ModeVertical   Mode = 3
)

// NumModes is the number of prediction modes.
const NumModes = 4

// ModeBits is the width of a mode code in the stream.
const ModeBits = 2

// MaxBlock is the largest supported block edge.
const MaxBlock = 16

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDC:
		return "dc"
	case ModeHorizontal:
		return "horizontal"
	case ModeVertical:
		return "vertical"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// searchOrder is the order in which candidates are compared; the first
// minimum wins.
var searchOrder = [NumModes]Mode{ModeDC, ModeHorizontal, ModeVertical, ModeNone}

var (
	cornerModes = []Mode{ModeNone}
	topModes    = []Mode{ModeHorizontal}
	leftModes   = []Mode{ModeVertical}
)

// candidates returns the modes the encoder compares for a block whose
// top-left sample is (x, y).
func candidates(x, y int) []Mode {
	switch {
	case x == 0 && y == 0:
		return cornerModes
	case y == 0:
		return topModes
	case x == 0:
		return leftModes
	default:
		return searchOrder[:]
	}
}

// Eligible reports whether m only reads neighbours that exist for a block
// whose top-left sample is (x, y).
func Eligible(m Mode, x, y int) bool {
	switch m {
	case ModeNone:
		return true
	case ModeDC:
		return x > 0 && y > 0
	case ModeHorizontal:
		return x > 0
	case ModeVertical:
		return y > 0
	default:
		return false
	}
}

// Predict fills pred[:size*size] with the prediction of mode m for the block
// at (x, y) of ref. m must be eligible at (x, y).
func Predict(pred []int32, ref *Plane, x, y, size int, m Mode) {
	pred = pred[:size*size]
	switch m {
	case ModeDC:
		var sum int32
		for _, v := range ref.Row(x-1, y-1, size+1) {
			sum += int32(v)
		}
		for j := 0; j < size; j++ {
			sum += int32(ref.At(x-1, y+j))
		}
		dc := sum / int32(2*size+1)
		for i := range pred {
			pred[i] = dc
		}
	case ModeHorizontal:
		for j := 0; j < size; j++ {
			left := int32(ref.At(x-1, y+j))
			row := pred[j*size : (j+1)*size]
			for i := range row {
				row[i] = left
			}
		}
	case ModeVertical:
		top := ref.Row(x, y-1, size)
		for j := 0; j < size; j++ {
			row := pred[j*size : (j+1)*size]
			for i := range row {
				row[i] = int32(top[i])
			}
		}
	default:
		clear(pred)
	}
}

// Choose selects the candidate mode whose residual against src has the
// smallest sum of absolute values, and writes that residual to
// residual[:size*size]. Ties go to DC, then Horizontal, then Vertical, then
// None. Blocks on the top or left edge always use their single edge mode.
func Choose(residual []int32, src, ref *Plane, x, y, size int) Mode {
	var pred, cand [MaxBlock * MaxBlock]int32
	n := size * size

	best := ModeNone
	bestCost := int64(-1)
	for _, m := range candidates(x, y) {
		Predict(pred[:n], ref, x, y, size, m)

		var cost int64
		for j := 0; j < size; j++ {
			row := src.Row(x, y+j, size)
			for i, v := range row {
				r := int32(v) - pred[j*size+i]
				cand[j*size+i] = r
				if r < 0 {
					cost -= int64(r)
				} else {
					cost += int64(r)
				}
			}
		}
		if bestCost < 0 || cost < bestCost {
			best, bestCost = m, cost
			copy(residual[:n], cand[:n])
		}
	}
	return best
}

// Unpredict adds the prediction of mode m back to residual, clamps the sum
// to [0, 255] and stores it into ref at (x, y).
func Unpredict(ref *Plane, residual []int32, x, y, size int, m Mode) {
	var pred [MaxBlock * MaxBlock]int32
	Predict(pred[:size*size], ref, x, y, size, m)

	for j := 0; j < size; j++ {
		row := ref.Row(x, y+j, size)
		for i := range row {
			row[i] = clamp(residual[j*size+i] + pred[j*size+i])
		}
	}
}

// SAD returns the sum of absolute values of v.
func SAD(v []int32) int64 {
	var s int64
	for _, r := range v {
		if r < 0 {
			s -= int64(r)
		} else {
			s += int64(r)
		}
	}
	return s
}

func clamp(v int32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
