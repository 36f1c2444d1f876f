// Package entropy implements the coefficient coder used for transform blocks.
//
// A block is coded from its last coefficient to its first as a sequence of
// (zero run, magnitude) pairs, both Exp-Golomb coded, followed by one packed
// sign bit per nonzero coefficient. A trailing run that reaches index 0 is
// closed by a final run code with no magnitude after it.
package entropy

import (
	"errors"
	"fmt"
	"math"

	"github.com/mrjoshuak/go-vcodec/internal/bio"
)

// MaxCoeffs is the longest vector the coder accepts. Every nonzero
// coefficient contributes one bit to a 32-bit sign field.
const MaxCoeffs = 32

// ErrCorrupt reports a run length or magnitude that cannot occur in a
// well-formed block.
var ErrCorrupt = errors.New("entropy: corrupt coefficient block")

// WriteCoeffs codes coeffs to w. It panics if len(coeffs) > MaxCoeffs.
// I/O failures are recorded by w and surface through w.Err.
func WriteCoeffs(w *bio.Writer, coeffs []int32) {
	if len(coeffs) > MaxCoeffs {
		panic(fmt.Sprintf("entropy: %d coefficients exceeds %d", len(coeffs), MaxCoeffs))
	}

	var (
		run   uint32
		signs uint32
		n     uint
	)
	for i := len(coeffs) - 1; i >= 0; i-- {
		c := coeffs[i]
		if c == 0 {
			run++
			continue
		}
		w.WriteExpGolomb(run)
		run = 0

		signs <<= 1
		mag := uint32(c)
		if c > 0 {
			signs |= 1
		} else {
			mag = -mag
		}
		n++
		w.WriteExpGolomb(mag - 1)
	}
	if run != 0 {
		w.WriteExpGolomb(run)
	}
	if n > 0 {
		w.PutBits(signs, n)
	}
}

// ReadCoeffs decodes len(coeffs) coefficients from r into coeffs. It returns
// the reader's recorded failure, or ErrCorrupt if a run overshoots the block.
func ReadCoeffs(r *bio.Reader, coeffs []int32) error {
	if len(coeffs) > MaxCoeffs {
		return fmt.Errorf("%w: %d coefficients exceeds %d", ErrCorrupt, len(coeffs), MaxCoeffs)
	}
	clear(coeffs)

	var n uint
	left := uint32(len(coeffs))
	for left > 0 {
		run := r.ReadExpGolomb()
		if err := r.Err(); err != nil {
			return err
		}
		if run > left {
			return fmt.Errorf("%w: run %d with %d coefficients left", ErrCorrupt, run, left)
		}
		left -= run
		if left == 0 {
			break
		}

		mag := r.ReadExpGolomb()
		if err := r.Err(); err != nil {
			return err
		}
		if mag >= math.MaxInt32 {
			return fmt.Errorf("%w: magnitude %d out of range", ErrCorrupt, uint64(mag)+1)
		}
		left--
		coeffs[left] = int32(mag) + 1
		n++
	}

	if n == 0 {
		return nil
	}
	signs := r.GetBits(n)
	if err := r.Err(); err != nil {
		return err
	}
	for i, c := range coeffs {
		if c == 0 {
			continue
		}
		if signs&1 == 0 {
			coeffs[i] = -c
		}
		signs >>= 1
	}
	return nil
}
