package mb

import "fmt"

// Quant is a 4x4 quantization table in row-major order. Entry 0 also
// quantizes every transformed DC value of a macroblock.
type Quant [16]int32

// DefaultQuant is the built-in quantization table.
var DefaultQuant = Quant{
	16, 11, 10, 16,
	12, 12, 14, 19,
	14, 13, 16, 24,
	14, 17, 22, 29,
}

// Validate reports an error if any entry is not positive.
func (q *Quant) Validate() error {
	for i, v := range q {
		if v <= 0 {
			return fmt.Errorf("quant[%d] = %d, must be positive", i, v)
		}
	}
	return nil
}

// zigzag4x4[i][j] is the scan position of row i, column j of a 4x4 grid.
var zigzag4x4 = [4][4]int{
	{0, 1, 5, 6},
	{2, 4, 7, 12},
	{3, 8, 11, 13},
	{9, 10, 14, 15},
}

var zigzag2x2 = [2][2]int{
	{0, 1},
	{2, 3},
}

// dcScan returns the scan position of the DC grid entry at row y, column x
// for an n x n grid. The grid is scanned transposed relative to the AC
// blocks.
func dcScan(n, y, x int) int {
	switch n {
	case 4:
		return zigzag4x4[x][y]
	case 2:
		return zigzag2x2[x][y]
	default:
		return 0
	}
}
