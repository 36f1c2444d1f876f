package entropy

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-vcodec/internal/bio"
)

func TestReadWriteCoeffs(t *testing.T) {
	vectors := [][]int32{
		{
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		},
		{
			30, -1, 0, 0,
			0, -10, 0, 0,
			0, 2, 5, 0,
			0, 0, 0, -1,
		},
		{
			-1, 2, 0, -1,
			-1, 0, -1, -1,
			0, 0, 0, 0,
			0, 0, 0, 0,
		},
		{7},
		{0},
		{-3, 0, 0, 1},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{1<<31 - 1, -(1<<31 - 1), 0, 2},
	}

	// All vectors share one stream, the way blocks follow each other in a frame.
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	for _, v := range vectors {
		WriteCoeffs(w, v)
	}
	require.NoError(t, w.Flush())

	r := bio.NewReader(&buf)
	for i, want := range vectors {
		got := make([]int32, len(want))
		require.NoError(t, ReadCoeffs(r, got), "vector %d", i)
		assert.Equal(t, want, got, "vector %d", i)
	}
}

func TestWriteCoeffs_Layout(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []int32
		want   []byte
	}{
		{
			// One run code of 4: 00101.
			name:   "all zero",
			coeffs: []int32{0, 0, 0, 0},
			want:   []byte{0x28},
		},
		{
			// run 0 (1), magnitude 0 (1), sign + (1), then padding.
			name:   "single positive",
			coeffs: []int32{1},
			want:   []byte{0xE0},
		},
		{
			// run 1, magnitude 1 for index 2 (010 010), run 1, magnitude 0
			// for index 0 (010 1), then signs last-collected first (10).
			name:   "two signs",
			coeffs: []int32{-1, 0, 2, 0},
			want:   []byte{0x49, 0x60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bio.NewWriter(&buf)
			WriteCoeffs(w, tt.coeffs)
			require.NoError(t, w.Flush())
			assert.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestReadCoeffs_Clears(t *testing.T) {
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	WriteCoeffs(w, []int32{0, 0, 5, 0})
	require.NoError(t, w.Flush())

	got := []int32{9, 9, 9, 9}
	require.NoError(t, ReadCoeffs(bio.NewReader(&buf), got))
	assert.Equal(t, []int32{0, 0, 5, 0}, got)
}

func TestReadCoeffs_Errors(t *testing.T) {
	t.Run("run overshoots block", func(t *testing.T) {
		var buf bytes.Buffer
		w := bio.NewWriter(&buf)
		w.WriteExpGolomb(5)
		require.NoError(t, w.Flush())

		err := ReadCoeffs(bio.NewReader(&buf), make([]int32, 4))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		w := bio.NewWriter(&buf)
		WriteCoeffs(w, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
		require.NoError(t, w.Flush())

		data := buf.Bytes()[:2]
		err := ReadCoeffs(bio.NewReader(bytes.NewReader(data)), make([]int32, 16))
		assert.ErrorIs(t, err, bio.ErrEOF)
	})

	t.Run("too long", func(t *testing.T) {
		err := ReadCoeffs(bio.NewReader(bytes.NewReader(nil)), make([]int32, MaxCoeffs+1))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestWriteCoeffs_PanicsOnLongVector(t *testing.T) {
	assert.Panics(t, func() {
		WriteCoeffs(bio.NewWriter(&bytes.Buffer{}), make([]int32, MaxCoeffs+1))
	})
}

func TestRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const blocks = 2000

	vectors := make([][]int32, blocks)
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	for i := range vectors {
		v := make([]int32, []int{4, 15, 16, 32}[i%4])
		for j := range v {
			// Mostly zeros, like quantized transform output.
			if rng.Intn(4) == 0 {
				v[j] = int32(rng.Intn(2001) - 1000)
			}
		}
		vectors[i] = v
		WriteCoeffs(w, v)
	}
	require.NoError(t, w.Flush())

	r := bio.NewReader(&buf)
	for i, want := range vectors {
		got := make([]int32, len(want))
		require.NoError(t, ReadCoeffs(r, got))
		if !assert.Equal(t, want, got) {
			t.Fatalf("block %d diverged", i)
		}
	}
}

func FuzzReadCoeffs(f *testing.F) {
	f.Add([]byte{0x28})
	f.Add([]byte{0x49, 0x60})
	f.Add([]byte{0x00, 0x00, 0x00, 0x00, 0x01})
	f.Fuzz(func(t *testing.T, data []byte) {
		coeffs := make([]int32, 16)
		r := bio.NewReader(bytes.NewReader(data))
		for i := 0; i < 8; i++ {
			if err := ReadCoeffs(r, coeffs); err != nil {
				return
			}
		}
	})
}

func BenchmarkWriteCoeffs(b *testing.B) {
	block := []int32{30, -1, 0, 0, 0, -10, 0, 0, 0, 2, 5, 0, 0, 0, 0, -1}
	w := bio.NewWriter(&bytes.Buffer{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		WriteCoeffs(w, block)
		w.Reset()
	}
}
