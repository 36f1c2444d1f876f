package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func ramp(n int, seed uint8) []uint8 {
	p := make([]uint8, n)
	for i := range p {
		p[i] = uint8(i*3) + seed
	}
	return p
}

func TestY4MRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewY4MWriter(&buf, 6, 4)
	frames := [][]uint8{ramp(24, 0), ramp(24, 100)}
	for _, f := range frames {
		require.NoError(t, w.WriteFrame(f))
	}
	require.NoError(t, w.Flush())
	assert.True(t, strings.HasPrefix(buf.String(), "YUV4MPEG2 W6 H4 F30:1 Ip A0:0 Cmono\nFRAME\n"))

	r, err := NewY4MReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Width())
	assert.Equal(t, 4, r.Height())
	assert.Equal(t, "mono", r.Header.ColorSpace)
	assert.Equal(t, 24, r.Header.FrameSize())

	dst := make([]uint8, 24)
	for i, want := range frames {
		require.NoError(t, r.ReadFrame(dst), "frame %d", i)
		assert.Equal(t, want, dst)
	}
	assert.Equal(t, io.EOF, r.ReadFrame(dst))
	assert.Equal(t, 2, r.Frames())
	assert.NoError(t, r.Close())
}

func TestY4MChroma(t *testing.T) {
	tests := []struct {
		cs     string
		chroma int
	}{
		{"420jpeg", 2 * 3 * 2},
		{"420paldv", 2 * 3 * 2},
		{"422", 2 * 3 * 3},
		{"444", 2 * 5 * 3},
		{"444alpha", 3 * 5 * 3},
		{"mono", 0},
	}

	for _, tt := range tests {
		t.Run(tt.cs, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString("YUV4MPEG2 W5 H3 F25:1 It A1:1 C" + tt.cs + " XYSCSS=420JPEG\n")
			for f := 0; f < 2; f++ {
				buf.WriteString("FRAME\n")
				buf.Write(ramp(15, uint8(f)))
				buf.Write(bytes.Repeat([]byte{0xEE}, tt.chroma))
			}

			r, err := NewY4MReader(&buf)
			require.NoError(t, err)
			assert.Equal(t, 15+tt.chroma, r.Header.FrameSize())
			assert.Equal(t, byte('t'), r.Header.Interlace)
			assert.Equal(t, 25, r.Header.RateNum)

			dst := make([]uint8, 15)
			for f := 0; f < 2; f++ {
				require.NoError(t, r.ReadFrame(dst))
				assert.Equal(t, ramp(15, uint8(f)), dst)
			}
			assert.Equal(t, io.EOF, r.ReadFrame(dst))
		})
	}
}

func TestY4MDefaultColorSpace(t *testing.T) {
	r, err := NewY4MReader(strings.NewReader("YUV4MPEG2 W4 H4\n"))
	require.NoError(t, err)
	assert.Equal(t, "420jpeg", r.Header.ColorSpace)
	assert.Equal(t, 24, r.Header.FrameSize())
}

func TestY4MErrors(t *testing.T) {
	headers := []string{
		"",
		"YUV4MPEG W4 H4\n",
		"YUV4MPEG2 W0 H4\n",
		"YUV4MPEG2 Wx H4\n",
		"YUV4MPEG2 W4 H4 F30\n",
		"YUV4MPEG2 W4 H4 C411\n",
		"YUV4MPEG2 W4 H4",
		"YUV4MPEG2 W4 H4 " + strings.Repeat("X", maxHeaderLine) + "\n",
	}
	for _, h := range headers {
		_, err := NewY4MReader(strings.NewReader(h))
		assert.Error(t, err, "header %.30q", h)
	}

	t.Run("bad frame marker", func(t *testing.T) {
		r, err := NewY4MReader(strings.NewReader("YUV4MPEG2 W2 H2 Cmono\nFRAMX\nabcd"))
		require.NoError(t, err)
		assert.ErrorIs(t, r.ReadFrame(make([]uint8, 4)), ErrFormat)
	})

	t.Run("truncated frame", func(t *testing.T) {
		r, err := NewY4MReader(strings.NewReader("YUV4MPEG2 W2 H2 Cmono\nFRAME\nab"))
		require.NoError(t, err)
		assert.ErrorIs(t, r.ReadFrame(make([]uint8, 4)), io.ErrUnexpectedEOF)
	})

	t.Run("truncated chroma", func(t *testing.T) {
		r, err := NewY4MReader(strings.NewReader("YUV4MPEG2 W2 H2 C420\nFRAME\nabcdX"))
		require.NoError(t, err)
		assert.ErrorIs(t, r.ReadFrame(make([]uint8, 4)), io.ErrUnexpectedEOF)
	})

	t.Run("frame parameters", func(t *testing.T) {
		r, err := NewY4MReader(strings.NewReader("YUV4MPEG2 W2 H2 Cmono\nFRAME Ixyz\nabcd"))
		require.NoError(t, err)
		assert.NoError(t, r.ReadFrame(make([]uint8, 4)))
	})
}

func TestPGM(t *testing.T) {
	var buf bytes.Buffer
	pix := ramp(12, 7)
	require.NoError(t, WritePGM(&buf, pix, 4, 3))
	assert.True(t, strings.HasPrefix(buf.String(), "P5\n4 3\n255\n"))

	got, w, h, err := ReadPGM(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, pix, got)
}

func TestPGMComments(t *testing.T) {
	data := "P5\n# made by hand\n2 # width\n2\n255 " + "\x01\x02\x03\x04"
	pix, w, h, err := ReadPGM(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, []int{w, h})
	assert.Equal(t, []uint8{1, 2, 3, 4}, pix)
}

func TestPGMErrors(t *testing.T) {
	inputs := []string{
		"",
		"P2\n2 2\n255\n",
		"P5\n2 2\n65535\n\x00\x00",
		"P5\n2 x\n255\n",
		"P5\n2 2\n255\n\x01",
		"P5\n2 2\n255",
		"P5\n-2 2\n255\n",
	}
	for _, in := range inputs {
		_, _, _, err := ReadPGM(strings.NewReader(in))
		assert.Error(t, err, "input %q", in)
	}
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(x*30 + y*5)
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	img := testImage()

	write := func(name string, enc func(f *os.File) error) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, enc(f))
		require.NoError(t, f.Close())
		return path
	}

	want, _, _ := func() ([]uint8, int, int) {
		s := FromImage(img)
		dst := make([]uint8, s.Width()*s.Height())
		require.NoError(t, s.ReadFrame(dst))
		return dst, s.Width(), s.Height()
	}()

	paths := map[string]string{
		"png":  write("a.png", func(f *os.File) error { return png.Encode(f, img) }),
		"bmp":  write("a.bmp", func(f *os.File) error { return bmp.Encode(f, img) }),
		"tiff": write("a.tiff", func(f *os.File) error { return tiff.Encode(f, img, nil) }),
		"pgm":  write("a.pgm", func(f *os.File) error { return WritePGM(f, want, 8, 6) }),
		"y4m": write("a.y4m", func(f *os.File) error {
			w := NewY4MWriter(f, 8, 6)
			if err := w.WriteFrame(want); err != nil {
				return err
			}
			return w.Flush()
		}),
	}

	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			src, err := Open(path, nil)
			require.NoError(t, err)
			defer src.Close()

			require.Equal(t, 8, src.Width())
			require.Equal(t, 6, src.Height())
			dst := make([]uint8, 48)
			require.NoError(t, src.ReadFrame(dst))
			assert.Equal(t, want, dst)
			assert.Equal(t, io.EOF, src.ReadFrame(dst))
		})
	}

	t.Run("scaled", func(t *testing.T) {
		src, err := Open(paths["png"], &Options{ScaleWidth: 4})
		require.NoError(t, err)
		defer src.Close()
		assert.Equal(t, 4, src.Width())
		assert.Equal(t, 3, src.Height())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "nope.y4m"), nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("garbage", func(t *testing.T) {
		path := write("junk.png", func(f *os.File) error {
			_, err := f.WriteString("not an image")
			return err
		})
		_, err := Open(path, nil)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestScale(t *testing.T) {
	img := testImage()
	assert.Same(t, image.Image(img), Scale(img, 0))
	assert.Same(t, image.Image(img), Scale(img, 8))

	small := Scale(img, 2)
	assert.Equal(t, image.Rect(0, 0, 2, 2), small.Bounds())

	flat := image.NewGray(image.Rect(0, 0, 100, 1))
	assert.Equal(t, 1, Scale(flat, 10).Bounds().Dy())
}
