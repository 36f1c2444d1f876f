package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	y4mMagic = "YUV4MPEG2"
	y4mFrame = "FRAME"

	// maxHeaderLine bounds the stream and frame header lines.
	maxHeaderLine = 4096
)

// Y4MHeader holds the parameters of a Y4M stream header.
type Y4MHeader struct {
	Width, Height  int
	RateNum        int
	RateDen        int
	Interlace      byte
	AspectNum      int
	AspectDen      int
	ColorSpace     string
	chromaPerFrame int
}

// FrameSize returns the number of bytes of one frame, luma plus chroma.
func (h *Y4MHeader) FrameSize() int {
	return h.Width*h.Height + h.chromaPerFrame
}

// chromaSize returns the chroma bytes per frame for a Y4M colour space.
func chromaSize(cs string, w, h int) (int, error) {
	cw, ch := (w+1)/2, (h+1)/2
	switch {
	case cs == "mono" || strings.HasPrefix(cs, "mono"):
		return 0, nil
	case strings.HasPrefix(cs, "420"):
		return 2 * cw * ch, nil
	case strings.HasPrefix(cs, "422"):
		return 2 * cw * h, nil
	case strings.HasPrefix(cs, "444alpha"):
		return 3 * w * h, nil
	case strings.HasPrefix(cs, "444"):
		return 2 * w * h, nil
	default:
		return 0, fmt.Errorf("%w: y4m colour space %q", ErrFormat, cs)
	}
}

// Y4MReader reads the luma planes of a Y4M stream. Chroma planes are
// skipped.
type Y4MReader struct {
	Header Y4MHeader

	r      *bufio.Reader
	closer io.Closer
	frames int
}

// NewY4MReader parses the stream header from r.
func NewY4MReader(r io.Reader) (*Y4MReader, error) {
	br := bufio.NewReader(r)
	line, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("reading y4m header: %w", err)
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != y4mMagic {
		return nil, fmt.Errorf("%w: missing %s magic", ErrFormat, y4mMagic)
	}

	h := Y4MHeader{
		RateNum:    30,
		RateDen:    1,
		Interlace:  'p',
		ColorSpace: "420jpeg",
	}
	for _, f := range fields[1:] {
		val := f[1:]
		switch f[0] {
		case 'W':
			h.Width, err = strconv.Atoi(val)
		case 'H':
			h.Height, err = strconv.Atoi(val)
		case 'F':
			h.RateNum, h.RateDen, err = parseRatio(val)
		case 'A':
			h.AspectNum, h.AspectDen, err = parseRatio(val)
		case 'I':
			if len(val) > 0 {
				h.Interlace = val[0]
			}
		case 'C':
			h.ColorSpace = val
		}
		if err != nil {
			return nil, fmt.Errorf("%w: y4m field %q", ErrFormat, f)
		}
	}
	if h.Width <= 0 || h.Height <= 0 {
		return nil, fmt.Errorf("%w: y4m size %dx%d", ErrFormat, h.Width, h.Height)
	}
	if h.chromaPerFrame, err = chromaSize(h.ColorSpace, h.Width, h.Height); err != nil {
		return nil, err
	}

	return &Y4MReader{Header: h, r: br}, nil
}

func (y *Y4MReader) setCloser(c io.Closer) { y.closer = c }

// Width returns the frame width.
func (y *Y4MReader) Width() int { return y.Header.Width }

// Height returns the frame height.
func (y *Y4MReader) Height() int { return y.Header.Height }

// Frames returns the number of frames read so far.
func (y *Y4MReader) Frames() int { return y.frames }

// ReadFrame reads the next frame's luma plane into dst.
func (y *Y4MReader) ReadFrame(dst []uint8) error {
	line, err := readLine(y.r)
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("reading frame %d header: %w", y.frames, err)
	}
	if line != y4mFrame && !strings.HasPrefix(line, y4mFrame+" ") {
		return fmt.Errorf("%w: frame %d header %q", ErrFormat, y.frames, line)
	}

	n := y.Header.Width * y.Header.Height
	if _, err := io.ReadFull(y.r, dst[:n]); err != nil {
		return fmt.Errorf("reading frame %d: %w", y.frames, unexpected(err))
	}
	if _, err := y.r.Discard(y.Header.chromaPerFrame); err != nil {
		return fmt.Errorf("skipping frame %d chroma: %w", y.frames, unexpected(err))
	}
	y.frames++
	return nil
}

// Close closes the underlying file, if any.
func (y *Y4MReader) Close() error {
	if y.closer == nil {
		return nil
	}
	return y.closer.Close()
}

// Y4MWriter writes frames as a monochrome Y4M stream.
type Y4MWriter struct {
	w             *bufio.Writer
	width, height int
	headerDone    bool
}

// NewY4MWriter creates a writer for width x height frames. The stream
// header is written with the first frame.
func NewY4MWriter(w io.Writer, width, height int) *Y4MWriter {
	return &Y4MWriter{w: bufio.NewWriter(w), width: width, height: height}
}

// WriteFrame writes one luma plane.
func (y *Y4MWriter) WriteFrame(pix []uint8) error {
	if !y.headerDone {
		fmt.Fprintf(y.w, "%s W%d H%d F30:1 Ip A0:0 Cmono\n", y4mMagic, y.width, y.height)
		y.headerDone = true
	}
	y.w.WriteString(y4mFrame + "\n")
	_, err := y.w.Write(pix[:y.width*y.height])
	return err
}

// Flush writes any buffered data.
func (y *Y4MWriter) Flush() error {
	return y.w.Flush()
}

// readLine reads a newline-terminated header line without the newline.
func readLine(r *bufio.Reader) (string, error) {
	var buf bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && buf.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if b == '\n' {
			return buf.String(), nil
		}
		if buf.Len() >= maxHeaderLine {
			return "", fmt.Errorf("%w: header line too long", ErrFormat)
		}
		buf.WriteByte(b)
	}
}

func parseRatio(s string) (int, int, error) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.New("missing ':'")
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, 0, err
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return 0, 0, err
	}
	return n, d, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
