// Package source reads raw luma frames from files and writes decoded frames
// back out.
//
// Y4M streams and binary PGM images are parsed directly. Any other input is
// decoded with the image package, with PNG, JPEG, GIF, BMP, TIFF and WebP
// registered, and reduced to its luma plane.
package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound reports a source path that does not exist.
	ErrNotFound = errors.New("source: not found")

	// ErrFormat reports a malformed or unsupported input.
	ErrFormat = errors.New("source: bad format")
)

// Source yields luma frames of a fixed size.
type Source interface {
	// Width and Height return the frame dimensions.
	Width() int
	Height() int

	// ReadFrame fills dst[:Width()*Height()] with the next frame. It returns
	// io.EOF when no frames remain.
	ReadFrame(dst []uint8) error

	// Close releases the underlying file.
	Close() error
}

// Options control how still images are opened.
type Options struct {
	// ScaleWidth resamples still images to this width, keeping the aspect
	// ratio. Zero keeps the original size. Y4M and PGM inputs are not scaled.
	ScaleWidth int
}

// Open opens the file at path as a frame source, choosing the parser by
// extension.
func Open(path string, o *Options) (Source, error) {
	if o == nil {
		o = &Options{}
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	var src Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".y4m":
		src, err = NewY4MReader(f)
	case ".pgm", ".pnm":
		src, err = newPGMSource(f)
	default:
		src, err = newImageSource(f, o.ScaleWidth)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if c, ok := src.(interface{ setCloser(io.Closer) }); ok {
		c.setCloser(f)
	} else {
		f.Close()
	}
	return src, nil
}

// stillSource is a single-frame source.
type stillSource struct {
	pix           []uint8
	width, height int
	done          bool
}

func (s *stillSource) Width() int  { return s.width }
func (s *stillSource) Height() int { return s.height }

func (s *stillSource) ReadFrame(dst []uint8) error {
	if s.done {
		return io.EOF
	}
	copy(dst, s.pix)
	s.done = true
	return nil
}

func (s *stillSource) Close() error { return nil }
