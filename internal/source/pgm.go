package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// ReadPGM reads a binary (P5) PGM image with a maximum value of 255.
func ReadPGM(r io.Reader) (pix []uint8, width, height int, err error) {
	br := bufio.NewReader(r)

	magic, err := pgmToken(br)
	if err != nil {
		return nil, 0, 0, err
	}
	if magic != "P5" {
		return nil, 0, 0, fmt.Errorf("%w: pgm magic %q", ErrFormat, magic)
	}

	var vals [3]int
	for i := range vals {
		tok, err := pgmToken(br)
		if err != nil {
			return nil, 0, 0, err
		}
		if vals[i], err = strconv.Atoi(tok); err != nil || vals[i] <= 0 {
			return nil, 0, 0, fmt.Errorf("%w: pgm header value %q", ErrFormat, tok)
		}
	}
	width, height = vals[0], vals[1]
	if vals[2] != 255 {
		return nil, 0, 0, fmt.Errorf("%w: pgm maxval %d", ErrFormat, vals[2])
	}

	// Exactly one whitespace byte separates the header from the raster.
	if _, err := br.ReadByte(); err != nil {
		return nil, 0, 0, fmt.Errorf("reading pgm header: %w", unexpected(err))
	}
	pix = make([]uint8, width*height)
	if _, err := io.ReadFull(br, pix); err != nil {
		return nil, 0, 0, fmt.Errorf("reading pgm raster: %w", unexpected(err))
	}
	return pix, width, height, nil
}

// WritePGM writes pix as a binary PGM image.
func WritePGM(w io.Writer, pix []uint8, width, height int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P5\n%d %d\n255\n", width, height)
	bw.Write(pix[:width*height])
	return bw.Flush()
}

// pgmToken returns the next whitespace-delimited header token, skipping
// comments. The delimiter after the token is left unread.
func pgmToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 && err == io.EOF {
				return string(tok), nil
			}
			return "", fmt.Errorf("reading pgm header: %w", unexpected(err))
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := r.ReadString('\n'); err != nil {
				return "", fmt.Errorf("reading pgm header: %w", unexpected(err))
			}
		case isSpace(b):
			if len(tok) > 0 {
				r.UnreadByte()
				return string(tok), nil
			}
		default:
			if len(tok) >= 16 {
				return "", fmt.Errorf("%w: pgm header token too long", ErrFormat)
			}
			tok = append(tok, b)
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func newPGMSource(r io.Reader) (*stillSource, error) {
	pix, w, h, err := ReadPGM(r)
	if err != nil {
		return nil, err
	}
	return &stillSource{pix: pix, width: w, height: h}, nil
}
