package vcodec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrjoshuak/go-vcodec/internal/bio"
	"github.com/mrjoshuak/go-vcodec/internal/entropy"
	"github.com/mrjoshuak/go-vcodec/internal/mb"
	"github.com/mrjoshuak/go-vcodec/internal/source"
)

// Errors returned by the codec. Failures from lower layers are wrapped so
// that errors.Is matches one of these.
var (
	// ErrInvalid reports bad options or frame dimensions.
	ErrInvalid = errors.New("vcodec: invalid argument")

	// ErrIOFailed reports a failure of the underlying reader or writer.
	ErrIOFailed = errors.New("vcodec: I/O failed")

	// ErrNotFound reports a frame source that does not exist.
	ErrNotFound = errors.New("vcodec: not found")

	// ErrEOF reports a bitstream that ended in the middle of a frame.
	ErrEOF = errors.New("vcodec: unexpected end of bitstream")

	// ErrCorrupt reports a bitstream or container that cannot be decoded.
	ErrCorrupt = errors.New("vcodec: corrupt data")
)

// classify wraps err with the matching sentinel error. Errors that already
// match one, or that no sentinel describes, are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, e := range []error{ErrInvalid, ErrIOFailed, ErrNotFound, ErrEOF, ErrCorrupt} {
		if errors.Is(err, e) {
			return err
		}
	}

	var sentinel error
	switch {
	case errors.Is(err, bio.ErrEOF):
		sentinel = ErrEOF
	case errors.Is(err, bio.ErrIOFailed):
		sentinel = ErrIOFailed
	case errors.Is(err, bio.ErrCorrupt),
		errors.Is(err, entropy.ErrCorrupt),
		errors.Is(err, mb.ErrCorrupt),
		errors.Is(err, source.ErrFormat):
		sentinel = ErrCorrupt
	case errors.Is(err, source.ErrNotFound):
		sentinel = ErrNotFound
	default:
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// discardHandler is a slog.Handler that drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
