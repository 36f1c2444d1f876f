// Command vcodec encodes and decodes .vcb luma streams from the command line.
//
// Usage:
//
//	vcodec enc [options] <input>       Y4M/PGM/PNG/JPEG/GIF/BMP/TIFF/WebP → .vcb
//	vcodec dec [options] <input.vcb>   .vcb → Y4M, PGM or PNG
//	vcodec info <input.vcb>            Display container metadata
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrjoshuak/go-vcodec"
	"github.com/mrjoshuak/go-vcodec/internal/luma"
	"github.com/mrjoshuak/go-vcodec/internal/source"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries the output streams of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
}

// run executes a command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	if len(args) < 1 {
		a.printUsage()
		return 1
	}

	var err error
	switch args[0] {
	case "enc":
		err = a.runEnc(args[1:])
	case "dec":
		err = a.runDec(args[1:])
	case "info":
		err = a.runInfo(args[1:])
	case "-h", "-help", "--help", "help":
		a.printUsage()
		return 0
	default:
		fmt.Fprintf(stderr, "vcodec: unknown command %q\n\n", args[0])
		a.printUsage()
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "vcodec: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) printUsage() {
	fmt.Fprintf(a.stderr, `Usage:
  vcodec enc [options] <input>       Encode Y4M, PGM or a still image to .vcb
  vcodec dec [options] <input.vcb>   Decode .vcb to Y4M, PGM or PNG
  vcodec info <input.vcb>            Display container metadata

Run "vcodec <command> -h" for command-specific options.
`)
}

// outputPath returns path, or the input's base name with ext if path is
// empty.
func outputPath(path, input, ext string) string {
	if path != "" {
		return path
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
}

// --- enc ---

func (a *app) runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	output := fs.String("o", "", "output path (default: <input>.vcb)")
	gop := fs.Int("gop", 1, "key frame interval")
	compress := fs.Bool("zstd", false, "zstd-compress the bitstream")
	scale := fs.Int("scale", 0, "resample still images to this width (0=keep)")
	verbose := fs.Bool("v", false, "log every frame")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: vcodec enc [options] <input>")
	}
	inputPath := fs.Arg(0)

	opts := vcodec.DefaultOptions()
	opts.GOP = *gop
	opts.Compress = *compress
	if *verbose {
		opts.Logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	src, err := source.Open(inputPath, &source.Options{ScaleWidth: *scale})
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return fmt.Errorf("enc: %w: %w", vcodec.ErrNotFound, err)
		}
		return fmt.Errorf("enc: %w", err)
	}
	defer src.Close()

	outPath := outputPath(*output, inputPath, ".vcb")
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	st, err := a.encode(out, src, opts)
	if err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("enc: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return err
	}

	fi, err := os.Stat(outPath)
	if err != nil {
		return err
	}
	raw := int64(st.frames) * int64(src.Width()) * int64(src.Height())
	fmt.Fprintf(a.stderr, "Encoded %s → %s (%dx%d, %d frames, %d bytes)\n",
		inputPath, outPath, src.Width(), src.Height(), st.frames, fi.Size())
	fmt.Fprintf(a.stderr, "  ratio %.2f:1, %.3f ms/frame, PSNR %s\n",
		float64(raw)/float64(fi.Size()), st.msPerFrame(), formatPSNR(st.psnr()))
	fmt.Fprintf(a.stderr, "  key frames %d, macroblocks %d, modes none=%d dc=%d horizontal=%d vertical=%d\n",
		st.codec.KeyFrames, st.codec.Macroblocks,
		st.codec.Modes[vcodec.ModeNone], st.codec.Modes[vcodec.ModeDC],
		st.codec.Modes[vcodec.ModeHorizontal], st.codec.Modes[vcodec.ModeVertical])
	return nil
}

// encodeStats accumulates per-stream statistics of an enc run.
type encodeStats struct {
	frames  int
	elapsed time.Duration
	mse     float64
	codec   vcodec.Stats
}

func (s *encodeStats) msPerFrame() float64 {
	if s.frames == 0 {
		return 0
	}
	return float64(s.elapsed.Microseconds()) / 1000 / float64(s.frames)
}

// psnr returns the PSNR of the mean squared error over all frames.
func (s *encodeStats) psnr() float64 {
	if s.frames == 0 || s.mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/(s.mse/float64(s.frames)))
}

func formatPSNR(p float64) string {
	if math.IsInf(p, 1) {
		return "inf (lossless)"
	}
	return fmt.Sprintf("%.2f dB", p)
}

// encode codes every frame of src into a container on w and measures the
// reconstruction error against the source.
func (a *app) encode(w io.Writer, src source.Source, opts *vcodec.Options) (*encodeStats, error) {
	sw, err := vcodec.NewWriter(w, src.Width(), src.Height(), opts)
	if err != nil {
		return nil, err
	}

	st := &encodeStats{}
	f := vcodec.NewFrame(src.Width(), src.Height())
	for {
		err := src.ReadFrame(f.Pix)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading frame %d: %w", st.frames, err)
		}

		start := time.Now()
		if err := sw.WriteFrame(f); err != nil {
			return nil, err
		}
		st.elapsed += time.Since(start)
		st.mse += luma.MSE(f.Pix, sw.Reference().Pix)
		st.frames++
	}
	if st.frames == 0 {
		return nil, errors.New("input has no frames")
	}
	if err := sw.Close(); err != nil {
		return nil, err
	}
	st.codec = sw.Stats()
	return st, nil
}

// --- dec ---

func (a *app) runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	output := fs.String("o", "", "output path: .y4m, .pgm or .png (default: <input>.y4m)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: vcodec dec [options] <input.vcb>")
	}
	inputPath := fs.Arg(0)

	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	sr, err := vcodec.NewReader(in)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outPath := outputPath(*output, inputPath, ".y4m")
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := writeFrames(out, sr, strings.ToLower(filepath.Ext(outPath)))
	if err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("dec: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return err
	}

	m := sr.Metadata()
	fmt.Fprintf(a.stderr, "Decoded %s → %s (%dx%d, %d of %d frames, %v)\n",
		inputPath, outPath, m.Width, m.Height, n, m.Frames, time.Since(start).Round(time.Microsecond))
	return nil
}

// writeFrames writes the decoded frames of sr in the format named by ext.
// PGM and PNG hold a single image, so only the first frame is written.
func writeFrames(w io.Writer, sr *vcodec.Reader, ext string) (int, error) {
	m := sr.Metadata()
	switch ext {
	case ".pgm", ".png":
		f, err := sr.ReadFrame()
		if err == io.EOF {
			return 0, errors.New("container holds no frames")
		}
		if err != nil {
			return 0, err
		}
		if ext == ".png" {
			return 1, png.Encode(w, f.Gray())
		}
		return 1, source.WritePGM(w, f.Pix, f.Width, f.Height)
	case ".y4m":
		yw := source.NewY4MWriter(w, m.Width, m.Height)
		n := 0
		for {
			f, err := sr.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				return n, err
			}
			if err := yw.WriteFrame(f.Pix); err != nil {
				return n, err
			}
			n++
		}
		return n, yw.Flush()
	default:
		return 0, fmt.Errorf("unsupported output format %q", ext)
	}
}

// --- info ---

func (a *app) runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: vcodec info <input.vcb>")
	}
	inputPath := args[0]

	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	m, err := vcodec.DecodeMetadata(in)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	fmt.Fprintf(a.stdout, "File:       %s\n", inputPath)
	fmt.Fprintf(a.stdout, "Dimensions: %d x %d\n", m.Width, m.Height)
	fmt.Fprintf(a.stdout, "Frames:     %d\n", m.Frames)
	fmt.Fprintf(a.stdout, "GOP:        %d\n", m.GOP)
	fmt.Fprintf(a.stdout, "Zstd:       %v\n", m.Compressed)
	fmt.Fprintf(a.stdout, "Quant:      %v\n", m.Quant)
	if fi, err := os.Stat(inputPath); err == nil {
		fmt.Fprintf(a.stdout, "File size:  %d bytes\n", fi.Size())
	}
	return nil
}
