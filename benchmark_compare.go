//go:build ignore

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"time"

	"github.com/mrjoshuak/go-vcodec"
	"github.com/mrjoshuak/go-vcodec/internal/luma"
)

func main() {
	sizes := []int{64, 128, 256, 512}
	iterations := 10

	fmt.Println("=== vcodec Benchmark Comparison ===")
	fmt.Println("Raw bitstream vs zstd container vs PNG")
	fmt.Println()

	fmt.Printf("%-10s | %-12s | %-12s | %-12s | %-12s | %-8s\n",
		"Size", "Encode", "Decode", "vcb bytes", "+zstd bytes", "PSNR")
	fmt.Println("-----------+--------------+--------------+--------------+--------------+---------")

	for _, size := range sizes {
		img := createTestImage(size)
		frame := vcodec.FromImage(img)

		encodeTime, plain := benchmarkEncode(frame, iterations, false)
		_, packed := benchmarkEncode(frame, iterations, true)
		decodeTime, decoded := benchmarkDecode(plain, iterations)

		fmt.Printf("%-10s | %-12s | %-12s | %-12d | %-12d | %-8.2f\n",
			fmt.Sprintf("%dx%d", size, size),
			encodeTime.Round(time.Microsecond),
			decodeTime.Round(time.Microsecond),
			len(plain),
			len(packed),
			luma.PSNR(frame.Pix, decoded.Pix))
	}

	fmt.Println()
	fmt.Printf("%-10s | %-12s | %-12s\n", "Size", "PNG bytes", "vcb bytes")
	fmt.Println("-----------+--------------+-------------")
	for _, size := range sizes {
		frame := vcodec.FromImage(createTestImage(size))

		var pngBuf, vcbBuf bytes.Buffer
		png.Encode(&pngBuf, frame.Gray())
		vcodec.EncodeFrames(&vcbBuf, []*vcodec.Frame{frame}, nil)
		fmt.Printf("%-10s | %-12d | %-12d\n", fmt.Sprintf("%dx%d", size, size), pngBuf.Len(), vcbBuf.Len())
	}

	// Additional detailed benchmarks
	fmt.Println()
	fmt.Println("=== Detailed Component Benchmarks ===")
	runDetailedBenchmarks()
}

func createTestImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x * 255) / size),
				G: uint8((y * 255) / size),
				B: uint8(((x + y) * 127) / size),
				A: 255,
			})
		}
	}
	return img
}

func benchmarkEncode(frame *vcodec.Frame, iterations int, compress bool) (time.Duration, []byte) {
	opts := vcodec.DefaultOptions()
	opts.Compress = compress
	frames := []*vcodec.Frame{frame}

	// Warmup
	var buf bytes.Buffer
	vcodec.EncodeFrames(&buf, frames, opts)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		buf.Reset()
		vcodec.EncodeFrames(&buf, frames, opts)
	}
	return time.Since(start) / time.Duration(iterations), buf.Bytes()
}

func benchmarkDecode(data []byte, iterations int) (time.Duration, *vcodec.Frame) {
	// Warmup
	frames, err := vcodec.DecodeFrames(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode failed: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		vcodec.DecodeFrames(bytes.NewReader(data))
	}
	return time.Since(start) / time.Duration(iterations), frames[0]
}

func runDetailedBenchmarks() {
	fmt.Println()
	cmd := exec.Command("go", "test", "-bench=.", "-benchtime=1s", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Run()
}
