// Command cimbar encodes and decodes files as sequences of color-coded
// tile barcodes, for transfer across an air gap via screen and camera.
//
// Usage:
//
//	cimbar send [options] <input>        file -> PNG frame(s)
//	cimbar recv [options] <frame.png...> PNG frame(s) -> file
//	cimbar listen [options]              live V4L2 capture -> file
//	cimbar extract [options] <image.png> raw camera capture -> rectified frame
//	cimbar info <input>                  display config/frame metadata
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	cimbar "github.com/sz3/libcimbar-sub001"
	"github.com/sz3/libcimbar-sub001/internal/camera"
	"github.com/sz3/libcimbar-sub001/internal/codec"
	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/extractor"
	"github.com/sz3/libcimbar-sub001/internal/frame"
	"github.com/sz3/libcimbar-sub001/internal/logging"
	"github.com/sz3/libcimbar-sub001/internal/xfer"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "send":
		err = runSend(os.Args[2:])
	case "recv":
		err = runRecv(os.Args[2:])
	case "listen":
		err = runListen(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "cimbar: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "cimbar: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  cimbar send [options] <input>          Encode a file to PNG barcode frame(s)
  cimbar recv [options] <frame.png...>   Decode PNG barcode frame(s) to a file
  cimbar listen [options]                Decode a live V4L2 capture to a file
  cimbar extract [options] <image.png>   Rectify a raw capture to a lattice frame
  cimbar info <input>                    Display config and frame metadata

Run "cimbar <command> -h" for command-specific options.
`)
}

// --- send ---

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	output := fs.String("o", "", `output path prefix (default: <input>); frames are written <prefix>.N.png`)
	fountain := fs.Bool("fountain", true, "use fountain-coded streaming mode (false for plain RS chunking)")
	encodeID := fs.Int("id", 0, "fountain stream encode id, 0-127")
	noCompress := fs.Bool("no-compress", false, "disable zstd compression")
	extraFrames := fs.Int("extra", 4, "extra fountain frames beyond the minimum required, for loss margin")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("send: missing input file\nUsage: cimbar send [options] <input>")
	}
	inputPath := fs.Arg(0)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("send: reading input: %w", err)
	}

	cfg := config.Baseline()
	if *noCompress {
		cfg.CompressionLevel = 0
	}

	sess, err := xfer.NewSessionWithLogger(cfg, logging.Default())
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	prefix := *output
	if prefix == "" {
		prefix = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}

	var frames []*image.RGBA
	if *fountain {
		enc, err := xfer.NewFountainEncoder(sess, data, uint8(*encodeID))
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		perFrame := cfg.FountainChunksPerFrame
		need := (enc.BlocksRequired()+perFrame-1)/perFrame + *extraFrames
		for i := 0; i < need; i++ {
			img, err := enc.NextFrame()
			if err != nil {
				return fmt.Errorf("send: rendering frame %d: %w", i, err)
			}
			frames = append(frames, img)
		}
	} else {
		frames, err = xfer.EncodeSimple(sess, data)
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	for i, img := range frames {
		path := fmt.Sprintf("%s.%d.png", prefix, i)
		if err := writePNG(path, img); err != nil {
			return fmt.Errorf("send: writing %s: %w", path, err)
		}
		frame.ReleaseFrame(img)
	}

	fmt.Fprintf(os.Stderr, "Encoded %s -> %d frame(s) (%s.N.png)\n", inputPath, len(frames), prefix)
	return nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

// --- recv ---

func runRecv(args []string) error {
	fs := flag.NewFlagSet("recv", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: "output.bin", "-" for stdout)`)
	fountain := fs.Bool("fountain", true, "expect fountain-coded streaming frames (false for plain RS chunking)")
	noDecompress := fs.Bool("no-decompress", false, "skip zstd decompression")
	sharpen := fs.Bool("sharpen", false, "apply sharpen preprocessing (set if frames were captured below native resolution)")
	ccmPath := fs.String("ccm", "", "color-correction matrix file: loaded (and pinned) if it exists, else saved after decode from this stream's bootstrapped fit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("recv: missing input frame(s)\nUsage: cimbar recv [options] <frame.png...>")
	}

	var frames []*image.RGBA
	for _, path := range fs.Args() {
		img, err := readPNG(path)
		if err != nil {
			return fmt.Errorf("recv: reading %s: %w", path, err)
		}
		frames = append(frames, img)
	}

	cfg := config.Baseline()
	sess, err := xfer.NewSessionWithLogger(cfg, logging.Default())
	if err != nil {
		return fmt.Errorf("recv: %w", err)
	}
	decompress := !*noDecompress && cfg.CompressionLevel > 0

	var data []byte
	if *fountain {
		dec, err := xfer.NewDecoder(sess, decompress, *sharpen)
		if err != nil {
			return fmt.Errorf("recv: %w", err)
		}

		loadedCCM := false
		if *ccmPath != "" {
			if ccm, err := loadCCM(*ccmPath); err == nil {
				dec.SetColorCorrector(ccm)
				loadedCCM = true
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("recv: loading ccm: %w", err)
			}
		}

		for i, img := range frames {
			if _, err := dec.FeedFrame(img); err != nil {
				return fmt.Errorf("recv: frame %d: %w", i, err)
			}
		}
		completed := dec.Completed()
		if len(completed) == 0 {
			return fmt.Errorf("recv: no stream completed from %d frame(s)", len(frames))
		}
		for _, payload := range completed {
			data = payload
			break
		}

		if *ccmPath != "" && !loadedCCM {
			if err := saveCCM(*ccmPath, dec.ColorCorrector()); err != nil {
				return fmt.Errorf("recv: saving ccm: %w", err)
			}
		}
	} else {
		data, err = xfer.DecodeSimple(sess, frames, decompress, *sharpen)
		if err != nil {
			return fmt.Errorf("recv: %w", err)
		}
	}

	if *output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	outputPath := *output
	if outputPath == "" {
		outputPath = "output.bin"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("recv: writing %s: %w", outputPath, err)
	}
	fmt.Fprintf(os.Stderr, "Decoded %d frame(s) -> %s (%d bytes)\n", len(frames), outputPath, len(data))
	return nil
}

func loadCCM(path string) (*codec.ColorCorrector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.Load(f)
}

func saveCCM(path string, ccm *codec.ColorCorrector) error {
	if ccm == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ccm.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// --- listen ---

// runListen drives the live-capture decode pipeline end to end: a
// camera.Stream of raw frames, rectified by the extractor, handed to a
// pool of xfer.ConcurrentDecoder workers, whose internal/sink C14
// queue this loop drains on a 50ms ticker. This is the
// multi-worker concurrency path spec.md §5 architects for the decoder
// side; recv's sequential loop over pre-supplied PNGs is the
// file-replay counterpart for testing and offline captures.
func runListen(args []string) error {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	device := fs.String("device", "/dev/video0", "V4L2 capture device")
	captureWidth := fs.Int("capture-width", 1920, "requested capture width")
	captureHeight := fs.Int("capture-height", 1080, "requested capture height")
	output := fs.String("o", "output.bin", `output path ("-" for stdout)`)
	noDecompress := fs.Bool("no-decompress", false, "skip zstd decompression")
	sharpen := fs.Bool("sharpen", false, "apply sharpen preprocessing")
	workers := fs.Int("workers", 4, "concurrent tile-decode workers")
	queueDepth := fs.Int("queue", 64, "fountain packet queue depth")
	padding := fs.Int("padding", 8, "rectified border padding in px")
	skipRows := fs.Int("skip-rows", 1, "scan every Nth row when hunting for anchors")
	timeout := fs.Duration("timeout", 60*time.Second, "give up if no stream completes within this long")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Baseline()
	sess, err := xfer.NewSessionWithLogger(cfg, logging.Default())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	decompress := !*noDecompress && cfg.CompressionLevel > 0

	stream, err := camera.Open(*device, *captureWidth, *captureHeight)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer stream.Close()

	destSize := cfg.NumCells * cfg.CellSpacing
	ext := extractor.New(destSize, *padding, *skipRows)
	dec := xfer.NewConcurrentDecoder(sess, *workers, *queueDepth, decompress, *sharpen)

	deadline := time.After(*timeout)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case f, ok := <-stream.Frames:
			if !ok {
				return fmt.Errorf("listen: capture stream closed before any payload completed")
			}
			rect, result := ext.Extract(f.Image)
			if result == extractor.Failure {
				continue
			}
			go func() {
				_ = dec.Submit(rect) // a single bad frame from a live feed isn't fatal
			}()
		case <-tick.C:
			dec.Process()
			if completed := dec.Completed(); len(completed) > 0 {
				for _, payload := range completed {
					return writeRecvOutput(*output, payload)
				}
			}
		case <-deadline:
			return fmt.Errorf("listen: timed out after %s with no completed stream", *timeout)
		}
	}
}

func writeRecvOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("listen: writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Decoded live capture -> %s (%d bytes)\n", path, len(data))
	return nil
}

func readPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba, nil
}

// --- extract ---

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.rect.png)`)
	size := fs.Int("size", 0, "rectified lattice size in px (default: baseline config's cell grid span)")
	padding := fs.Int("padding", 8, "rectified border padding in px")
	skipRows := fs.Int("skip-rows", 1, "scan every Nth row when hunting for anchors")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("extract: missing input image\nUsage: cimbar extract [options] <image.png>")
	}
	inputPath := fs.Arg(0)

	img, err := readPNG(inputPath)
	if err != nil {
		return fmt.Errorf("extract: reading %s: %w", inputPath, err)
	}

	destSize := *size
	if destSize == 0 {
		cfg := config.Baseline()
		destSize = cfg.NumCells * cfg.CellSpacing
	}

	ext := extractor.New(destSize, *padding, *skipRows)
	rect, result := ext.Extract(img)
	if result == extractor.Failure {
		return fmt.Errorf("extract: failed to locate anchors in %s", inputPath)
	}

	outputPath := *output
	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputPath = base + ".rect.png"
	}
	if err := writePNG(outputPath, rect); err != nil {
		return fmt.Errorf("extract: writing %s: %w", outputPath, err)
	}

	sharpenNote := ""
	if result == extractor.NeedsSharpen {
		sharpenNote = " (needs sharpen: pass -sharpen to recv)"
	}
	fmt.Fprintf(os.Stderr, "Extracted %s -> %s%s\n", inputPath, outputPath, sharpenNote)
	return nil
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: cimbar info <input>")
	}
	inputPath := args[0]

	cfg := config.Baseline()
	fmt.Printf("Codec version:       %s\n", cimbar.Version)
	fmt.Printf("Config:              baseline (mode B)\n")
	fmt.Printf("Symbol/color bits:   %d/%d\n", cfg.SymbolBits, cfg.ColorBits)
	fmt.Printf("Ecc bytes/block:     %d/%d\n", cfg.EccBytes, cfg.EccBlockSize)
	fmt.Printf("Lattice cells:       %d x %d (corner padding %d)\n", cfg.NumCells, cfg.NumCells, cfg.CornerPadding)
	fmt.Printf("Image size:          %d x %d\n", cfg.ImageSize, cfg.ImageSize)
	fmt.Printf("Capacity per frame:  %d bytes\n", cfg.CapacityBytes())
	fmt.Printf("Fountain chunk size: %d bytes\n", cfg.FountainChunkSize())
	fmt.Printf("Compression level:   %d\n", cfg.CompressionLevel)

	fi, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	fmt.Printf("File:                %s\n", inputPath)
	fmt.Printf("File size:           %d bytes\n", fi.Size())
	return nil
}
