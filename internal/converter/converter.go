package converter

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mattetti/wav-stereo/internal/stereo"
	"github.com/mattetti/wav-stereo/internal/wav"
)

// ErrUnknownMode is returned for a mode name or value that is not recognised.
var ErrUnknownMode = errors.New("converter: unknown mode")

// Mode selects the transformation applied by the converter
type Mode int

const (
	ModeDownmix Mode = iota // stereo 16 bit -> mono 16 bit
	ModeMerge               // two mono 16 bit -> stereo 16 bit
	ModeEncode              // stereo 16 bit -> mono 32 bit mid/side
	ModeDecode              // mono 32 bit mid/side -> stereo 16 bit
)

func (m Mode) String() string {
	switch m {
	case ModeDownmix:
		return "downmix"
	case ModeMerge:
		return "merge"
	case ModeEncode:
		return "encode"
	case ModeDecode:
		return "decode"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a command-line mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "downmix", "down", "mono":
		return ModeDownmix, nil
	case "merge", "stereo":
		return ModeMerge, nil
	case "encode", "enc", "cod":
		return ModeEncode, nil
	case "decode", "dec":
		return ModeDecode, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options represents the conversion options
type Options struct {
	Mode        Mode
	Channel     stereo.Selector // used by ModeDownmix
	Debug       bool
	NoWrite     bool // transform but do not write output files
	ErrorSave   bool // copy failing inputs to <output>/errors
	Workers     int  // files converted concurrently by ProcessDirectory, and frame-range workers
	ChunkFrames int
}

// Converter handles the conversion process
type Converter struct {
	options     Options
	transformer stereo.Transformer
}

// Summary reports the outcome of ProcessDirectory.
type Summary struct {
	Total     int
	Converted int
	Failed    int
	Duration  time.Duration
}

// NewConverter creates a new converter
func NewConverter(options Options) *Converter {
	if options.Workers < 1 {
		options.Workers = 1
	}
	return &Converter{
		options: options,
		transformer: stereo.Transformer{
			Workers:     options.Workers,
			ChunkFrames: options.ChunkFrames,
		},
	}
}

// Downmix writes a mono file holding the channel picked by sel.
func (c *Converter) Downmix(inputFile, outputFile string, sel stereo.Selector) error {
	h, payload, err := c.read(inputFile)
	if err != nil {
		return err
	}
	out, err := c.transformer.Downmix(payload, formatOf(h), sel)
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}
	return c.write(outputFile, 1, h.SampleRate, 16, out)
}

// Merge writes a stereo file from two mono files.
func (c *Converter) Merge(leftFile, rightFile, outputFile string) error {
	lh, left, err := c.read(leftFile)
	if err != nil {
		return err
	}
	rh, right, err := c.read(rightFile)
	if err != nil {
		return err
	}
	out, err := c.transformer.Merge(left, right, formatOf(lh), formatOf(rh))
	if err != nil {
		return fmt.Errorf("%s + %s: %w", leftFile, rightFile, err)
	}
	return c.write(outputFile, 2, lh.SampleRate, 16, out)
}

// Encode writes the 32-bit mid/side encoding of a stereo file.
func (c *Converter) Encode(inputFile, outputFile string) error {
	h, payload, err := c.read(inputFile)
	if err != nil {
		return err
	}
	out, err := c.transformer.MidSideEncode(payload, formatOf(h))
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}
	return c.write(outputFile, 1, h.SampleRate, 32, out)
}

// Decode writes the stereo file recovered from a 32-bit mid/side file.
func (c *Converter) Decode(inputFile, outputFile string) error {
	h, payload, err := c.read(inputFile)
	if err != nil {
		return err
	}
	out, err := c.transformer.MidSideDecode(payload, formatOf(h))
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}
	return c.write(outputFile, 2, h.SampleRate, 16, out)
}

// ConvertFile applies the configured single-input mode to inputFile and
// writes the result into outputDir. It returns the output path.
func (c *Converter) ConvertFile(inputFile, outputDir string) (string, error) {
	suffix, err := c.suffix()
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	outputFile := filepath.Join(outputDir, base+"_"+suffix+".wav")

	switch c.options.Mode {
	case ModeDownmix:
		err = c.Downmix(inputFile, outputFile, c.options.Channel)
	case ModeEncode:
		err = c.Encode(inputFile, outputFile)
	case ModeDecode:
		err = c.Decode(inputFile, outputFile)
	}
	if err != nil {
		logrus.Errorf("WAV CONVERT ERROR: %s", filepath.Base(inputFile))
		if c.options.ErrorSave {
			c.saveErrorFile(inputFile, filepath.Join(outputDir, "errors"))
		}
		return "", err
	}
	return outputFile, nil
}

func (c *Converter) suffix() (string, error) {
	switch c.options.Mode {
	case ModeDownmix:
		return c.options.Channel.String(), nil
	case ModeEncode:
		return "ms", nil
	case ModeDecode:
		return "decoded", nil
	case ModeMerge:
		return "", fmt.Errorf("%w: %s needs two inputs", ErrUnknownMode, c.options.Mode)
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownMode, int(c.options.Mode))
}

// ProcessDirectory converts all WAV files in a directory and its subdirectories,
// mirroring the tree under outputDir. Failing files are counted and skipped.
func (c *Converter) ProcessDirectory(inputDir, outputDir string) (Summary, error) {
	suffix, err := c.suffix()
	if err != nil {
		return Summary{}, err
	}
	outputTag := strings.ToLower("_" + suffix + ".wav")

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return Summary{}, fmt.Errorf("error resolving output directory: %w", err)
	}

	logrus.Infof("Scanning %s/ ...", inputDir)

	// Find all .wav files recursively. A separate output tree is skipped
	// whole; when output and input overlap, earlier results are recognised
	// by their suffix and saved error copies by their folder.
	var files []string
	err = filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == inputDir {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil
			}
			if abs == absOut || (info.Name() == "errors" && isWithin(absOut, abs)) {
				return filepath.SkipDir
			}
			return nil
		}
		name := strings.ToLower(info.Name())
		if filepath.Ext(name) == ".wav" && !strings.HasSuffix(name, outputTag) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("error scanning directory: %w", err)
	}

	logrus.Infof("Planning to process %d WAV files in %s/", len(files), inputDir)

	startTime := time.Now()
	var converted, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(c.options.Workers)
	for _, file := range files {
		file := file
		relPath, err := filepath.Rel(inputDir, filepath.Dir(file))
		if err != nil {
			g.Wait()
			return Summary{}, fmt.Errorf("error calculating relative path: %w", err)
		}
		dirOutputPath := filepath.Join(outputDir, relPath)
		if !c.options.NoWrite {
			if err := os.MkdirAll(dirOutputPath, 0755); err != nil {
				g.Wait()
				return Summary{}, fmt.Errorf("error creating output directory: %w", err)
			}
		}

		g.Go(func() error {
			out, err := c.ConvertFile(file, dirOutputPath)
			if err != nil {
				failed.Add(1)
				logrus.WithField("file", file).Debugf("Error converting: %v", err)
				return nil
			}
			converted.Add(1)
			logrus.WithField("file", file).Debugf("Wrote %s", out)
			return nil
		})
	}
	// Per-file failures are counted above, never returned.
	_ = g.Wait()

	summary := Summary{
		Total:     len(files),
		Converted: int(converted.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(startTime),
	}
	logrus.Infof("Converted %d/%d files. Duration: %.2fs", summary.Converted, summary.Total, summary.Duration.Seconds())
	return summary, nil
}

func (c *Converter) read(path string) (*wav.Header, []byte, error) {
	h, payload, err := wav.ReadContainer(path)
	if err != nil {
		return nil, nil, err
	}

	log := logrus.WithField("file", filepath.Base(path))
	if c.options.Debug {
		log.Debugf("%d ch, %d Hz, %d bit, %d data bytes", h.Channels, h.SampleRate, h.BitsPerSample, h.DataSize)
		log.Debugf("Header:\n%s", hex.Dump(h.Raw[:]))
	}
	if uint32(len(payload)) < h.DataSize {
		log.Warnf("data chunk declares %d bytes, file holds %d", h.DataSize, len(payload))
	}
	if h.FmtSize != 16 || h.AudioFormat != 1 {
		log.Warnf("unexpected fmt chunk (size %d, format %d), treating as PCM", h.FmtSize, h.AudioFormat)
	}
	return h, payload, nil
}

func (c *Converter) write(path string, channels int, sampleRate uint32, bits int, payload []byte) error {
	if c.options.NoWrite {
		logrus.Debugf("No-write mode, skipping %s (%d bytes)", path, len(payload))
		return nil
	}
	if err := wav.WriteContainer(path, channels, int(sampleRate), bits, payload); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// isWithin reports whether path is dir or lies below it.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func formatOf(h *wav.Header) stereo.Format {
	return stereo.Format{
		Channels:      h.Channels,
		SampleRate:    h.SampleRate,
		BitsPerSample: h.BitsPerSample,
	}
}

// saveErrorFile saves a copy of a file that caused an error
func (c *Converter) saveErrorFile(inputFile, errorDir string) {
	if c.options.NoWrite {
		return
	}

	if err := os.MkdirAll(errorDir, 0755); err != nil {
		logrus.Errorf("Error creating error directory: %v", err)
		return
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		logrus.Errorf("Error opening file for error copy: %v", err)
		return
	}
	defer inFile.Close()

	errorFilePath := filepath.Join(errorDir, filepath.Base(inputFile))
	outFile, err := os.Create(errorFilePath)
	if err != nil {
		logrus.Errorf("Error creating error file: %v", err)
		return
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, inFile); err != nil {
		logrus.Errorf("Error copying file content: %v", err)
	}
}
