package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattetti/wav-stereo/internal/config"
	"github.com/mattetti/wav-stereo/internal/converter"
	"github.com/mattetti/wav-stereo/internal/flac"
	"github.com/mattetti/wav-stereo/internal/stereo"
)

var (
	modeName    string
	channelName string
	inputPath   string
	rightPath   string
	outputPath  string
	workers     int
	chunkFrames int
	debugMode   bool
	errorSave   bool
	noWrite     bool
	flacMode    bool
	keepWAV     bool
	version     bool
)

const VERSION = "1.0.0"

func main() {
	cfg := config.Load()

	flag.StringVar(&modeName, "m", "downmix", "Mode: downmix, merge, encode or decode")
	flag.StringVar(&channelName, "c", "mid", "Downmix channel: left, right, mid, side (or 0-3)")
	flag.StringVar(&inputPath, "i", "", "Input WAV file or directory (left channel in merge mode)")
	flag.StringVar(&rightPath, "r", "", "Right channel WAV file (merge mode)")
	flag.StringVar(&outputPath, "o", "", "Output WAV file, or output directory for directory input")
	flag.IntVar(&workers, "j", cfg.Workers, "Parallel workers")
	flag.IntVar(&chunkFrames, "chunk", cfg.ChunkFrames, "Frames per parallel work unit")
	flag.BoolVar(&debugMode, "d", false, "Debug mode")
	flag.BoolVar(&errorSave, "e", false, "Save files with errors to <output>/errors/")
	flag.BoolVar(&noWrite, "n", false, "Dry run: validate and transform without writing files")
	flag.BoolVar(&flacMode, "flac", false, "Convert output to FLAC format (requires ffmpeg)")
	flag.BoolVar(&keepWAV, "keep", false, "Keep WAV files after FLAC conversion")
	flag.BoolVar(&version, "version", false, "Display version information")
	flag.Usage = printUsage
	flag.Parse()

	if version {
		fmt.Printf("wavstereo version %s\n", VERSION)
		os.Exit(0)
	}

	setupLogging(cfg.LogLevel)

	mode, err := converter.ParseMode(modeName)
	if err != nil {
		fatal(err)
	}
	channel, err := parseChannel(mode, channelName)
	if err != nil {
		fatal(err)
	}

	if inputPath == "" {
		logrus.Error("Input path is required. Use -i.")
		printUsage()
		os.Exit(1)
	}

	conv := converter.NewConverter(converter.Options{
		Mode:        mode,
		Channel:     channel,
		Debug:       debugMode,
		NoWrite:     noWrite,
		ErrorSave:   errorSave,
		Workers:     workers,
		ChunkFrames: chunkFrames,
	})

	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		fatal(err)
	}

	if inputInfo.IsDir() {
		if mode == converter.ModeMerge {
			fatal(fmt.Errorf("merge mode takes two files, not a directory"))
		}
		if outputPath == "" {
			outputPath = cfg.OutputDir
			logrus.Infof("No output directory selected - Defaulting to %s", outputPath)
		}
		summary, err := conv.ProcessDirectory(inputPath, outputPath)
		if err != nil {
			fatal(err)
		}
		if flacMode && !noWrite {
			convertToFlac(func(c *flac.Converter) (int, error) { return c.ConvertDirectory(outputPath) })
		}
		if summary.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	if outputPath == "" {
		outputPath = defaultOutput(inputPath, mode, channel)
		logrus.Infof("No output file selected - Defaulting to %s", outputPath)
	}

	switch mode {
	case converter.ModeDownmix:
		err = conv.Downmix(inputPath, outputPath, channel)
	case converter.ModeMerge:
		if rightPath == "" {
			fatal(fmt.Errorf("merge mode requires -r <right.wav>"))
		}
		err = conv.Merge(inputPath, rightPath, outputPath)
	case converter.ModeEncode:
		err = conv.Encode(inputPath, outputPath)
	case converter.ModeDecode:
		err = conv.Decode(inputPath, outputPath)
	}
	if err != nil {
		fatal(err)
	}
	logrus.Infof("Converted %s -> %s (%s)", filepath.Base(inputPath), outputPath, mode)

	if flacMode && !noWrite {
		convertToFlac(func(c *flac.Converter) (int, error) { return c.ConvertFiles([]string{outputPath}), nil })
	}
}

// parseChannel reads -c only for downmix, the one mode that uses it.
func parseChannel(mode converter.Mode, name string) (stereo.Selector, error) {
	if mode != converter.ModeDownmix {
		return stereo.Left, nil
	}
	return stereo.ParseSelector(name)
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	if debugMode {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
}

// defaultOutput names the output next to the input when -o is not given.
func defaultOutput(input string, mode converter.Mode, channel stereo.Selector) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	switch mode {
	case converter.ModeDownmix:
		return base + "_" + channel.String() + ".wav"
	case converter.ModeMerge:
		return base + "_stereo.wav"
	case converter.ModeEncode:
		return base + "_ms.wav"
	}
	return base + "_decoded.wav"
}

func convertToFlac(run func(*flac.Converter) (int, error)) {
	flacConverter, err := flac.NewConverter(debugMode, keepWAV)
	if err != nil {
		logrus.Errorf("Error initializing FLAC converter: %v", err)
		logrus.Warn("WAV files were not converted to FLAC.")
		return
	}
	n, err := run(flacConverter)
	if err != nil {
		logrus.Errorf("Error converting to FLAC: %v", err)
		return
	}
	logrus.Infof("Converted %d file(s) to FLAC.", n)
}

func fatal(err error) {
	logrus.Errorf("Error: %v", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: wavstereo -m <mode> -i <input> [-r <right>] [-o <output>] [options]")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  wavstereo -m downmix -c left -i song.wav -o left.wav   # Keep the left channel")
	fmt.Println("  wavstereo -m downmix -c side -i song.wav               # Semi-difference to song_side.wav")
	fmt.Println("  wavstereo -m merge -i l.wav -r r.wav -o stereo.wav     # Two mono files to stereo")
	fmt.Println("  wavstereo -m encode -i song.wav -o coded.wav           # Stereo to 32-bit mid/side")
	fmt.Println("  wavstereo -m decode -i coded.wav -o song.wav           # 32-bit mid/side back to stereo")
	fmt.Println("  wavstereo -m encode -i albums/ -o coded/ -flac         # Whole tree, then FLAC")
}
